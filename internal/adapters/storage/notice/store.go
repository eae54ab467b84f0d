package notice

import (
	"context"
	"time"

	domain "etag/internal/domain/notice"
)

// Store persists Notice state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Notice, error)
	Save(ctx context.Context, value domain.Notice) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Notice, error)
	ListVisible(ctx context.Context, now time.Time) ([]domain.Notice, error)
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	CreatedBy string
	Limit     int
	Offset    int
}
