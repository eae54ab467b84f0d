package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditStore "etag/internal/adapters/storage/audit"
	noticeStore "etag/internal/adapters/storage/notice"
	"etag/internal/domain/audit"
	"etag/internal/domain/notice"
)

// PostNoticeInput carries input for the post-notice orchestrator.
type PostNoticeInput struct {
	Title      string
	Content    string
	Color      string
	ShowAuthor bool
	Pinned     bool
	ActorEmail string
	ActorName  string
	ActorRole  string
	ClientIP   string
	UserAgent  string
}

// PostNoticeDeps holds dependencies for PostNotice.
type PostNoticeDeps struct {
	Notices noticeStore.Store
	Audit   auditStore.Store
	Now     func() time.Time
}

// ExecutePostNotice validates and persists an admin announcement.
// PRE: The actor holds an admin session
// POST: The notice is stored and an audit row recorded
func ExecutePostNotice(ctx context.Context, input PostNoticeInput, deps PostNoticeDeps) (notice.Notice, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	n := notice.Notice{
		ID:         uuid.New().String(),
		Title:      input.Title,
		Content:    input.Content,
		CreatedBy:  input.ActorEmail,
		AuthorName: input.ActorName,
		ShowAuthor: input.ShowAuthor,
		Color:      input.Color,
		Pinned:     input.Pinned,
		CreatedAt:  now(),
	}
	if n.Pinned {
		n.PinnedAt = n.CreatedAt
	}
	if err := n.Validate(); err != nil {
		return notice.Notice{}, err
	}

	if err := deps.Notices.Save(ctx, n); err != nil {
		return notice.Notice{}, err
	}

	slog.Info("event", "event", "notice_posted", "notice_id", n.ID, "actor", input.ActorEmail)

	if deps.Audit != nil {
		ev := audit.NewEvent(input.ActorEmail, input.ActorRole, audit.CategoryNotice, audit.ActionPost).
			WithResource("notice", n.ID).
			WithDescription(input.Title).
			WithRequest(input.ClientIP, input.UserAgent)
		if err := deps.Audit.Save(ctx, ev); err != nil {
			slog.Error("event", "event", "audit_save_failed", "error", err)
		}
	}

	return n, nil
}
