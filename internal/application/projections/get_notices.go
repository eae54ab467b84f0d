package projections

import (
	"context"
	"time"

	noticeStore "etag/internal/adapters/storage/notice"
	"etag/internal/domain/notice"
)

// GetNoticesDeps holds dependencies for the announcement list.
type GetNoticesDeps struct {
	Notices noticeStore.Store
	Now     func() time.Time
}

// QueryGetNotices returns the announcements currently visible on the coach
// geotag page, pinned first.
func QueryGetNotices(ctx context.Context, deps GetNoticesDeps) ([]notice.Notice, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	return deps.Notices.ListVisible(ctx, now())
}
