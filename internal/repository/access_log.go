package repository

import (
	"context"
	"time"

	"reportvault/internal/model"
)

// AccessLogRepository defines persistence for the append-only file access
// audit trail. Entries are never updated or deleted.
type AccessLogRepository interface {
	// Create inserts a new access log row.
	Create(ctx context.Context, entry *model.FileAccessLog) error

	// CountSince counts rows for the given action created at or after the
	// window start, scoped by user ID when non-nil, otherwise by client
	// address. This backs the rolling-window download rate limit.
	CountSince(ctx context.Context, action string, userID *int64, ipAddress string, since time.Time) (int, error)
}
