package postgres

import (
	"context"
	"database/sql"
	"time"

	"reportvault/internal/model"
	"reportvault/internal/repository"
)

// AccessLogPostgres is a PostgreSQL implementation of
// repository.AccessLogRepository. Rows are insert-only.
type AccessLogPostgres struct {
	db *sql.DB
}

// NewAccessLogPostgres creates a new AccessLogPostgres repository.
func NewAccessLogPostgres(db *sql.DB) *AccessLogPostgres {
	return &AccessLogPostgres{db: db}
}

var _ repository.AccessLogRepository = (*AccessLogPostgres)(nil)

// Create inserts a new access log row.
func (r *AccessLogPostgres) Create(ctx context.Context, entry *model.FileAccessLog) error {
	const q = `
		INSERT INTO file_access_logs (user_id, report_id, file_path, action, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		entry.UserID,
		entry.ReportID,
		entry.FilePath,
		entry.Action,
		nullString(entry.IPAddress),
		createdAt,
	)
	return err
}

// CountSince counts rows within the trailing window, scoped by user when a
// user ID is present and by client address otherwise. Both shapes are
// covered by the (action, scope, created_at) indexes.
func (r *AccessLogPostgres) CountSince(ctx context.Context, action string, userID *int64, ipAddress string, since time.Time) (int, error) {
	var (
		count int
		err   error
	)
	if userID != nil {
		const q = `
			SELECT COUNT(*) FROM file_access_logs
			WHERE action = $1 AND user_id = $2 AND created_at >= $3
		`
		err = r.db.QueryRowContext(ctx, q, action, *userID, since).Scan(&count)
	} else {
		const q = `
			SELECT COUNT(*) FROM file_access_logs
			WHERE action = $1 AND ip_address = $2 AND created_at >= $3
		`
		err = r.db.QueryRowContext(ctx, q, action, ipAddress, since).Scan(&count)
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
