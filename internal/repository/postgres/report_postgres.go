package postgres

import (
	"context"
	"database/sql"

	"reportvault/internal/model"
	"reportvault/internal/repository"
)

// ReportPostgres is a PostgreSQL implementation of repository.ReportRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ReportPostgres struct {
	db *sql.DB
}

// NewReportPostgres creates a new ReportPostgres repository.
func NewReportPostgres(db *sql.DB) *ReportPostgres {
	return &ReportPostgres{db: db}
}

var _ repository.ReportRepository = (*ReportPostgres)(nil)

// FindActiveByID fetches a single non-deleted report by its ID.
func (r *ReportPostgres) FindActiveByID(ctx context.Context, id string) (*model.Report, error) {
	const q = `
		SELECT id, user_id, report_type, status, file_path, file_size,
		       original_filename, report_date, created_at, updated_at, deleted_at
		FROM reports
		WHERE id = $1 AND deleted_at IS NULL
	`
	row := r.db.QueryRowContext(ctx, q, id)
	return scanReport(row)
}

// UpdateFile persists the stored file reference after a successful upload.
func (r *ReportPostgres) UpdateFile(ctx context.Context, id string, filePath string, fileSize int64, originalFilename string) (*model.Report, error) {
	const q = `
		UPDATE reports
		SET file_path = $2, file_size = $3, original_filename = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, user_id, report_type, status, file_path, file_size,
		          original_filename, report_date, created_at, updated_at, deleted_at
	`
	row := r.db.QueryRowContext(ctx, q, id, filePath, fileSize, originalFilename)
	return scanReport(row)
}

func scanReport(row *sql.Row) (*model.Report, error) {
	var (
		rep              model.Report
		fileSize         sql.NullInt64
		originalFilename sql.NullString
		reportDate       sql.NullTime
		deletedAt        sql.NullTime
	)
	if err := row.Scan(
		&rep.ID,
		&rep.UserID,
		&rep.ReportType,
		&rep.Status,
		&rep.FilePath,
		&fileSize,
		&originalFilename,
		&reportDate,
		&rep.CreatedAt,
		&rep.UpdatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	rep.FileSize = fileSize.Int64
	rep.OriginalFilename = originalFilename.String
	if reportDate.Valid {
		t := reportDate.Time
		rep.ReportDate = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		rep.DeletedAt = &t
	}
	return &rep, nil
}
