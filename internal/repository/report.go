package repository

import (
	"context"

	"reportvault/internal/model"
)

// ReportRepository defines data access for report records using SQL queries
// only. No business logic here, strictly persistence operations.
type ReportRepository interface {
	// FindActiveByID returns a non-deleted report by its ID.
	// Soft-deleted rows are treated as absent.
	FindActiveByID(ctx context.Context, id string) (*model.Report, error)

	// UpdateFile persists a new stored file reference onto a report after a
	// successful upload and returns the updated record.
	UpdateFile(ctx context.Context, id string, filePath string, fileSize int64, originalFilename string) (*model.Report, error)
}
