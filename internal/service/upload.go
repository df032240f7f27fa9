package service

import (
	"context"
	"io"

	"reportvault/internal/storage"
)

// UploadService is the entry point for file writes: validate the content,
// ingest it under the caller's user directory, then retire any superseded
// file. The returned UploadResult is the caller's to persist.
type UploadService interface {
	Upload(ctx context.Context, ownerID int64, r io.Reader, originalFilename string, size int64, existingPath string) (*storage.UploadResult, error)
}

type uploadService struct {
	validator *storage.Validator
	store     storage.FileStore
}

// NewUploadService constructs a new UploadService.
func NewUploadService(validator *storage.Validator, store storage.FileStore) UploadService {
	return &uploadService{validator: validator, store: store}
}

func (s *uploadService) Upload(ctx context.Context, ownerID int64, r io.Reader, originalFilename string, size int64, existingPath string) (*storage.UploadResult, error) {
	validated, err := s.validator.Validate(r, originalFilename, size)
	if err != nil {
		return nil, err
	}

	res, err := s.store.Ingest(ctx, ownerID, validated)
	if err != nil {
		if isExpectedStorageErr(err) {
			return nil, err
		}
		logServiceEvent("error", "ingest_file", originalFilename, err)
		return nil, ErrInternal
	}

	// Update scenario: retire the replaced file. Best effort only; the new
	// upload already succeeded and must not be failed by cleanup.
	if existingPath != "" && existingPath != res.LogicalPath {
		s.store.DeleteIfManaged(ctx, existingPath)
	}

	return res, nil
}
