package mocks

import (
	"context"
	"io"

	"reportvault/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Upload(ctx context.Context, ownerID int64, r io.Reader, originalFilename string, size int64, existingPath string) (*storage.UploadResult, error) {
	args := m.Called(ctx, ownerID, r, originalFilename, size, existingPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}
