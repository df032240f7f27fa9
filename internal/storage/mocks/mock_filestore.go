package mocks

import (
	"context"

	"reportvault/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Ingest(ctx context.Context, ownerID int64, file *storage.ValidatedFile) (*storage.UploadResult, error) {
	args := m.Called(ctx, ownerID, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

func (m *MockFileStore) Locate(ctx context.Context, ref string, typePrefix string, allowedExts ...string) (*storage.ResolvedFile, error) {
	callArgs := []any{ctx, ref, typePrefix}
	for _, ext := range allowedExts {
		callArgs = append(callArgs, ext)
	}
	args := m.Called(callArgs...)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.ResolvedFile), args.Error(1)
}

func (m *MockFileStore) DeleteIfManaged(ctx context.Context, ref string) {
	m.Called(ctx, ref)
}
