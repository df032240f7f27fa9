package mocks

import (
	"context"

	"reportvault/internal/model"
	"reportvault/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDownloadService struct {
	mock.Mock
}

func (m *MockDownloadService) Download(ctx context.Context, reportID string, principal *model.Principal, clientAddr string, inline bool) (*service.DownloadDescriptor, error) {
	args := m.Called(ctx, reportID, principal, clientAddr, inline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadDescriptor), args.Error(1)
}

func (m *MockDownloadService) Preview(ctx context.Context, reportID string) (*service.DownloadDescriptor, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadDescriptor), args.Error(1)
}
