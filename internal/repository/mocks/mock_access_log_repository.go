package mocks

import (
	"context"
	"time"

	"reportvault/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAccessLogRepository struct {
	mock.Mock
}

func (m *MockAccessLogRepository) Create(ctx context.Context, entry *model.FileAccessLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAccessLogRepository) CountSince(ctx context.Context, action string, userID *int64, ipAddress string, since time.Time) (int, error) {
	args := m.Called(ctx, action, userID, ipAddress, since)
	return args.Int(0), args.Error(1)
}
