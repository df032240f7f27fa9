package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"reportvault/internal/storage"
	storeMocks "reportvault/internal/storage/mocks"
)

var pdfHeader = []byte("%PDF-1.4\n")

func TestUploadService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name             string
		originalFilename string
		content          []byte
		size             int64
		existingPath     string
		setupMocks       func(mStore *storeMocks.MockFileStore)
		wantErr          error
	}{
		{
			name:             "happy path",
			originalFilename: "健康报告.pdf",
			content:          pdfHeader,
			size:             int64(len(pdfHeader)),
			setupMocks: func(mStore *storeMocks.MockFileStore) {
				mStore.On("Ingest", ctx, int64(42), mock.MatchedBy(func(f *storage.ValidatedFile) bool {
					return f.SanitizedName == "健康报告" && f.Extension == ".pdf" &&
						f.ContentType == "application/pdf"
				})).Return(&storage.UploadResult{
					LogicalPath: "user_42/uuid_健康报告.pdf",
					ByteSize:    int64(len(pdfHeader)),
					ContentType: "application/pdf",
				}, nil)
			},
		},
		{
			name:             "update retires the superseded file",
			originalFilename: "report.pdf",
			content:          pdfHeader,
			size:             int64(len(pdfHeader)),
			existingPath:     "user_42/old.pdf",
			setupMocks: func(mStore *storeMocks.MockFileStore) {
				mStore.On("Ingest", ctx, int64(42), mock.Anything).
					Return(&storage.UploadResult{LogicalPath: "user_42/new.pdf"}, nil)
				mStore.On("DeleteIfManaged", ctx, "user_42/old.pdf").Return()
			},
		},
		{
			name:             "validation failure stops before ingest",
			originalFilename: "notes.txt",
			content:          []byte("plain text, not an allowed type"),
			size:             31,
			setupMocks:       func(mStore *storeMocks.MockFileStore) {},
			wantErr:          storage.ErrUnsupportedType,
		},
		{
			name:             "empty upload",
			originalFilename: "report.pdf",
			content:          pdfHeader,
			size:             0,
			setupMocks:       func(mStore *storeMocks.MockFileStore) {},
			wantErr:          storage.ErrFileEmpty,
		},
		{
			name:             "unexpected ingest error is masked",
			originalFilename: "report.pdf",
			content:          pdfHeader,
			size:             int64(len(pdfHeader)),
			setupMocks: func(mStore *storeMocks.MockFileStore) {
				mStore.On("Ingest", ctx, int64(42), mock.Anything).
					Return(nil, errors.New("disk full"))
			},
			wantErr: ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockFileStore)
			tt.setupMocks(mStore)

			svc := NewUploadService(storage.NewValidator(1<<20), mStore)

			res, err := svc.Upload(ctx, 42, bytes.NewReader(tt.content), tt.originalFilename, tt.size, tt.existingPath)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, res)
			}
			mStore.AssertExpectations(t)
		})
	}
}

func TestUploadService_Upload_DoesNotDeleteFreshPath(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockFileStore)
	mStore.On("Ingest", ctx, int64(1), mock.Anything).
		Return(&storage.UploadResult{LogicalPath: "user_1/same.pdf"}, nil)

	svc := NewUploadService(storage.NewValidator(1<<20), mStore)

	_, err := svc.Upload(ctx, 1, bytes.NewReader(pdfHeader), "same.pdf", int64(len(pdfHeader)), "user_1/same.pdf")

	assert.NoError(t, err)
	// No DeleteIfManaged expectation was registered; AssertExpectations
	// fails if the service tried to delete the path it just wrote.
	mStore.AssertExpectations(t)
}
