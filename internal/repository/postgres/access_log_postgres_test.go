package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"reportvault/internal/model"
)

func TestAccessLogPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAccessLogPostgres(db)
	ctx := context.Background()

	userID := int64(42)
	reportID := "rep-1"
	entry := &model.FileAccessLog{
		UserID:    &userID,
		ReportID:  &reportID,
		FilePath:  "user_42/abc_report.pdf",
		Action:    model.AccessActionDownload,
		IPAddress: "203.0.113.7",
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO file_access_logs").
		WithArgs(entry.UserID, entry.ReportID, entry.FilePath, entry.Action,
			sqlmock.AnyArg(), entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Create(ctx, entry)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessLogPostgres_Create_AnonymousEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAccessLogPostgres(db)

	entry := &model.FileAccessLog{
		FilePath:  "user_1/x.pdf",
		Action:    model.AccessActionDownload,
		IPAddress: "198.51.100.9",
	}

	mock.ExpectExec("INSERT INTO file_access_logs").
		WithArgs(nil, nil, entry.FilePath, entry.Action, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Create(context.Background(), entry)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessLogPostgres_CountSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAccessLogPostgres(db)
	ctx := context.Background()
	since := time.Now().Add(-time.Minute)

	t.Run("scoped by user", func(t *testing.T) {
		userID := int64(42)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM file_access_logs WHERE action = \\$1 AND user_id = \\$2").
			WithArgs(model.AccessActionDownload, userID, since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.CountSince(ctx, model.AccessActionDownload, &userID, "", since)

		assert.NoError(t, err)
		assert.Equal(t, 7, count)
	})

	t.Run("scoped by address", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM file_access_logs WHERE action = \\$1 AND ip_address = \\$2").
			WithArgs(model.AccessActionDownload, "203.0.113.7", since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		count, err := repo.CountSince(ctx, model.AccessActionDownload, nil, "203.0.113.7", since)

		assert.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}
