package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"reportvault/internal/model"
	"reportvault/internal/repository"
	"reportvault/internal/storage"
)

// Dispositions for the Content-Disposition response header.
const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// DownloadDescriptor is everything the HTTP layer needs to serve a resolved
// file. The absolute path never leaves the process.
type DownloadDescriptor struct {
	Report       *model.Report
	AbsolutePath string
	Filename     string
	ContentType  string
	Disposition  string
}

// DownloadService is the externally-invoked entry point for file reads.
type DownloadService interface {
	// Download resolves a report's stored file for serving, enforcing
	// authorization, path containment and the download rate limit, and
	// appends an audit log entry on success.
	Download(ctx context.Context, reportID string, principal *model.Principal, clientAddr string, inline bool) (*DownloadDescriptor, error)

	// Preview resolves a report's file for inline PDF preview. Only .pdf
	// files are served this way.
	Preview(ctx context.Context, reportID string) (*DownloadDescriptor, error)
}

// downloadService is a concrete implementation of DownloadService. It is
// state-free orchestration: every step is a hard gate and nothing retries.
type downloadService struct {
	reports repository.ReportRepository
	logs    repository.AccessLogRepository
	store   storage.FileStore
	policy  *AccessPolicy
}

// NewDownloadService constructs a new DownloadService.
func NewDownloadService(reports repository.ReportRepository, logs repository.AccessLogRepository, store storage.FileStore, policy *AccessPolicy) DownloadService {
	return &downloadService{reports: reports, logs: logs, store: store, policy: policy}
}

func (s *downloadService) Download(ctx context.Context, reportID string, principal *model.Principal, clientAddr string, inline bool) (*DownloadDescriptor, error) {
	if reportID == "" {
		return nil, ErrIDRequired
	}

	rep, err := s.reports.FindActiveByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, s.internal("find_report", reportID, err)
	}

	if err := s.policy.Authorize(principal, rep.UserID); err != nil {
		return nil, err
	}

	if rep.FilePath == "" {
		return nil, ErrFileMissing
	}

	// Locate re-validates the stored path independently of whatever was
	// checked at write time and sniffs the content type at serve time.
	located, err := s.store.Locate(ctx, rep.FilePath, rep.ReportType)
	if err != nil {
		if isExpectedStorageErr(err) {
			return nil, err
		}
		return nil, s.internal("locate_file", reportID, err)
	}

	if err := s.policy.CheckRateLimit(ctx, principal, clientAddr); err != nil {
		if errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		return nil, s.internal("rate_limit", reportID, err)
	}

	s.logAccess(ctx, rep, principal, clientAddr)

	disposition := DispositionAttachment
	if inline {
		disposition = DispositionInline
	}

	return &DownloadDescriptor{
		Report:       rep,
		AbsolutePath: located.AbsolutePath,
		Filename:     located.Filename,
		ContentType:  located.ContentType,
		Disposition:  disposition,
	}, nil
}

// Preview serves the PDF-only inline view. It shares the lookup and path
// gates with Download but skips policy and audit, matching the public
// preview surface this replaces.
func (s *downloadService) Preview(ctx context.Context, reportID string) (*DownloadDescriptor, error) {
	if reportID == "" {
		return nil, ErrIDRequired
	}

	rep, err := s.reports.FindActiveByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, s.internal("find_report", reportID, err)
	}

	if rep.FilePath == "" {
		return nil, ErrFileMissing
	}

	located, err := s.store.Locate(ctx, rep.FilePath, rep.ReportType, ".pdf")
	if err != nil {
		if isExpectedStorageErr(err) {
			return nil, err
		}
		return nil, s.internal("locate_file", reportID, err)
	}

	return &DownloadDescriptor{
		Report:       rep,
		AbsolutePath: located.AbsolutePath,
		Filename:     located.Filename,
		ContentType:  located.ContentType,
		Disposition:  DispositionInline,
	}, nil
}

// logAccess appends the audit row. A failed insert is logged as a warning
// and swallowed: losing one audit entry must not fail a legitimate download.
func (s *downloadService) logAccess(ctx context.Context, rep *model.Report, principal *model.Principal, clientAddr string) {
	entry := &model.FileAccessLog{
		ReportID:  &rep.ID,
		FilePath:  rep.FilePath,
		Action:    model.AccessActionDownload,
		IPAddress: clientAddr,
		CreatedAt: time.Now().UTC(),
	}
	if principal != nil {
		id := principal.ID
		entry.UserID = &id
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		logServiceEvent("warn", "access_log_failed", rep.ID, err)
	}
}

// internal logs the full cause server-side and hands the caller the generic
// error: internal paths and driver details never cross the boundary.
func (s *downloadService) internal(event, reportID string, err error) error {
	logServiceEvent("error", event, reportID, err)
	return ErrInternal
}

// isExpectedStorageErr reports whether err is part of the storage package's
// typed failure set, i.e. expected control flow rather than an I/O surprise.
func isExpectedStorageErr(err error) bool {
	return errors.Is(err, storage.ErrInvalidPath) ||
		errors.Is(err, storage.ErrFileNotFound) ||
		errors.Is(err, storage.ErrUnsupportedExtension) ||
		errors.Is(err, storage.ErrUnsupportedType) ||
		errors.Is(err, storage.ErrFileEmpty) ||
		errors.Is(err, storage.ErrFileTooLarge) ||
		errors.Is(err, storage.ErrInvalidFilename)
}

func logServiceEvent(level, event, reportID string, err error) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"component": "service",
		"event":     event,
		"report_id": reportID,
		"error":     err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
