package service

import (
	"context"
	"fmt"
	"time"

	"reportvault/internal/config"
	"reportvault/internal/model"
	"reportvault/internal/repository"
)

// rateLimitWindow is the trailing span the download rate limit counts over.
const rateLimitWindow = time.Minute

// AccessPolicy decides whether a principal may read a report file and
// whether the read exceeds the rolling-window download limit. It holds no
// mutable state; the audit log is the only data the rate limit reads.
type AccessPolicy struct {
	cfg  config.StorageConfig
	logs repository.AccessLogRepository
}

// NewAccessPolicy constructs an AccessPolicy over the given configuration
// and audit log repository.
func NewAccessPolicy(cfg config.StorageConfig, logs repository.AccessLogRepository) *AccessPolicy {
	return &AccessPolicy{cfg: cfg, logs: logs}
}

// Authorize passes when authentication is not required, or when the
// principal is an admin or the owner of the report.
func (p *AccessPolicy) Authorize(principal *model.Principal, ownerID int64) error {
	if !p.cfg.RequireAuthentication {
		return nil
	}
	if principal == nil {
		return ErrUnauthenticated
	}
	if principal.Admin || principal.ID == ownerID {
		return nil
	}
	return ErrForbidden
}

// CheckRateLimit counts downloads recorded within the trailing window,
// scoped by principal when present and by client address otherwise. With
// neither scope available the check is skipped. The count is a plain read at
// decision time; two near-simultaneous requests may both pass, which is
// accepted slack for an advisory limit.
func (p *AccessPolicy) CheckRateLimit(ctx context.Context, principal *model.Principal, clientAddr string) error {
	limit := p.cfg.DownloadsPerMinute
	if limit <= 0 {
		return nil
	}

	var userID *int64
	switch {
	case principal != nil:
		userID = &principal.ID
	case clientAddr == "":
		return nil
	}

	since := time.Now().Add(-rateLimitWindow)
	count, err := p.logs.CountSince(ctx, model.AccessActionDownload, userID, clientAddr, since)
	if err != nil {
		return fmt.Errorf("count downloads: %w", err)
	}
	if count >= limit {
		return ErrRateLimited
	}
	return nil
}
