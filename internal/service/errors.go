package service

import "errors"

// Expected failures returned as typed results across the gateway boundary.
// Anything not in this set is logged server-side in full and surfaced to the
// caller only as ErrInternal.
var (
	ErrIDRequired      = errors.New("report id is required")
	ErrReportNotFound  = errors.New("report not found")
	ErrFileMissing     = errors.New("report file missing")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access to this report is not allowed")
	ErrRateLimited     = errors.New("too many downloads")
	ErrInternal        = errors.New("operation failed, try again later")
)
