package storage

import (
	"context"
	"errors"
	"io"
)

// Package storage owns every operation that turns a stored logical file
// reference or an uploaded byte stream into a filesystem operation. All
// resolution goes through the containment check in resolver.go; nothing in
// this package trusts caller-supplied paths or metadata.

// Sentinel errors returned by resolution, validation and store operations.
var (
	// ErrInvalidPath covers traversal attempts, URL references and any
	// resolution landing outside the managed roots.
	ErrInvalidPath = errors.New("illegal file path")
	// ErrFileNotFound means the reference resolved fine but no file exists.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileEmpty means the declared upload size was zero or negative.
	ErrFileEmpty = errors.New("file is empty")
	// ErrFileTooLarge means the upload exceeds the configured ceiling.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrInvalidFilename means the name sanitized down to nothing usable.
	ErrInvalidFilename = errors.New("filename contains disallowed characters")
	// ErrUnsupportedType means the sniffed content type is not allow-listed.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrUnsupportedExtension means the stored file's extension is outside
	// the allowed read set for the requested operation.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
)

// ValidatedFile is the outcome of content validation: a replayable stream
// plus the metadata derived from sniffing and sanitization.
type ValidatedFile struct {
	// Content replays the full upload, including the bytes consumed for
	// sniffing. It must be streamed, not buffered.
	Content          io.Reader
	OriginalFilename string
	SanitizedName    string
	Extension        string
	Size             int64
	ContentType      string
}

// ResolvedFile is the per-request output of locating a stored reference.
// It is ephemeral and never persisted.
type ResolvedFile struct {
	AbsolutePath string
	Filename     string
	ContentType  string
	Size         int64
}

// UploadResult is returned to the caller after a successful ingest. The
// caller persists LogicalPath and ByteSize onto the owning record; the
// absolute filesystem path is deliberately not part of the result.
type UploadResult struct {
	LogicalPath       string `json:"file_path"`
	StoredFilename    string `json:"stored_filename"`
	ByteSize          int64  `json:"file_size"`
	ContentType       string `json:"content_type"`
	OriginalFilename  string `json:"original_filename"`
	SanitizedFilename string `json:"sanitized_filename"`
}

// FileStore owns reads and writes against the managed storage roots.
type FileStore interface {
	// Ingest streams a validated upload to disk under
	// user_<ownerID>/<uuid>_<sanitized><ext> and returns the logical
	// relative path for persistence by the caller.
	Ingest(ctx context.Context, ownerID int64, file *ValidatedFile) (*UploadResult, error)

	// Locate resolves a stored reference for serving. The file must exist
	// and carry one of the allowed extensions; the download filename is
	// derived as <typePrefix>_<basename>.
	Locate(ctx context.Context, ref string, typePrefix string, allowedExts ...string) (*ResolvedFile, error)

	// DeleteIfManaged best-effort deletes a superseded file, but only when
	// it resolves under the secure storage root. Failures are logged and
	// never surface to the caller.
	DeleteIfManaged(ctx context.Context, ref string)
}
