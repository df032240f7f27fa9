package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"reportvault/internal/config"
)

// DefaultReadExtensions is the read allow-list for downloads.
var DefaultReadExtensions = []string{".pdf", ".jpg", ".png"}

// DiskStore implements FileStore against the local filesystem. All paths go
// through the Resolver; nothing here joins caller input onto a root directly.
// It is safe for concurrent use: writes land on unique uuid-token paths and
// reads share no mutable state.
type DiskStore struct {
	resolver *Resolver
	root     string
}

var _ FileStore = (*DiskStore)(nil)

// NewDiskStore creates the storage root if needed and returns a DiskStore
// rooted at it.
func NewDiskStore(cfg config.StorageConfig) (*DiskStore, error) {
	if cfg.RootDir == "" {
		return nil, fmt.Errorf("storage root directory is required")
	}
	if err := os.MkdirAll(cfg.RootDir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", cfg.RootDir, err)
	}
	absRoot, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &DiskStore{resolver: NewResolver(cfg), root: absRoot}, nil
}

// Resolver exposes the store's path resolver for collaborators that need
// read-only resolution with the same containment guarantees.
func (s *DiskStore) Resolver() *Resolver {
	return s.resolver
}

// Ingest writes a validated upload under user_<ownerID>/<uuid>_<name><ext>.
// The content is streamed to a temporary file in the destination directory
// and renamed into place, so an aborted upload never leaves a partial file
// at the final path.
func (s *DiskStore) Ingest(ctx context.Context, ownerID int64, file *ValidatedFile) (*UploadResult, error) {
	if file == nil || file.Content == nil {
		return nil, fmt.Errorf("%w: no content", ErrFileEmpty)
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("invalid owner id %d", ownerID)
	}

	storedName := uuid.NewString() + "_" + file.SanitizedName + file.Extension
	relPath := path.Join(userDir(ownerID), storedName)

	// Containment is checked twice: once on the logical path before any
	// directory is created, and once on the real directory right before the
	// destination opens.
	absPath, err := s.resolver.ResolveSecure(relPath)
	if err != nil {
		return nil, err
	}

	destDir := filepath.Dir(absPath)
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create user directory: %w", err)
	}
	realDir, err := filepath.EvalSymlinks(destDir)
	if err != nil {
		return nil, fmt.Errorf("resolve user directory: %w", err)
	}
	if !within(canonicalize(s.root), realDir) {
		return nil, fmt.Errorf("%w: destination escapes storage root", ErrInvalidPath)
	}

	tmp, err := os.CreateTemp(realDir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	written, copyErr := copyContext(ctx, tmp, file.Content)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("stream upload: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("flush upload: %w", closeErr)
	}
	if err := os.Chmod(tmpName, 0o640); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("set upload permissions: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(realDir, storedName)); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("finalize upload: %w", err)
	}

	return &UploadResult{
		LogicalPath:       relPath,
		StoredFilename:    storedName,
		ByteSize:          written,
		ContentType:       file.ContentType,
		OriginalFilename:  file.OriginalFilename,
		SanitizedFilename: file.SanitizedName,
	}, nil
}

// Locate resolves ref for serving: the file must exist and its extension
// must be in allowedExts (DefaultReadExtensions when none are given).
func (s *DiskStore) Locate(ctx context.Context, ref string, typePrefix string, allowedExts ...string) (*ResolvedFile, error) {
	absPath, err := s.resolver.Resolve(ref)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, ref)
		}
		return nil, fmt.Errorf("stat %q: %w", ref, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: reference is a directory", ErrInvalidPath)
	}

	if len(allowedExts) == 0 {
		allowedExts = DefaultReadExtensions
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if !containsString(allowedExts, ext) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}

	contentType, err := detectFileContentType(absPath)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}

	return &ResolvedFile{
		AbsolutePath: absPath,
		Filename:     downloadFilename(typePrefix, absPath),
		ContentType:  contentType,
		Size:         info.Size(),
	}, nil
}

// DeleteIfManaged removes a superseded file when it resolves under the
// secure storage root. Legacy references and missing files are silent
// no-ops; any other failure is logged as a warning and swallowed, because
// cleanup must never abort the operation it accompanies.
func (s *DiskStore) DeleteIfManaged(ctx context.Context, ref string) {
	if strings.TrimSpace(ref) == "" {
		return
	}
	if IsLegacyRef(ref) {
		return
	}

	absPath, err := s.resolver.ResolveSecure(ref)
	if err != nil {
		s.logWarn("delete_superseded_skipped", ref, err)
		return
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		s.logWarn("delete_superseded_failed", ref, err)
	}
}

// downloadFilename derives the suggested download name as
// <typePrefix>_<basename>, defaulting the prefix to "report".
func downloadFilename(typePrefix, absPath string) string {
	base := filepath.Base(absPath)
	if typePrefix == "" {
		typePrefix = "report"
	}
	return typePrefix + "_" + base
}

// detectFileContentType sniffs the file's leading bytes at serve time rather
// than trusting any stored value.
func detectFileContentType(absPath string) (string, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return sniffContentType(head[:n]), nil
}

// copyContext streams r to w, aborting between chunks once ctx is done.
func copyContext(ctx context.Context, w io.Writer, r io.Reader) (int64, error) {
	return io.Copy(w, readerFunc(func(p []byte) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
			return r.Read(p)
		}
	}))
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

func userDir(ownerID int64) string {
	return fmt.Sprintf("user_%d", ownerID)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (s *DiskStore) logWarn(event, ref string, err error) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "warn",
		"component": "storage",
		"event":     event,
		"file_path": ref,
		"error":     err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
