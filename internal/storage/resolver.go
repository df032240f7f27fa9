package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"reportvault/internal/config"
)

// LegacyPrefix marks references written by the historical uploader, rooted
// under the public webroot instead of the private storage root.
const LegacyPrefix = "/uploads/reports/"

// Resolver turns a stored logical reference into a canonical absolute path
// guaranteed to lie under one of the two managed roots. It is the only way
// paths are resolved in this codebase; call sites must not join paths
// themselves.
type Resolver struct {
	storageRoot string
	legacyRoot  string
}

// NewResolver builds a Resolver over the configured roots.
func NewResolver(cfg config.StorageConfig) *Resolver {
	return &Resolver{
		storageRoot: cfg.RootDir,
		legacyRoot:  cfg.LegacyRootDir,
	}
}

// IsLegacyRef reports whether ref uses the historical webroot scheme.
func IsLegacyRef(ref string) bool {
	return strings.HasPrefix(ref, LegacyPrefix)
}

// Resolve validates ref and resolves it against the root selected by its
// scheme. It fails with ErrInvalidPath before touching the filesystem when
// the reference contains traversal segments or a URL scheme.
func (r *Resolver) Resolve(ref string) (string, error) {
	root, rel, err := r.split(ref)
	if err != nil {
		return "", err
	}
	return safeJoin(root, rel)
}

// ResolveSecure is Resolve restricted to the secure scheme; legacy
// references are rejected. Used where only managed storage-root files may be
// touched, e.g. best-effort deletion of superseded uploads.
func (r *Resolver) ResolveSecure(ref string) (string, error) {
	if IsLegacyRef(ref) {
		return "", fmt.Errorf("%w: legacy reference not managed", ErrInvalidPath)
	}
	_, rel, err := r.split(ref)
	if err != nil {
		return "", err
	}
	return safeJoin(r.storageRoot, rel)
}

// split validates the raw reference and returns the root directory plus the
// relative remainder to join beneath it.
func (r *Resolver) split(ref string) (root, rel string, err error) {
	value := strings.TrimSpace(ref)

	switch {
	case value == "":
		return "", "", fmt.Errorf("%w: empty reference", ErrInvalidPath)
	case strings.Contains(value, "../") || strings.Contains(value, `..\`):
		return "", "", fmt.Errorf("%w: traversal segment", ErrInvalidPath)
	case strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://"):
		return "", "", fmt.Errorf("%w: remote reference", ErrInvalidPath)
	}

	if IsLegacyRef(value) {
		rel = strings.TrimPrefix(value, LegacyPrefix)
		if rel == "" {
			return "", "", fmt.Errorf("%w: empty legacy remainder", ErrInvalidPath)
		}
		return r.legacyRoot, rel, nil
	}

	// Secure scheme: a plain relative path under the storage root.
	if strings.HasPrefix(value, "/") || strings.Contains(value, "://") {
		return "", "", fmt.Errorf("%w: not a managed relative path", ErrInvalidPath)
	}
	return r.storageRoot, value, nil
}

// safeJoin joins rel under base and enforces containment. The sequence
// (canonicalize base, join, canonicalize candidate if it exists, prefix
// check) is deliberately one function: symlinks are resolved before the
// prefix comparison, and the comparison requires a separator boundary so
// "/data/reportsX" never passes as being under "/data/reports".
func safeJoin(base, rel string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base %q: %w", base, err)
	}
	absBase = canonicalize(absBase)

	candidate := filepath.Join(absBase, filepath.FromSlash(rel))
	if real, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = real
	} else if realDir, dirErr := filepath.EvalSymlinks(filepath.Dir(candidate)); dirErr == nil {
		// Write path: the file does not exist yet, but its directory might,
		// and a symlinked directory must not smuggle the write outside.
		candidate = filepath.Join(realDir, filepath.Base(candidate))
	}

	if !within(absBase, candidate) {
		return "", fmt.Errorf("%w: escapes %q", ErrInvalidPath, base)
	}
	return candidate, nil
}

// canonicalize resolves symlinks when the path exists; otherwise the
// lexically cleaned path is kept (write path, file not yet created).
func canonicalize(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return path
}

// within reports whether path equals base or lies strictly beneath it.
func within(base, path string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(filepath.Separator))
}
