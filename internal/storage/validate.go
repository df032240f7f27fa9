package storage

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
)

// sniffLen is how many leading bytes content-type detection considers,
// matching http.DetectContentType's maximum.
const sniffLen = 512

// allowedMIMETypes maps each accepted sniffed type to its canonical stored
// extension. The extension always comes from this table, never from the
// client, so content and extension cannot disagree.
var allowedMIMETypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// Allowed filename characters (without extension): word characters, hyphen
// and CJK ideographs. Everything else is replaced by an underscore.
var (
	disallowedFilenameChars = regexp.MustCompile(`[^\w\-\x{4e00}-\x{9fa5}]`)
	repeatedUnderscores     = regexp.MustCompile(`_+`)
	filenameWhitelist       = regexp.MustCompile(`^[\w\-\x{4e00}-\x{9fa5}]+$`)
)

// Validator checks uploaded content before anything touches disk: declared
// size against the ceiling, filename against the whitelist, and the sniffed
// content type against the allow-list. The declared content-type header is
// intentionally ignored.
type Validator struct {
	maxSize int64
}

// NewValidator builds a Validator with the given size ceiling in bytes.
func NewValidator(maxSize int64) *Validator {
	return &Validator{maxSize: maxSize}
}

// Validate runs the checks in order, short-circuiting on the first failure.
// On success the returned ValidatedFile carries a reader that replays the
// sniffed bytes followed by the rest of the stream.
func (v *Validator) Validate(r io.Reader, originalFilename string, size int64) (*ValidatedFile, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no content", ErrFileEmpty)
	}
	if size <= 0 {
		return nil, ErrFileEmpty
	}
	if size > v.maxSize {
		return nil, fmt.Errorf("%w: %d bytes over %d limit", ErrFileTooLarge, size, v.maxSize)
	}

	base := strings.TrimSuffix(filepath.Base(originalFilename), filepath.Ext(originalFilename))
	sanitized := SanitizeBaseName(base)
	if sanitized == "" || !filenameWhitelist.MatchString(sanitized) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, base)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload head: %w", err)
	}
	head = head[:n]

	contentType := sniffContentType(head)
	ext, ok := allowedMIMETypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	return &ValidatedFile{
		Content:          io.MultiReader(bytes.NewReader(head), r),
		OriginalFilename: originalFilename,
		SanitizedName:    sanitized,
		Extension:        ext,
		Size:             size,
		ContentType:      contentType,
	}, nil
}

// SanitizeBaseName replaces disallowed characters with underscores, collapses
// runs of underscores and trims them from both ends. An empty result means
// the name was unusable.
func SanitizeBaseName(name string) string {
	s := disallowedFilenameChars.ReplaceAllString(name, "_")
	s = repeatedUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// sniffContentType detects the true media type from leading bytes, dropping
// any charset parameters DetectContentType appends.
func sniffContentType(head []byte) string {
	ct := http.DetectContentType(head)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}
