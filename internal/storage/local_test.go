package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportvault/internal/config"
)

func newTestStore(t *testing.T) (*DiskStore, config.StorageConfig) {
	t.Helper()
	cfg := config.StorageConfig{
		RootDir:        t.TempDir(),
		LegacyRootDir:  t.TempDir(),
		Mode:           config.StorageModeSecure,
		MaxUploadBytes: 1 << 20,
	}
	store, err := NewDiskStore(cfg)
	require.NoError(t, err)
	return store, cfg
}

func validatedPDF(t *testing.T, name string, payload []byte) *ValidatedFile {
	t.Helper()
	v := NewValidator(1 << 20)
	file, err := v.Validate(bytes.NewReader(payload), name, int64(len(payload)))
	require.NoError(t, err)
	return file
}

func TestDiskStore_Ingest(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	payload := append([]byte{}, pdfHeader...)
	payload = append(payload, []byte("body bytes")...)

	res, err := store.Ingest(ctx, 42, validatedPDF(t, "健康报告.pdf", payload))
	require.NoError(t, err)

	assert.Equal(t, int64(len(payload)), res.ByteSize)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.Equal(t, "健康报告.pdf", res.OriginalFilename)
	assert.Equal(t, "健康报告", res.SanitizedFilename)

	// Logical path shape: user_<id>/<uuid>_<sanitized>.pdf, forward slashes,
	// never absolute.
	assert.True(t, strings.HasPrefix(res.LogicalPath, "user_42/"), res.LogicalPath)
	assert.Regexp(t, regexp.MustCompile(`^user_42/[0-9a-f-]{36}_健康报告\.pdf$`), res.LogicalPath)

	// Round trip: the logical path resolves and serves the same bytes.
	located, err := store.Locate(ctx, res.LogicalPath, "blood_test")
	require.NoError(t, err)
	assert.Equal(t, res.ByteSize, located.Size)
	assert.Equal(t, "application/pdf", located.ContentType)
	assert.True(t, strings.HasPrefix(located.Filename, "blood_test_"))

	onDisk, err := os.ReadFile(located.AbsolutePath)
	require.NoError(t, err)
	assert.Equal(t, payload, onDisk)

	// No temp leftovers next to the stored file.
	entries, err := os.ReadDir(filepath.Dir(located.AbsolutePath))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".upload-"), "leftover temp file %s", e.Name())
	}
}

func TestDiskStore_Ingest_UniquePaths(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.Ingest(ctx, 1, validatedPDF(t, "report.pdf", pdfHeader))
	require.NoError(t, err)
	second, err := store.Ingest(ctx, 1, validatedPDF(t, "report.pdf", pdfHeader))
	require.NoError(t, err)

	assert.NotEqual(t, first.LogicalPath, second.LogicalPath)
}

func TestDiskStore_Ingest_InvalidOwner(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Ingest(context.Background(), 0, validatedPDF(t, "report.pdf", pdfHeader))
	assert.Error(t, err)
}

func TestDiskStore_Ingest_CanceledContext(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Ingest(ctx, 5, validatedPDF(t, "report.pdf", pdfHeader))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiskStore_Locate(t *testing.T) {
	store, cfg := newTestStore(t)
	ctx := context.Background()

	res, err := store.Ingest(ctx, 3, validatedPDF(t, "scan.pdf", pdfHeader))
	require.NoError(t, err)

	t.Run("missing file", func(t *testing.T) {
		_, err := store.Locate(ctx, "user_3/does_not_exist.pdf", "gene_test")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("path outside managed roots", func(t *testing.T) {
		_, err := store.Locate(ctx, "/other/path/invalid.pdf", "gene_test")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("traversal never reaches disk", func(t *testing.T) {
		_, err := store.Locate(ctx, "user_3/../../../etc/passwd", "gene_test")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("extension outside allowed read set", func(t *testing.T) {
		abs, err := store.resolver.Resolve(res.LogicalPath)
		require.NoError(t, err)
		exe := strings.TrimSuffix(abs, ".pdf") + ".exe"
		require.NoError(t, os.Rename(abs, exe))
		defer os.Rename(exe, abs)

		rel := strings.TrimSuffix(res.LogicalPath, ".pdf") + ".exe"
		_, locErr := store.Locate(ctx, rel, "gene_test")
		assert.ErrorIs(t, locErr, ErrUnsupportedExtension)
	})

	t.Run("pdf-only read set rejects images", func(t *testing.T) {
		img, err := store.Ingest(ctx, 3, func() *ValidatedFile {
			v := NewValidator(1 << 20)
			f, vErr := v.Validate(bytes.NewReader(pngHeader), "scan.png", int64(len(pngHeader)))
			require.NoError(t, vErr)
			return f
		}())
		require.NoError(t, err)

		_, locErr := store.Locate(ctx, img.LogicalPath, "gene_test", ".pdf")
		assert.ErrorIs(t, locErr, ErrUnsupportedExtension)
	})

	t.Run("legacy reference", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.LegacyRootDir, "old.pdf"), pdfHeader, 0o640))

		located, err := store.Locate(ctx, "/uploads/reports/old.pdf", "")
		require.NoError(t, err)
		assert.Equal(t, "report_old.pdf", located.Filename)
		assert.Equal(t, "application/pdf", located.ContentType)
	})
}

func TestDiskStore_DeleteIfManaged(t *testing.T) {
	store, cfg := newTestStore(t)
	ctx := context.Background()

	res, err := store.Ingest(ctx, 8, validatedPDF(t, "old_version.pdf", pdfHeader))
	require.NoError(t, err)
	abs, err := store.resolver.Resolve(res.LogicalPath)
	require.NoError(t, err)

	store.DeleteIfManaged(ctx, res.LogicalPath)
	_, statErr := os.Stat(abs)
	assert.True(t, os.IsNotExist(statErr))

	// Nonexistent file: silent no-op.
	store.DeleteIfManaged(ctx, "user_8/never_existed.pdf")

	// Blank and legacy references: no-ops, nothing deleted outside the root.
	store.DeleteIfManaged(ctx, "")
	legacy := filepath.Join(cfg.LegacyRootDir, "keep.pdf")
	require.NoError(t, os.WriteFile(legacy, pdfHeader, 0o640))
	store.DeleteIfManaged(ctx, "/uploads/reports/keep.pdf")
	_, statErr = os.Stat(legacy)
	assert.NoError(t, statErr)

	// Traversal attempts are swallowed, not raised.
	outside := filepath.Join(filepath.Dir(cfg.RootDir), "outside.pdf")
	require.NoError(t, os.WriteFile(outside, pdfHeader, 0o640))
	store.DeleteIfManaged(ctx, "../outside.pdf")
	_, statErr = os.Stat(outside)
	assert.NoError(t, statErr)
}
