package printing

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*FileSystemStorage, string) {
	t.Helper()
	dir := t.TempDir()
	storage, err := NewFileSystemStorage(&FileSystemStorageConfig{BasePath: dir})
	require.NoError(t, err)
	return storage, dir
}

func TestNewFileSystemStorage(t *testing.T) {
	t.Run("defaults base URL", func(t *testing.T) {
		storage, dir := newTestStorage(t)
		assert.Equal(t, dir, storage.config.BasePath)
		assert.Equal(t, "/files/danfe", storage.config.BaseURL)
	})

	t.Run("creates base directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "pdf")
		_, err := NewFileSystemStorage(&FileSystemStorageConfig{BasePath: dir, BaseURL: "/x"})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestFileSystemStorage_Store(t *testing.T) {
	storage, dir := newTestStorage(t)
	ctx := context.Background()

	t.Run("successful store", func(t *testing.T) {
		jobID := uuid.New()
		pdf := []byte("%PDF-1.4 danfe")

		result, err := storage.Store(ctx, &StoreRequest{JobID: jobID, DocumentNumber: "123", PDFData: pdf})
		require.NoError(t, err)

		assert.Equal(t, int64(len(pdf)), result.Size)
		assert.True(t, strings.HasSuffix(result.Path, "danfe-123-"+jobID.String()+".pdf"))
		assert.True(t, filepath.IsAbs(result.AbsPath))
		assert.True(t, strings.HasPrefix(result.URL, "/files/danfe/"))

		content, err := os.ReadFile(filepath.Join(dir, result.Path))
		require.NoError(t, err)
		assert.Equal(t, pdf, content)
	})

	t.Run("unsafe document number is dropped from file name", func(t *testing.T) {
		jobID := uuid.New()
		result, err := storage.Store(ctx, &StoreRequest{JobID: jobID, DocumentNumber: "../..", PDFData: []byte("%PDF")})
		require.NoError(t, err)
		assert.Equal(t, "danfe-"+jobID.String()+".pdf", filepath.Base(result.Path))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := storage.Store(ctx, nil)
		assert.Error(t, err)
		_, err = storage.Store(ctx, &StoreRequest{PDFData: []byte("%PDF")})
		assert.Error(t, err)
		_, err = storage.Store(ctx, &StoreRequest{JobID: uuid.New()})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := storage.Store(cancelled, &StoreRequest{JobID: uuid.New(), PDFData: []byte("%PDF")})
		assert.Error(t, err)
	})
}

func TestFileSystemStorage_GetAndDelete(t *testing.T) {
	storage, _ := newTestStorage(t)
	ctx := context.Background()

	result, err := storage.Store(ctx, &StoreRequest{JobID: uuid.New(), PDFData: []byte("%PDF-1.4")})
	require.NoError(t, err)

	rc, err := storage.Get(ctx, result.Path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, storage.Delete(ctx, result.Path))
	_, err = storage.Get(ctx, result.Path)
	assert.Error(t, err)

	// deleting twice is fine
	assert.NoError(t, storage.Delete(ctx, result.Path))
}

func TestFileSystemStorage_RejectsTraversal(t *testing.T) {
	storage, _ := newTestStorage(t)
	ctx := context.Background()

	for _, path := range []string{"../etc/passwd", "/etc/passwd", "2024/../../secret.pdf", "."} {
		_, err := storage.Get(ctx, path)
		assert.Error(t, err, path)
		assert.Error(t, storage.Delete(ctx, path), path)
	}
}

func TestFileSystemStorage_CleanupOlderThan(t *testing.T) {
	storage, dir := newTestStorage(t)
	ctx := context.Background()

	old, err := storage.Store(ctx, &StoreRequest{JobID: uuid.New(), PDFData: []byte("%PDF")})
	require.NoError(t, err)
	fresh, err := storage.Store(ctx, &StoreRequest{JobID: uuid.New(), PDFData: []byte("%PDF")})
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, old.Path), past, past))

	deleted, err := storage.CleanupOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = os.Stat(filepath.Join(dir, old.Path))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, fresh.Path))
	assert.NoError(t, err)
}

func TestFileSystemStorage_GetURL(t *testing.T) {
	storage, _ := newTestStorage(t)
	assert.Equal(t, "/files/danfe/2024/01/a.pdf", storage.GetURL("2024/01/a.pdf"))
}
