package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func incoming(name, body string) IncomingFile {
	return IncomingFile{
		Name:        name,
		Size:        int64(len(body)),
		ContentType: "application/octet-stream",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func newTestUploader(store *fakeStore, repo *fakeRepo) *Uploader {
	return NewUploader(store, repo, 4, zap.NewNop().Sugar())
}

func TestUploadBatchCommitsAllFiles(t *testing.T) {
	store := newFakeStore()
	repo := newFakeRepo()
	up := newTestUploader(store, repo)

	result, err := up.UploadBatch(context.Background(), 7, []IncomingFile{
		incoming("report.pdf", "pdf-bytes"),
		incoming("photo.jpg", "jpg-bytes"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.ElementsMatch(t, []string{"report.pdf", "photo.jpg"}, result.Uploaded)

	rows, err := repo.ListByOwner(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, uint(7), row.UserID)
		assert.Equal(t, StorageKey(7, row.Filename), row.StorageKey)
		assert.NotEmpty(t, row.ObjectID)
	}
}

func TestUploadBatchOneFailureWritesNoMetadata(t *testing.T) {
	store := newFakeStore()
	store.failPut["user_7/bad.txt"] = errors.New("connection reset")
	repo := newFakeRepo()
	up := newTestUploader(store, repo)

	result, err := up.UploadBatch(context.Background(), 7, []IncomingFile{
		incoming("good.txt", "ok"),
		incoming("bad.txt", "boom"),
	})
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "bad.txt", result.Failed[0].Filename)
	assert.Contains(t, result.Failed[0].Reason, "connection reset")
	assert.Empty(t, result.Uploaded)

	// No rows at all, even for the file whose put succeeded.
	rows, err := repo.ListByOwner(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUploadBatchSkipsEmptyNames(t *testing.T) {
	store := newFakeStore()
	repo := newFakeRepo()
	up := newTestUploader(store, repo)

	result, err := up.UploadBatch(context.Background(), 7, []IncomingFile{
		incoming("", "ignored"),
		incoming("kept.txt", "data"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []string{"kept.txt"}, result.Uploaded)
}

func TestUploadBatchAllEmptyNames(t *testing.T) {
	up := newTestUploader(newFakeStore(), newFakeRepo())

	result, err := up.UploadBatch(context.Background(), 7, []IncomingFile{
		incoming("", ""),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Uploaded)
	assert.Empty(t, result.Failed)
}

func TestUploadBatchInvalidNameReported(t *testing.T) {
	up := newTestUploader(newFakeStore(), newFakeRepo())

	result, err := up.UploadBatch(context.Background(), 7, []IncomingFile{
		incoming("...", "dots only"),
	})
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "...", result.Failed[0].Filename)
}

func TestUploadBatchCommitFailure(t *testing.T) {
	store := newFakeStore()
	repo := newFakeRepo()
	repo.failCreate = errors.New("deadlock")
	up := newTestUploader(store, repo)

	result, err := up.UploadBatch(context.Background(), 7, []IncomingFile{
		incoming("doc.txt", "data"),
	})
	require.Error(t, err)
	assert.Empty(t, result.Uploaded)
}

func TestUploadBatchReuploadOverwrites(t *testing.T) {
	store := newFakeStore()
	repo := newFakeRepo()
	up := newTestUploader(store, repo)

	_, err := up.UploadBatch(context.Background(), 7, []IncomingFile{incoming("notes.txt", "v1")})
	require.NoError(t, err)
	_, err = up.UploadBatch(context.Background(), 7, []IncomingFile{incoming("notes.txt", "v2 longer")})
	require.NoError(t, err)

	rows, err := repo.ListByOwner(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "notes.txt", rows[0].Filename)

	info, err := store.Stat(context.Background(), rows[0].StorageKey)
	require.NoError(t, err)
	assert.Equal(t, int64(len("v2 longer")), info.Size)
}
