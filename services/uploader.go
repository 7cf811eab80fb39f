package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Odiedo123/Tenacity/models"
)

// maxUploadWorkers caps concurrent object-store puts within one batch.
const maxUploadWorkers = 10

// IncomingFile is one file of an upload batch. Open is called from a worker
// goroutine so the stream is not held open while the file waits its turn.
type IncomingFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadError is a per-file failure tagged with the filename it belongs to.
type UploadError struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

func (e UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Filename, e.Reason)
}

// BatchResult reports a whole upload batch. Uploaded is in no particular
// order. A non-empty Failed means no metadata was written for any file.
type BatchResult struct {
	Uploaded []string      `json:"files"`
	Failed   []UploadError `json:"failed,omitempty"`
}

// Uploader drives concurrent per-file puts against the object store and
// commits the batch's metadata in a single transaction afterwards.
type Uploader struct {
	store   ObjectStore
	repo    FileRepo
	workers int64
	log     *zap.SugaredLogger
}

// NewUploader creates an Uploader. Workers outside [1, maxUploadWorkers] are clamped.
func NewUploader(store ObjectStore, repo FileRepo, workers int, log *zap.SugaredLogger) *Uploader {
	if workers <= 0 || workers > maxUploadWorkers {
		workers = maxUploadWorkers
	}
	return &Uploader{store: store, repo: repo, workers: int64(workers), log: log}
}

type putResult struct {
	clean    string
	key      string
	objectID string
	err      error
}

// UploadBatch uploads all named files for one owner. Puts run concurrently,
// bounded by the worker limit. The metadata commit is all-or-nothing: if any
// put fails, no rows are written and every failure is reported; objects that
// did get stored are left behind as orphans (the listing only trusts the
// database, so an orphaned object is invisible; an orphaned row would not be).
// A non-nil error means the metadata commit itself failed.
func (u *Uploader) UploadBatch(ctx context.Context, ownerID uint, incoming []IncomingFile) (BatchResult, error) {
	batchID := uuid.NewString()

	// Empty filenames are skipped, not errored.
	files := make([]IncomingFile, 0, len(incoming))
	for _, f := range incoming {
		if f.Name == "" {
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return BatchResult{}, nil
	}

	limit := u.workers
	if int64(len(files)) < limit {
		limit = int64(len(files))
	}
	sem := semaphore.NewWeighted(limit)

	results := make([]putResult, len(files))
	var wg sync.WaitGroup
	for i, f := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = putResult{err: err}
			continue
		}
		wg.Add(1)
		go func(i int, f IncomingFile) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = u.putOne(ctx, ownerID, f)
		}(i, f)
	}
	wg.Wait()

	var result BatchResult
	records := make([]models.File, 0, len(files))
	for i, r := range results {
		if r.err != nil {
			result.Failed = append(result.Failed, UploadError{Filename: files[i].Name, Reason: r.err.Error()})
			continue
		}
		result.Uploaded = append(result.Uploaded, r.clean)
		records = append(records, models.File{
			Filename:   r.clean,
			StorageKey: r.key,
			ObjectID:   r.objectID,
			UserID:     ownerID,
		})
	}

	if len(result.Failed) > 0 {
		u.log.Warnw("upload batch aborted, already stored objects are orphaned",
			"batch", batchID, "user", ownerID, "stored", len(records), "failed", len(result.Failed))
		result.Uploaded = nil
		return result, nil
	}

	if err := u.repo.CreateBatch(ctx, records); err != nil {
		u.log.Errorw("upload batch metadata commit failed, stored objects are orphaned",
			"batch", batchID, "user", ownerID, "stored", len(records), "err", err)
		return BatchResult{}, err
	}

	u.log.Infow("upload batch committed", "batch", batchID, "user", ownerID, "files", len(records))
	return result, nil
}

func (u *Uploader) putOne(ctx context.Context, ownerID uint, f IncomingFile) putResult {
	clean, key, err := ResolveName(ownerID, f.Name)
	if err != nil {
		return putResult{err: err}
	}

	body, err := f.Open()
	if err != nil {
		return putResult{err: fmt.Errorf("open stream: %w", err)}
	}
	defer body.Close()

	info, err := u.store.Put(ctx, key, body, f.ContentType)
	if err != nil {
		return putResult{err: err}
	}
	return putResult{clean: clean, key: key, objectID: info.ObjectID}
}
