package services

import (
	"context"
	"io"
	"time"

	"github.com/Odiedo123/Tenacity/storage"
)

// ObjectStore is the object-storage capability the file services need.
// Implemented by *storage.Bucket; tests substitute fakes.
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) (storage.ObjectInfo, error)
	Stat(ctx context.Context, key string) (storage.ObjectInfo, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key, objectID string) error
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// compile-time check
var _ ObjectStore = (*storage.Bucket)(nil)
