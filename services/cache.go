package services

import (
	"context"
	"sync"
	"time"

	"github.com/Odiedo123/Tenacity/storage"
)

// DefaultMetadataTTL bounds how stale a cached object-store lookup may be.
const DefaultMetadataTTL = 90 * time.Second

type cacheEntry struct {
	info     storage.ObjectInfo
	cachedAt time.Time
}

// MetadataCache is a TTL cache of object-store metadata lookups keyed by
// storage key. It exists so list/sort do not refetch every object's metadata
// on every call. Entries are replaced wholesale, never mutated in place.
// Concurrent lookups for the same cold key may both fetch; the duplicate
// fetch is a performance cost, not a correctness problem.
type MetadataCache struct {
	store ObjectStore
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry

	now func() time.Time
}

// NewMetadataCache creates a cache over the given object store. A ttl of zero
// falls back to DefaultMetadataTTL.
func NewMetadataCache(store ObjectStore, ttl time.Duration) *MetadataCache {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	return &MetadataCache{
		store:   store,
		ttl:     ttl,
		entries: map[string]cacheEntry{},
		now:     time.Now,
	}
}

// GetOrFetch returns cached metadata for key when the entry is younger than
// the TTL, otherwise asks the object store and caches the answer. Fetch
// failures are returned but never cached, so the next call retries instead of
// being stuck for a full TTL window.
func (c *MetadataCache) GetOrFetch(ctx context.Context, key string) (storage.ObjectInfo, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.cachedAt) < c.ttl {
		return entry.info, nil
	}

	info, err := c.store.Stat(ctx, key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{info: info, cachedAt: c.now()}
	c.mu.Unlock()
	return info, nil
}

// Evict drops the entry for key, if any. Called on delete and rename so a
// stale positive entry cannot outlive the object it describes.
func (c *MetadataCache) Evict(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
