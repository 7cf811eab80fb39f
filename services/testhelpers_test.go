package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Odiedo123/Tenacity/models"
	"github.com/Odiedo123/Tenacity/storage"
)

// fakeStore is an in-memory ObjectStore with injectable per-key failures.
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]storage.ObjectInfo
	failPut   map[string]error
	failStat  map[string]error
	statCalls map[string]int
	deleted   []string
	copied    [][2]string
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:   map[string]storage.ObjectInfo{},
		failPut:   map[string]error{},
		failStat:  map[string]error{},
		statCalls: map[string]int{},
	}
}

func (s *fakeStore) seed(key string, size int64, modified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.objects[key] = storage.ObjectInfo{
		Key:          key,
		Size:         size,
		LastModified: modified,
		ObjectID:     fmt.Sprintf("v%d", s.nextID),
	}
}

func (s *fakeStore) Put(ctx context.Context, key string, reader io.Reader, contentType string) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.ObjectInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failPut[key]; err != nil {
		return storage.ObjectInfo{}, err
	}
	s.nextID++
	info := storage.ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		LastModified: time.Now(),
		ObjectID:     fmt.Sprintf("v%d", s.nextID),
	}
	s.objects[key] = info
	return info, nil
}

func (s *fakeStore) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statCalls[key]++
	if err := s.failStat[key]; err != nil {
		return storage.ObjectInfo{}, err
	}
	info, ok := s.objects[key]
	if !ok {
		return storage.ObjectInfo{}, fmt.Errorf("fake store: no object at %s", key)
	}
	return info, nil
}

func (s *fakeStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.objects[srcKey]
	if !ok {
		return fmt.Errorf("fake store: no object at %s", srcKey)
	}
	s.nextID++
	dst := src
	dst.Key = dstKey
	dst.ObjectID = fmt.Sprintf("v%d", s.nextID)
	s.objects[dstKey] = dst
	s.copied = append(s.copied, [2]string{srcKey, dstKey})
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key, objectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://signed.example.test/" + key, nil
}

// fakeRepo is an in-memory FileRepo keyed by (owner, filename).
type fakeRepo struct {
	mu         sync.Mutex
	rows       map[string]models.File
	nextID     uint
	failCreate error
	failRename error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string]models.File{}}
}

func rowKey(ownerID uint, filename string) string {
	return fmt.Sprintf("%d/%s", ownerID, filename)
}

func (r *fakeRepo) ListByOwner(ctx context.Context, ownerID uint) ([]models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var files []models.File
	for _, f := range r.rows {
		if f.UserID == ownerID {
			files = append(files, f)
		}
	}
	return files, nil
}

func (r *fakeRepo) FindByOwnerAndName(ctx context.Context, ownerID uint, filename string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[rowKey(ownerID, filename)]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (r *fakeRepo) CreateBatch(ctx context.Context, files []models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	for _, f := range files {
		key := rowKey(f.UserID, f.Filename)
		if existing, ok := r.rows[key]; ok {
			existing.StorageKey = f.StorageKey
			existing.ObjectID = f.ObjectID
			r.rows[key] = existing
			continue
		}
		r.nextID++
		f.ID = r.nextID
		r.rows[key] = f
	}
	return nil
}

func (r *fakeRepo) Rename(ctx context.Context, ownerID uint, oldName, newName, newKey, newObjectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failRename != nil {
		return r.failRename
	}
	if _, taken := r.rows[rowKey(ownerID, newName)]; taken {
		return ErrConflict
	}
	f, ok := r.rows[rowKey(ownerID, oldName)]
	if !ok {
		return ErrConflict
	}
	delete(r.rows, rowKey(ownerID, oldName))
	f.Filename = newName
	f.StorageKey = newKey
	f.ObjectID = newObjectID
	r.rows[rowKey(ownerID, newName)] = f
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, f := range r.rows {
		if f.ID == id {
			delete(r.rows, key)
		}
	}
	return nil
}
