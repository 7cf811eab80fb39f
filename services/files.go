package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	downloadURLExpiry  = 15 * time.Minute
	lastModifiedLayout = "2006-01-02 15:04:05"
)

// FileEntry is one row of a listing, enriched with object-store metadata.
type FileEntry struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	LastModified string `json:"last_modified"`

	modifiedAt time.Time
}

// StorageReport summarizes one user's quota usage. Category fields hold the
// accumulated size in megabytes; Files is a plain count.
type StorageReport struct {
	TotalStorage float64 `json:"totalStorage"`
	UsedStorage  float64 `json:"usedStorage"`
	Files        int     `json:"files"`
	Documents    float64 `json:"documents"`
	Images       float64 `json:"images"`
	Others       float64 `json:"others"`
}

// FileService is the CRUD surface over a user's file set. It owns the
// FileRecord lifecycle: no other component writes the files table. Every
// operation keeps the metadata row and the stored object paired; the ordering
// of the two-store writes below decides which side is favored when they
// cannot both be updated.
type FileService struct {
	repo    FileRepo
	store   ObjectStore
	cache   *MetadataCache
	quotaMB float64
	log     *zap.SugaredLogger
}

// NewFileService wires the file index over its collaborators.
func NewFileService(repo FileRepo, store ObjectStore, cache *MetadataCache, quotaMB int, log *zap.SugaredLogger) *FileService {
	if quotaMB <= 0 {
		quotaMB = 5000
	}
	return &FileService{repo: repo, store: store, cache: cache, quotaMB: float64(quotaMB), log: log}
}

// List returns the user's files enriched with size/type/timestamp from the
// object store. Records whose object lookup fails are excluded rather than
// failing the whole listing: one broken pairing should not hide every file,
// and a dangling row left by a half-finished delete heals out of view here.
func (s *FileService) List(ctx context.Context, ownerID uint) ([]FileEntry, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	entries := make([]FileEntry, 0, len(rows))
	for _, row := range rows {
		info, err := s.cache.GetOrFetch(ctx, row.StorageKey)
		if err != nil {
			s.log.Debugw("skipping unreadable file in listing",
				"user", ownerID, "file", row.Filename, "key", row.StorageKey, "err", err)
			continue
		}
		entries = append(entries, FileEntry{
			Name:         row.Filename,
			Size:         info.Size,
			Type:         fileType(row.Filename),
			LastModified: info.LastModified.Format(lastModifiedLayout),
			modifiedAt:   info.LastModified,
		})
	}
	return entries, nil
}

// Sort lists the user's files ordered by "size", "date" or "name" (default),
// ascending unless order is "desc". Name ordering is case-insensitive.
func (s *FileService) Sort(ctx context.Context, ownerID uint, by, order string) ([]FileEntry, error) {
	entries, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	desc := order == "desc"
	switch by {
	case "size":
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Size < entries[j].Size })
	case "date":
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].modifiedAt.Before(entries[j].modifiedAt) })
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
	}
	if desc {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	return entries, nil
}

// Rename moves a file to a new name: copy the object to the new key, swap the
// metadata row, then delete the old object last. With this ordering every
// failure point leaves the metadata row addressing an object that exists;
// the worst outcome is a leftover old object, never a dangling row. The
// metadata update is a compare-and-swap on the old name, so of two concurrent
// renames of the same file the loser gets ErrConflict instead of silently
// clobbering the winner.
func (s *FileService) Rename(ctx context.Context, ownerID uint, oldRaw, newRaw string) error {
	if strings.TrimSpace(newRaw) == "" {
		return ErrNoInput
	}

	oldName, _, err := ResolveName(ownerID, oldRaw)
	if err != nil {
		return ErrNotFound
	}
	newName, newKey, err := ResolveName(ownerID, newRaw)
	if err != nil {
		return err
	}

	row, err := s.repo.FindByOwnerAndName(ctx, ownerID, oldName)
	if err != nil {
		return err
	}
	if newName == row.Filename {
		return nil
	}

	// The new name must be free before the object store is touched. Copying
	// first would overwrite the existing file's object at its storage key and
	// leave that file's row addressing foreign bytes once the unique index
	// rejects the row swap.
	if _, err := s.repo.FindByOwnerAndName(ctx, ownerID, newName); err == nil {
		return ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := s.store.Copy(ctx, row.StorageKey, newKey); err != nil {
		return err
	}

	// Best effort: the copy's version id, for later versioned deletes.
	newObjectID := ""
	if info, err := s.store.Stat(ctx, newKey); err == nil {
		newObjectID = info.ObjectID
	}

	if err := s.repo.Rename(ctx, ownerID, oldName, newName, newKey, newObjectID); err != nil {
		return err
	}

	s.cache.Evict(row.StorageKey)
	s.cache.Evict(newKey)

	if err := s.store.Delete(ctx, row.StorageKey, row.ObjectID); err != nil {
		// Metadata already points at the new key; the old object is merely
		// an orphan that costs storage, not correctness.
		s.log.Warnw("rename left an orphaned object behind",
			"user", ownerID, "key", row.StorageKey, "err", err)
	}
	return nil
}

// Delete removes a file: object first, metadata row second. If the process
// dies between the two, the dangling row is invisible to List via the
// best-effort policy above. The lookup happens before any store call, so a
// missing filename costs no object-store round trip.
func (s *FileService) Delete(ctx context.Context, ownerID uint, raw string) error {
	name, _, err := ResolveName(ownerID, raw)
	if err != nil {
		return ErrNotFound
	}

	row, err := s.repo.FindByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, row.StorageKey, row.ObjectID); err != nil {
		return err
	}
	s.cache.Evict(row.StorageKey)

	return s.repo.Delete(ctx, row.ID)
}

// DownloadURL resolves a filename to a time-limited signed URL.
func (s *FileService) DownloadURL(ctx context.Context, ownerID uint, raw string) (string, error) {
	name, _, err := ResolveName(ownerID, raw)
	if err != nil {
		return "", ErrNotFound
	}

	row, err := s.repo.FindByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		return "", err
	}
	return s.store.SignedURL(ctx, row.StorageKey, downloadURLExpiry)
}

// Usage computes the user's storage report: total quota, used space and a
// size breakdown by file category. Files whose object lookup fails are
// skipped, mirroring the listing policy.
func (s *FileService) Usage(ctx context.Context, ownerID uint) (StorageReport, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return StorageReport{}, err
	}

	report := StorageReport{TotalStorage: s.quotaMB}
	for _, row := range rows {
		info, err := s.cache.GetOrFetch(ctx, row.StorageKey)
		if err != nil {
			continue
		}
		sizeMB := float64(info.Size) / (1024 * 1024)
		switch category(row.Filename) {
		case "documents":
			report.Documents += sizeMB
		case "images":
			report.Images += sizeMB
		default:
			report.Others += sizeMB
		}
		report.Files++
		report.UsedStorage += sizeMB
	}
	return report, nil
}

// fileType reports the extension shown in listings, without the dot.
func fileType(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		return filename[i+1:]
	}
	return filename
}

func category(filename string) string {
	switch strings.ToLower(fileType(filename)) {
	case "doc", "docx", "pdf", "txt":
		return "documents"
	case "jpg", "jpeg", "png", "gif", "bmp":
		return "images"
	default:
		return "others"
	}
}
