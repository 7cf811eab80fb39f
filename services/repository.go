package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Odiedo123/Tenacity/models"
)

// FileRepo is the metadata-store capability the file services need. The
// database's unique index on (user_id, filename) is the only serialization
// point for concurrent writes to the same name.
type FileRepo interface {
	ListByOwner(ctx context.Context, ownerID uint) ([]models.File, error)
	FindByOwnerAndName(ctx context.Context, ownerID uint, filename string) (*models.File, error)
	// CreateBatch inserts all rows in one transaction: either the whole
	// batch commits or none of it does. Re-uploading an existing filename
	// replaces that row's storage key and object id instead of failing,
	// keeping (user_id, filename) unique.
	CreateBatch(ctx context.Context, files []models.File) error
	// Rename updates filename, storage key and object id of the row still
	// matching (ownerID, oldName). Returns ErrConflict when no row matched,
	// which happens when a concurrent rename or delete got there first.
	Rename(ctx context.Context, ownerID uint, oldName, newName, newKey, newObjectID string) error
	Delete(ctx context.Context, id uint) error
}

type gormFileRepo struct {
	db *gorm.DB
}

// NewFileRepo returns a FileRepo backed by the given gorm database handle.
func NewFileRepo(db *gorm.DB) FileRepo {
	return &gormFileRepo{db: db}
}

func (r *gormFileRepo) ListByOwner(ctx context.Context, ownerID uint) ([]models.File, error) {
	var files []models.File
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list files for user %d: %w", ownerID, err)
	}
	return files, nil
}

func (r *gormFileRepo) FindByOwnerAndName(ctx context.Context, ownerID uint, filename string) (*models.File, error) {
	var file models.File
	err := r.db.WithContext(ctx).Where("user_id = ? AND filename = ?", ownerID, filename).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find file %q for user %d: %w", filename, ownerID, err)
	}
	return &file, nil
}

func (r *gormFileRepo) CreateBatch(ctx context.Context, files []models.File) error {
	if len(files) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "filename"}},
			DoUpdates: clause.AssignmentColumns([]string{"storage_key", "object_id", "updated_at"}),
		}).Create(&files).Error
	})
	if err != nil {
		return fmt.Errorf("insert %d file records: %w", len(files), err)
	}
	return nil
}

func (r *gormFileRepo) Rename(ctx context.Context, ownerID uint, oldName, newName, newKey, newObjectID string) error {
	res := r.db.WithContext(ctx).Model(&models.File{}).
		Where("user_id = ? AND filename = ?", ownerID, oldName).
		Updates(map[string]interface{}{
			"filename":    newName,
			"storage_key": newKey,
			"object_id":   newObjectID,
		})
	if res.Error != nil {
		// The target name can be taken by a concurrent upload or rename in the
		// window after the service's availability check.
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("rename %q to %q for user %d: %w", oldName, newName, ownerID, res.Error)
	}
	if res.RowsAffected == 0 {
		// The row we looked up moments ago is gone or already renamed.
		return ErrConflict
	}
	return nil
}

func (r *gormFileRepo) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.File{}, id).Error; err != nil {
		return fmt.Errorf("delete file record %d: %w", id, err)
	}
	return nil
}
