package models

import (
	"time"

	"gorm.io/gorm"
)

// File pairs a user-visible filename with the key of the stored object.
// The metadata row is the source of truth for which files a user owns;
// the object store is the source of truth for size, type and upload time.
type File struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Filename   string    `gorm:"size:255;not null;uniqueIndex:idx_files_owner_name" json:"filename"`
	StorageKey string    `gorm:"size:1024;not null" json:"-"`
	ObjectID   string    `gorm:"size:255" json:"-"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_files_owner_name" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (f *File) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (f *File) BeforeUpdate(tx *gorm.DB) error {
	f.UpdatedAt = time.Now()
	return nil
}
