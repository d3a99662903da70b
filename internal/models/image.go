package models

import (
	"time"
)

// UserImage holds the three stored variants of one uploaded photo.
// ImageURL is the large variant; rows are soft-deleted by clearing
// IsActive while the backing objects are swept asynchronously.
type UserImage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"type:uuid;index;not null"`
	ImageURL   string    `json:"image_url" gorm:"not null"`
	MediumURL  string    `json:"medium_url"`
	ThumbURL   string    `json:"thumb_url"`
	SortOrder  int       `json:"sort_order" gorm:"default:0"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PendingDelete queues a storage object key for the background sweeper.
// Metadata is the source of truth; storage follows eventually.
type PendingDelete struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ObjectKey string    `json:"object_key" gorm:"not null"`
	QueuedAt  time.Time `json:"queued_at"`
}
