package models

import (
	"time"
)

type Favorite struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorite_pair"`
	FavoriteID string    `json:"favorite_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorite_pair"`
	CreatedAt  time.Time `json:"created_at"`
	User       Profile   `json:"-" gorm:"foreignKey:UserID"`
	Favorite   Profile   `json:"favorite,omitempty" gorm:"foreignKey:FavoriteID"`
}

type GiftType struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	Name     string  `json:"name" gorm:"uniqueIndex;not null"`
	MediaURL *string `json:"media_url,omitempty"`
}

type Gift struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SenderID   string    `json:"sender_id" gorm:"type:uuid;not null"`
	ReceiverID string    `json:"receiver_id" gorm:"type:uuid;not null;index"`
	GiftTypeID uint      `json:"gift_type_id" gorm:"not null"`
	Message    *string   `json:"message,omitempty"`
	SentAt     time.Time `json:"sent_at"`
	Sender     Profile   `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	GiftType   GiftType  `json:"type,omitempty" gorm:"foreignKey:GiftTypeID"`
}

// Swipe records one discover action per (user, target) pair; repeated
// actions overwrite the previous one.
type Swipe struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_swipe_pair"`
	TargetID  string    `json:"target_id" gorm:"type:uuid;not null;uniqueIndex:idx_swipe_pair"`
	Action    string    `json:"action" gorm:"not null"` // like, dislike, superlike
	CreatedAt time.Time `json:"created_at"`
}

type Referral struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ReferrerID     string    `json:"referrer_id" gorm:"type:uuid;not null;index"`
	ReferredUserID string    `json:"referred_user_id" gorm:"type:uuid;not null;uniqueIndex"`
	ReferredAt     time.Time `json:"referred_at"`
	ReferredUser   Profile   `json:"referred_user,omitempty" gorm:"foreignKey:ReferredUserID"`
}
