package models

import (
	"time"
)

// Enum values mirror the profile columns; stored as text.
var (
	Genders              = []string{"male", "female", "non_binary", "other"}
	SmokingValues        = []string{"no", "occasionally", "regularly"}
	DrinkingValues       = []string{"no", "socially", "regularly"}
	EducationValues      = []string{"high_school", "bachelors", "masters", "phd", "other"}
	ChildrenValues       = []string{"no", "yes_fulltime", "yes_parttime", "want_some_day"}
	RelationshipStatuses = []string{"single", "divorced", "widowed", "separated", "in_relationship", "open_relationship"}
	LookingForValues     = []string{"chat", "casual", "long_term", "friends", "virtual"}
	PetsValues           = []string{"none", "dog", "cat", "other", "many"}
	ZodiacSigns          = []string{"aries", "taurus", "gemini", "cancer", "leo", "virgo", "libra", "scorpio", "sagittarius", "capricorn", "aquarius", "pisces"}
)

type Profile struct {
	ID                 string      `json:"id" gorm:"primaryKey;type:uuid"`
	Name               string      `json:"name" gorm:"not null"`
	BirthDate          *time.Time  `json:"birth_date,omitempty"`
	Gender             *string     `json:"gender,omitempty"`
	Bio                *string     `json:"bio,omitempty"`
	Smoking            *string     `json:"smoking,omitempty"`
	Drinking           *string     `json:"drinking,omitempty"`
	Education          *string     `json:"education,omitempty"`
	Children           *string     `json:"children,omitempty"`
	RelationshipStatus *string     `json:"relationship_status,omitempty"`
	LookingFor         *string     `json:"looking_for,omitempty"`
	Zodiac             *string     `json:"zodiac,omitempty"`
	Pets               *string     `json:"pets,omitempty"`
	HeightCm           *int        `json:"height_cm,omitempty"`
	IsVerified         bool        `json:"is_verified" gorm:"default:false"`
	IsVisible          bool        `json:"is_visible" gorm:"default:true"`
	Latitude           *float64    `json:"latitude,omitempty"`
	Longitude          *float64    `json:"longitude,omitempty"`
	City               *string     `json:"city,omitempty"`
	Country            *string     `json:"country,omitempty"`
	LastSeenAt         *time.Time  `json:"last_seen_at,omitempty"`
	AppLanguage        *string     `json:"app_language,omitempty"`
	Points             int         `json:"points" gorm:"default:0"`
	ReferredBy         *string     `json:"referred_by,omitempty" gorm:"type:uuid"`
	PushToken          *string     `json:"-"`
	IsBanned           bool        `json:"is_banned" gorm:"default:false"`
	IsAdmin            bool        `json:"is_admin" gorm:"default:false"`
	Images             []UserImage `json:"images,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Credential is the password login record backing a profile. The hosted
// product kept this in a managed auth service; here it is a plain table.
type Credential struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func ValidEnumValue(field, value string) bool {
	var allowed []string
	switch field {
	case "gender":
		allowed = Genders
	case "smoking":
		allowed = SmokingValues
	case "drinking":
		allowed = DrinkingValues
	case "education":
		allowed = EducationValues
	case "children":
		allowed = ChildrenValues
	case "relationship_status":
		allowed = RelationshipStatuses
	case "looking_for":
		allowed = LookingForValues
	case "zodiac":
		allowed = ZodiacSigns
	case "pets":
		allowed = PetsValues
	default:
		return false
	}
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}
