package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string         `gorm:"primaryKey"`
	Email        string         `gorm:"uniqueIndex;not null"`
	PasswordHash string         `gorm:"not null"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"not null"`
}

type PostModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Text      string    `gorm:"type:text;not null"`
	ImageURL  string
	CreatedAt time.Time `gorm:"not null;index"`
}

type ProfileModel struct {
	ID          string    `gorm:"primaryKey"`
	Email       string    `gorm:"not null"`
	DisplayName string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}
