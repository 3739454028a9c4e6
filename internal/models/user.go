package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null;default:'user'"`
	Avatar       string
	Color        string
	XP           int `gorm:"default:0"`
	Level        int `gorm:"default:1"`
	LastSeenAt   time.Time
	CreatedAt    time.Time
}
