package models

import (
	"time"

	"github.com/google/uuid"
)

// ModerationLog : journal d'audit en append-only, jamais modifié.
type ModerationLog struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Action          string    `gorm:"not null"`
	Reason          string
	ModeratorID     uuid.UUID `gorm:"type:uuid;not null"`
	TargetUserID    uuid.UUID `gorm:"type:uuid;not null"`
	ChannelID       uuid.UUID `gorm:"type:uuid"`
	DurationSeconds int
	ExpiresAt       *time.Time
	CreatedAt       time.Time `gorm:"index"`
}
