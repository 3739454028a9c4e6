package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelMember : une seule ligne par couple (user, channel).
type ChannelMember struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChannelID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CanWrite  bool      `gorm:"default:true"`
	CanInvite bool      `gorm:"default:false"`
	IsMuted   bool      `gorm:"default:false"`
	MuteUntil *time.Time
	JoinedAt  time.Time
}

// Muted indique si le mute est encore effectif. Un MuteUntil passé
// équivaut à un unmute : l'expiration est vérifiée ici, jamais par un timer.
func (m *ChannelMember) Muted(now time.Time) bool {
	if !m.IsMuted {
		return false
	}
	if m.MuteUntil != nil && !now.Before(*m.MuteUntil) {
		return false
	}
	return true
}
