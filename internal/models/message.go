package models

import (
	"time"

	"github.com/google/uuid"
)

// SystemUserID : expéditeur réservé aux messages générés par le serveur.
const SystemUserID = "system"

// SystemUsername : nom affiché pour les messages système.
const SystemUsername = "Ash-Radio"

const (
	MessageText   = "text"
	MessageImage  = "image"
	MessageVoice  = "voice"
	MessageSystem = "system"
)

// Message est immuable une fois enregistré ; UserRole est figé
// au moment de l'envoi, jamais recalculé.
type Message struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChannelID       uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_channel_time,priority:1"`
	UserID          string    `gorm:"not null"`
	Username        string    `gorm:"not null"`
	UserRole        string
	Type            string `gorm:"default:'text'"`
	Content         string `gorm:"not null"`
	ImageURL        string
	AudioURL        string
	DurationSeconds int
	CreatedAt       time.Time `gorm:"index:idx_messages_channel_time,priority:2"`
}
