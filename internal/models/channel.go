package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChannelTypePublic   = "public"
	ChannelTypePrivate  = "private"
	ChannelTypeThematic = "thematic"
	ChannelTypeVoice    = "voice"
)

type Channel struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Description string
	Topic       string
	Type        string `gorm:"not null;check:type IN ('public','private','thematic','voice')"`
	IsPrivate   bool   `gorm:"default:false"`
	Password    string
	Color       string
	OwnerID     uuid.UUID
	MaxMembers  int  `gorm:"default:100"`
	IsActive    bool `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relations
	Members []ChannelMember `gorm:"foreignKey:ChannelID"`
}
