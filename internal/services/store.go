package services

import (
	"github.com/google/uuid"

	"github.com/ashradio/chat-server/internal/models"
)

// Store est la frontière de persistance injectée dans chaque service.
// Deux implémentations : internal/database (Postgres via gorm) et
// le store mémoire utilisé par les tests.
//
// Convention d'erreurs : enregistrement absent -> apperr NOT_FOUND,
// violation d'unicité -> apperr ALREADY_EXISTS, panne -> apperr INTERNAL.
type Store interface {
	// Utilisateurs
	SaveUser(user *models.User) error
	GetUser(id uuid.UUID) (*models.User, error)
	FindUserByUsername(username string) (*models.User, error)
	FindUserByLogin(login string) (*models.User, error)
	UpdateUser(user *models.User) error
	UpdateLastSeen(id uuid.UUID) error
	CountUserMessages(userID uuid.UUID) (int64, error)
	TopUsers(limit int) ([]models.User, error)

	// Channels
	CreateChannel(channel *models.Channel) error
	GetChannel(id uuid.UUID) (*models.Channel, error)
	FindChannelByName(name string) (*models.Channel, error)
	UpdateChannel(channel *models.Channel) error
	ListPublicChannels() ([]models.Channel, error)
	CountMembers(channelID uuid.UUID) (int64, error)

	// Adhésions
	CreateMembership(member *models.ChannelMember) error
	GetMembership(userID, channelID uuid.UUID) (*models.ChannelMember, error)
	UpdateMembership(member *models.ChannelMember) error
	DeleteMembership(userID, channelID uuid.UUID) error
	ListMemberships(channelID uuid.UUID) ([]models.ChannelMember, error)

	// Messages : journal ordonné par channel, jamais modifié
	SaveMessage(message *models.Message) error
	GetChannelMessages(channelID uuid.UUID, limit int) ([]models.Message, error)

	// Journal de modération
	SaveModerationLog(entry *models.ModerationLog) error
	ListModerationLogs(channelID uuid.UUID, limit int) ([]models.ModerationLog, error)

	// Compteurs pour /api/health
	CountChannels() (int64, error)
	CountMessages() (int64, error)
}
