package database

import (
	"github.com/google/uuid"

	"github.com/ashradio/chat-server/internal/models"
)

func (d *Database) SaveMessage(message *models.Message) error {
	return storeErr(d.db.Create(message).Error, "", "")
}

// GetChannelMessages retourne les N derniers messages du channel,
// rendus du plus ancien au plus récent pour l'affichage.
func (d *Database) GetChannelMessages(channelID uuid.UUID, limit int) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, storeErr(err, "", "")
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (d *Database) CountMessages() (int64, error) {
	var count int64
	err := d.db.Model(&models.Message{}).Count(&count).Error
	return count, storeErr(err, "", "")
}
