package database

import (
	"github.com/google/uuid"

	"github.com/ashradio/chat-server/internal/models"
)

func (d *Database) SaveModerationLog(entry *models.ModerationLog) error {
	return storeErr(d.db.Create(entry).Error, "", "")
}

func (d *Database) ListModerationLogs(channelID uuid.UUID, limit int) ([]models.ModerationLog, error) {
	var entries []models.ModerationLog
	query := d.db.Order("created_at DESC").Limit(limit)
	if channelID != uuid.Nil {
		query = query.Where("channel_id = ?", channelID)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, storeErr(err, "", "")
	}
	return entries, nil
}
