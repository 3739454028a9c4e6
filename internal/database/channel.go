package database

import (
	"github.com/google/uuid"

	"github.com/ashradio/chat-server/internal/models"
)

func (d *Database) CreateChannel(channel *models.Channel) error {
	return storeErr(d.db.Create(channel).Error,
		"channel introuvable", "un channel porte déjà ce nom")
}

func (d *Database) GetChannel(id uuid.UUID) (*models.Channel, error) {
	var channel models.Channel
	if err := d.db.First(&channel, "id = ?", id).Error; err != nil {
		return nil, storeErr(err, "channel introuvable", "")
	}
	return &channel, nil
}

func (d *Database) FindChannelByName(name string) (*models.Channel, error) {
	var channel models.Channel
	if err := d.db.Where("name = ?", name).First(&channel).Error; err != nil {
		return nil, storeErr(err, "channel introuvable", "")
	}
	return &channel, nil
}

func (d *Database) UpdateChannel(channel *models.Channel) error {
	return storeErr(d.db.Save(channel).Error,
		"channel introuvable", "un channel porte déjà ce nom")
}

func (d *Database) ListPublicChannels() ([]models.Channel, error) {
	var channels []models.Channel
	err := d.db.
		Where("is_private = ? AND is_active = ?", false, true).
		Order("name ASC").
		Find(&channels).Error
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	return channels, nil
}

func (d *Database) CountMembers(channelID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.Model(&models.ChannelMember{}).Where("channel_id = ?", channelID).Count(&count).Error
	return count, storeErr(err, "", "")
}

func (d *Database) CountChannels() (int64, error) {
	var count int64
	err := d.db.Model(&models.Channel{}).Where("is_active = ?", true).Count(&count).Error
	return count, storeErr(err, "", "")
}
