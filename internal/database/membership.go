package database

import (
	"github.com/google/uuid"

	"github.com/ashradio/chat-server/internal/models"
)

func (d *Database) CreateMembership(member *models.ChannelMember) error {
	return storeErr(d.db.Create(member).Error,
		"adhésion introuvable", "utilisateur déjà membre du channel")
}

func (d *Database) GetMembership(userID, channelID uuid.UUID) (*models.ChannelMember, error) {
	var member models.ChannelMember
	err := d.db.Where("user_id = ? AND channel_id = ?", userID, channelID).First(&member).Error
	if err != nil {
		return nil, storeErr(err, "adhésion introuvable", "")
	}
	return &member, nil
}

func (d *Database) UpdateMembership(member *models.ChannelMember) error {
	err := d.db.Model(&models.ChannelMember{}).
		Where("user_id = ? AND channel_id = ?", member.UserID, member.ChannelID).
		Updates(map[string]interface{}{
			"can_write":  member.CanWrite,
			"can_invite": member.CanInvite,
			"is_muted":   member.IsMuted,
			"mute_until": member.MuteUntil,
		}).Error
	return storeErr(err, "adhésion introuvable", "")
}

// DeleteMembership est un no-op si l'adhésion n'existe pas.
func (d *Database) DeleteMembership(userID, channelID uuid.UUID) error {
	err := d.db.Where("user_id = ? AND channel_id = ?", userID, channelID).
		Delete(&models.ChannelMember{}).Error
	return storeErr(err, "", "")
}

func (d *Database) ListMemberships(channelID uuid.UUID) ([]models.ChannelMember, error) {
	var members []models.ChannelMember
	err := d.db.Where("channel_id = ?", channelID).Order("joined_at ASC").Find(&members).Error
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	return members, nil
}
