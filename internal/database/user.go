package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
)

func (d *Database) SaveUser(user *models.User) error {
	return storeErr(d.db.Create(user).Error,
		"utilisateur introuvable", "utilisateur ou email déjà existant")
}

func (d *Database) GetUser(id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, storeErr(err, "utilisateur introuvable", "")
	}
	return &user, nil
}

// FindUserByUsername : recherche insensible à la casse, comme le roster.
func (d *Database) FindUserByUsername(username string) (*models.User, error) {
	user := models.User{}
	if err := d.db.Where("LOWER(username) = LOWER(?)", username).First(&user).Error; err != nil {
		return nil, storeErr(err, "utilisateur introuvable", "")
	}
	return &user, nil
}

// FindUserByLogin accepte un pseudo ou un email.
func (d *Database) FindUserByLogin(login string) (*models.User, error) {
	user := models.User{}
	err := d.db.Where("LOWER(username) = LOWER(?) OR email = ?", login, login).First(&user).Error
	if err != nil {
		return nil, storeErr(err, "utilisateur introuvable", "")
	}
	return &user, nil
}

func (d *Database) UpdateUser(user *models.User) error {
	return storeErr(d.db.Save(user).Error,
		"utilisateur introuvable", "utilisateur ou email déjà existant")
}

func (d *Database) UpdateLastSeen(id uuid.UUID) error {
	err := d.db.Model(&models.User{}).Where("id = ?", id).Update("last_seen_at", time.Now()).Error
	return storeErr(err, "utilisateur introuvable", "")
}

func (d *Database) CountUserMessages(userID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.Model(&models.Message{}).Where("user_id = ?", userID.String()).Count(&count).Error
	return count, storeErr(err, "", "")
}

// TopUsers : classement niveau décroissant puis XP décroissant, bannis exclus.
func (d *Database) TopUsers(limit int) ([]models.User, error) {
	var users []models.User
	err := d.db.
		Where("role <> ?", string(roles.Banned)).
		Order("level DESC").
		Order("xp DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	return users, nil
}
