package database

import (
	"errors"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ashradio/chat-server/internal/models"
)

// Connect ouvre la base désignée par DATABASE_URL et applique les
// migrations avant de livrer le store.
func Connect() (*Database, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	// TranslateError permet de détecter les violations d'unicité
	// via gorm.ErrDuplicatedKey quel que soit le driver.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Channel{},
		&models.ChannelMember{},
		&models.Message{},
		&models.ModerationLog{},
	)
	if err != nil {
		return nil, err
	}

	return NewDatabase(db), nil
}
