package database

import (
	"gorm.io/gorm"

	"eduline/internal/models"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// Migrate creates or updates the chat schema.
func (d *Database) Migrate() error {
	return d.db.AutoMigrate(&models.Conversation{}, &models.Participant{}, &models.Message{})
}
