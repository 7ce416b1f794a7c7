package database

import (
	"errors"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func (d *Database) Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// Duplicate-key violations surface as gorm.ErrDuplicatedKey, which
		// the direct-conversation dedup path relies on.
		TranslateError: true,
	})
	if err != nil {
		return err
	}

	d.db = db

	return d.Migrate()
}
