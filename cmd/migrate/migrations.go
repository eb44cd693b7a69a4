package main

import (
	"gorm.io/gorm"

	"github.com/dynprot/engine/internal/models"
)

// runMigrations creates or updates every table, then applies what
// AutoMigrate cannot express.
func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}

	migrations := []func(*gorm.DB) error{
		addCaseInsensitiveEmailIndex,
	}
	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}
	return nil
}

// addCaseInsensitiveEmailIndex guards rows written before emails were
// lower-cased on insert.
func addCaseInsensitiveEmailIndex(db *gorm.DB) error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (lower(email))`).Error
}
