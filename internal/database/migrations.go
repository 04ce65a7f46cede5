package database

import (
	"gorm.io/gorm"

	"github.com/rosterhq/rosterd/internal/models"
)

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&models.Membership{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}
