package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/Zephony/zephony-go/models"
)

func GetMigrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20261001_init_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.City{},
					&models.Contact{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				// contacts references cities
				return tx.Migrator().DropTable("contacts", "cities")
			},
		},
		{
			ID: "20261008_contact_status_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_contacts_status_email ON contacts(status, email)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec(`DROP INDEX IF EXISTS idx_contacts_status_email`).Error
			},
		},
	}
}

// Migrate applies every pending migration
func Migrate(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, GetMigrations()).Migrate()
}
