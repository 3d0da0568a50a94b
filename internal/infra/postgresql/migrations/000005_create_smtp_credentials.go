package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"gorm.io/gorm"
)

func createSMTPCredentialsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_smtp_credentials",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.SMTPCredentialModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.SMTPCredentialModel{})
		},
	}
}
