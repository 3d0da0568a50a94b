package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"gorm.io/gorm"
)

func createMailListsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_mail_lists",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.MailListModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_mail_lists_user_id ON mail_lists (user_id)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.MailListModel{})
		},
	}
}
