package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"gorm.io/gorm"
)

func createAttachmentsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000006_create_attachments",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.AttachmentModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_attachments_campaign_id ON attachments (campaign_id) WHERE campaign_id IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_attachments_mail_job_id ON attachments (mail_job_id) WHERE mail_job_id IS NOT NULL`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.AttachmentModel{})
		},
	}
}
