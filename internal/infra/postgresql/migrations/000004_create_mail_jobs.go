package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"gorm.io/gorm"
)

func createMailJobsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_mail_jobs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.MailJobModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_mail_jobs_campaign_status ON mail_jobs (campaign_id, status)`,
				`CREATE INDEX IF NOT EXISTS idx_mail_jobs_stuck ON mail_jobs (updated_at) WHERE status = 'QUEUED'`,
				`CREATE INDEX IF NOT EXISTS idx_mail_jobs_user_id ON mail_jobs (user_id)`,
				`CREATE INDEX IF NOT EXISTS idx_mail_jobs_campaign_recipient ON mail_jobs (campaign_id, lower(recipient))`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.MailJobModel{})
		},
	}
}
