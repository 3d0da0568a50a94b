package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var allowedAttachmentExtensions = map[string]struct{}{
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".txt":  {},
	".csv":  {},
	".zip":  {},
	".docx": {},
	".xlsx": {},
}

// Attachment references a file sent with a campaign's mails, or with a
// single ad hoc mail job when MailJobID is set instead of CampaignID.
type Attachment struct {
	ID         string  `gorm:"type:uuid;primaryKey"`
	CampaignID *string `gorm:"type:uuid"`
	MailJobID  *string `gorm:"type:uuid"`
	FileName   string  `gorm:"type:varchar(255);not null"`
	FilePath   string  `gorm:"type:varchar(1024);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a *Attachment) Validate() error {
	if a.CampaignID == nil && a.MailJobID == nil {
		return fmt.Errorf("%w: attachment must reference a campaign or a mail job", ErrValidation)
	}
	if strings.TrimSpace(a.FileName) == "" {
		return fmt.Errorf("%w: attachment file name is required", ErrValidation)
	}
	if strings.TrimSpace(a.FilePath) == "" {
		return fmt.Errorf("%w: attachment file path is required", ErrValidation)
	}
	ext := strings.ToLower(filepath.Ext(a.FileName))
	if _, ok := allowedAttachmentExtensions[ext]; !ok {
		return fmt.Errorf("%w: attachment extension %q is not allowed", ErrValidation, ext)
	}
	return nil
}
