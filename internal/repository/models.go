package repository

import (
	"time"

	"github.com/kursadbilgin/mailflow/internal/domain"
)

// MailJobModel is the persistence model for the mail_jobs table.
type MailJobModel struct {
	ID            string        `gorm:"type:uuid;primaryKey"`
	UserID        string        `gorm:"type:uuid;not null"`
	CampaignID    *string       `gorm:"type:uuid"`
	Sender        string        `gorm:"type:varchar(255);not null"`
	Recipient     string        `gorm:"type:varchar(255);not null"`
	Subject       string        `gorm:"type:varchar(255);not null"`
	Body          string        `gorm:"type:text;not null"`
	Status        domain.Status `gorm:"type:varchar(10);not null"`
	AttemptCount  int           `gorm:"not null;default:0"`
	HasAttachment bool          `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (MailJobModel) TableName() string {
	return "mail_jobs"
}

// CampaignModel is the persistence model for campaigns.
type CampaignModel struct {
	ID          string                `gorm:"type:uuid;primaryKey"`
	UserID      string                `gorm:"type:uuid;not null"`
	Name        string                `gorm:"type:varchar(255);not null"`
	Description string                `gorm:"type:text"`
	Subject     string                `gorm:"type:varchar(255);not null"`
	Body        string                `gorm:"type:text;not null"`
	Status      domain.CampaignStatus `gorm:"type:varchar(10);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

// CampaignMailListModel joins campaigns to the mail lists they address.
type CampaignMailListModel struct {
	CampaignID string `gorm:"type:uuid;primaryKey"`
	MailListID string `gorm:"type:uuid;primaryKey"`
}

func (CampaignMailListModel) TableName() string {
	return "campaign_mail_lists"
}

// MailListModel is the persistence model for mail_lists.
type MailListModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	UserID      string `gorm:"type:uuid;not null"`
	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:varchar(255)"`
	IsActive    bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (MailListModel) TableName() string {
	return "mail_lists"
}

// SubscriberModel is the persistence model for subscribers.
type SubscriberModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	MailListID  string `gorm:"type:uuid;not null"`
	Address     string `gorm:"type:varchar(255);not null"`
	IsActive    bool   `gorm:"not null;default:true"`
	BounceCount int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (SubscriberModel) TableName() string {
	return "subscribers"
}

// SMTPCredentialModel is the persistence model for smtp_credentials.
// Secret holds fernet ciphertext; decryption happens in the credential store.
type SMTPCredentialModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	UserID    string `gorm:"type:uuid;not null;uniqueIndex"`
	Host      string `gorm:"type:varchar(255);not null"`
	Port      int    `gorm:"not null"`
	Username  string `gorm:"type:varchar(255);not null"`
	Secret    string `gorm:"type:text;not null"`
	UseTLS    bool   `gorm:"not null;default:true"`
	UseSSL    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SMTPCredentialModel) TableName() string {
	return "smtp_credentials"
}

// AttachmentModel is the persistence model for attachments.
type AttachmentModel struct {
	ID         string  `gorm:"type:uuid;primaryKey"`
	CampaignID *string `gorm:"type:uuid"`
	MailJobID  *string `gorm:"type:uuid"`
	FileName   string  `gorm:"type:varchar(255);not null"`
	FilePath   string  `gorm:"type:varchar(1024);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (AttachmentModel) TableName() string {
	return "attachments"
}

func mailJobModelFromDomain(j *domain.MailJob) *MailJobModel {
	if j == nil {
		return nil
	}

	return &MailJobModel{
		ID:            j.ID,
		UserID:        j.UserID,
		CampaignID:    j.CampaignID,
		Sender:        j.Sender,
		Recipient:     j.Recipient,
		Subject:       j.Subject,
		Body:          j.Body,
		Status:        j.Status,
		AttemptCount:  j.AttemptCount,
		HasAttachment: j.HasAttachment,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

func mailJobModelToDomain(m *MailJobModel) *domain.MailJob {
	if m == nil {
		return nil
	}

	return &domain.MailJob{
		ID:            m.ID,
		UserID:        m.UserID,
		CampaignID:    m.CampaignID,
		Sender:        m.Sender,
		Recipient:     m.Recipient,
		Subject:       m.Subject,
		Body:          m.Body,
		Status:        m.Status,
		AttemptCount:  m.AttemptCount,
		HasAttachment: m.HasAttachment,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func campaignModelFromDomain(c *domain.Campaign) *CampaignModel {
	if c == nil {
		return nil
	}

	return &CampaignModel{
		ID:          c.ID,
		UserID:      c.UserID,
		Name:        c.Name,
		Description: c.Description,
		Subject:     c.Subject,
		Body:        c.Body,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func campaignModelToDomain(m *CampaignModel, mailListIDs []string) *domain.Campaign {
	if m == nil {
		return nil
	}

	return &domain.Campaign{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		Description: m.Description,
		Subject:     m.Subject,
		Body:        m.Body,
		Status:      m.Status,
		MailListIDs: mailListIDs,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func credentialModelFromDomain(c *domain.SMTPCredential) *SMTPCredentialModel {
	if c == nil {
		return nil
	}

	return &SMTPCredentialModel{
		ID:        c.ID,
		UserID:    c.UserID,
		Host:      c.Host,
		Port:      c.Port,
		Username:  c.Username,
		Secret:    c.Secret,
		UseTLS:    c.UseTLS,
		UseSSL:    c.UseSSL,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func credentialModelToDomain(m *SMTPCredentialModel) *domain.SMTPCredential {
	if m == nil {
		return nil
	}

	return &domain.SMTPCredential{
		ID:        m.ID,
		UserID:    m.UserID,
		Host:      m.Host,
		Port:      m.Port,
		Username:  m.Username,
		Secret:    m.Secret,
		UseTLS:    m.UseTLS,
		UseSSL:    m.UseSSL,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func attachmentModelToDomain(m *AttachmentModel) *domain.Attachment {
	if m == nil {
		return nil
	}

	return &domain.Attachment{
		ID:         m.ID,
		CampaignID: m.CampaignID,
		MailJobID:  m.MailJobID,
		FileName:   m.FileName,
		FilePath:   m.FilePath,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func attachmentModelFromDomain(a *domain.Attachment) *AttachmentModel {
	if a == nil {
		return nil
	}

	return &AttachmentModel{
		ID:         a.ID,
		CampaignID: a.CampaignID,
		MailJobID:  a.MailJobID,
		FileName:   a.FileName,
		FilePath:   a.FilePath,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func subscriberModelFromDomain(s *domain.Subscriber) *SubscriberModel {
	if s == nil {
		return nil
	}

	return &SubscriberModel{
		ID:          s.ID,
		MailListID:  s.MailListID,
		Address:     s.Address,
		IsActive:    s.IsActive,
		BounceCount: s.BounceCount,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func mailListModelFromDomain(l *domain.MailList) *MailListModel {
	if l == nil {
		return nil
	}

	return &MailListModel{
		ID:          l.ID,
		UserID:      l.UserID,
		Name:        l.Name,
		Description: l.Description,
		IsActive:    l.IsActive,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}
