package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Status represents the lifecycle state of a mail job.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusQueued  Status = "QUEUED"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusQueued, StatusSent, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether a job in this state must never be sent again.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// ParseStatusList parses a comma-separated status filter, e.g. "sent,failed".
func ParseStatusList(s string) ([]Status, error) {
	parts := strings.Split(s, ",")
	statuses := make([]Status, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		status, err := ParseStatusFromString(part)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	if len(statuses) == 0 {
		return nil, fmt.Errorf("%w: at least one status is required", ErrValidation)
	}
	return statuses, nil
}

// MailJob is one recipient-specific send attempt derived from a campaign,
// or an ad hoc single mail when CampaignID is nil.
type MailJob struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	UserID        string  `gorm:"type:uuid;not null"`
	CampaignID    *string `gorm:"type:uuid"`
	Sender        string  `gorm:"type:varchar(255);not null"`
	Recipient     string  `gorm:"type:varchar(255);not null"`
	Subject       string  `gorm:"type:varchar(255);not null"`
	Body          string  `gorm:"type:text;not null"`
	Status        Status  `gorm:"type:varchar(10);not null"`
	AttemptCount  int     `gorm:"not null;default:0"`
	HasAttachment bool    `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (j *MailJob) Validate() error {
	if strings.TrimSpace(j.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := validateAddress(j.Sender); err != nil {
		return fmt.Errorf("%w: invalid sender %q", ErrValidation, j.Sender)
	}
	if err := validateAddress(j.Recipient); err != nil {
		return fmt.Errorf("%w: invalid recipient %q", ErrValidation, j.Recipient)
	}
	if strings.TrimSpace(j.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if !j.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, j.Status)
	}
	return nil
}

func validateAddress(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("address is empty")
	}
	_, err := mail.ParseAddress(addr)
	return err
}
