package domain

import (
	"fmt"
	"strings"
	"time"
)

// BounceThreshold is the number of bounces after which a subscriber
// address is deactivated and excluded from recipient resolution.
const BounceThreshold = 3

// MailList groups subscriber addresses under a user-owned list.
type MailList struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	UserID      string `gorm:"type:uuid;not null"`
	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:varchar(255)"`
	IsActive    bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (l *MailList) Validate() error {
	if strings.TrimSpace(l.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: mail list name is required", ErrValidation)
	}
	return nil
}

// Subscriber is one destination address held by a mail list.
type Subscriber struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	MailListID  string `gorm:"type:uuid;not null"`
	Address     string `gorm:"type:varchar(255);not null"`
	IsActive    bool   `gorm:"not null;default:true"`
	BounceCount int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *Subscriber) Validate() error {
	if strings.TrimSpace(s.MailListID) == "" {
		return fmt.Errorf("%w: mail list id is required", ErrValidation)
	}
	if err := validateAddress(s.Address); err != nil {
		return fmt.Errorf("%w: invalid subscriber address %q", ErrValidation, s.Address)
	}
	return nil
}

// RecordBounce increments the bounce counter and deactivates the
// subscriber once the threshold is reached.
func (s *Subscriber) RecordBounce() {
	if !s.IsActive {
		return
	}
	s.BounceCount++
	if s.BounceCount >= BounceThreshold {
		s.IsActive = false
	}
}
