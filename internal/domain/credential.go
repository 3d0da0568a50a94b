package domain

import (
	"fmt"
	"strings"
	"time"
)

// SMTPCredential is a user's persisted SMTP account. Secret holds the
// fernet ciphertext of the account password; the plaintext never appears
// on this type. Decryption happens in the credential store on read.
type SMTPCredential struct {
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

func (c *SMTPCredential) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: smtp host is required", ErrValidation)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid smtp port %d", ErrValidation, c.Port)
	}
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("%w: smtp username is required", ErrValidation)
	}
	if strings.TrimSpace(c.Secret) == "" {
		return fmt.Errorf("%w: smtp secret is required", ErrValidation)
	}
	if c.UseTLS && c.UseSSL {
		return fmt.Errorf("%w: use_tls and use_ssl are mutually exclusive", ErrValidation)
	}
	return nil
}

// SMTPTransportParams is the read model handed to the delivery worker:
// the resolved, decrypted transport parameters for one user.
type SMTPTransportParams struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	UseSSL   bool
}

// Addr returns the host:port dial target.
func (p SMTPTransportParams) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}
