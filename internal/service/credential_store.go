package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kursadbilgin/mailflow/internal/domain"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"github.com/kursadbilgin/mailflow/internal/secret"
)

// CredentialStore resolves a user's decrypted SMTP transport parameters.
// The dispatch pipeline only reads from it.
type CredentialStore interface {
	Resolve(ctx context.Context, userID string) (domain.SMTPTransportParams, error)
}

// SMTPCredentialStore persists credentials with the secret encrypted at
// rest and decrypts on read. Plaintext passwords only exist in transit
// through Save and Resolve.
type SMTPCredentialStore struct {
	credentials repository.CredentialRepository
	cipher      *secret.Cipher
}

func NewSMTPCredentialStore(credentials repository.CredentialRepository, cipher *secret.Cipher) (*SMTPCredentialStore, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential repository is required")
	}
	if cipher == nil {
		return nil, fmt.Errorf("cipher is required")
	}

	return &SMTPCredentialStore{
		credentials: credentials,
		cipher:      cipher,
	}, nil
}

var _ CredentialStore = (*SMTPCredentialStore)(nil)

// Save encrypts the password and upserts the user's single credential set.
func (s *SMTPCredentialStore) Save(ctx context.Context, cred domain.SMTPCredential, password string) (*domain.SMTPCredential, error) {
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: smtp password is required", domain.ErrValidation)
	}

	ciphertext, err := s.cipher.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt smtp secret: %w", err)
	}

	cred.ID = strings.TrimSpace(cred.ID)
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	cred.Secret = ciphertext

	if err := cred.Validate(); err != nil {
		return nil, err
	}

	if err := s.credentials.Upsert(ctx, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *SMTPCredentialStore) Resolve(ctx context.Context, userID string) (domain.SMTPTransportParams, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.SMTPTransportParams{}, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	cred, err := s.credentials.GetByUserID(ctx, userID)
	if err != nil {
		return domain.SMTPTransportParams{}, err
	}

	password, err := s.cipher.Decrypt(cred.Secret)
	if err != nil {
		return domain.SMTPTransportParams{}, fmt.Errorf("failed to decrypt smtp secret: %w", err)
	}

	return domain.SMTPTransportParams{
		Host:     cred.Host,
		Port:     cred.Port,
		Username: cred.Username,
		Password: password,
		UseTLS:   cred.UseTLS,
		UseSSL:   cred.UseSSL,
	}, nil
}
