package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"github.com/kursadbilgin/mailflow/internal/secret"
)

const testFernetKey = "cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="

type fakeCredentialRepo struct {
	upsertFn      func(ctx context.Context, cred *domain.SMTPCredential) error
	getByUserIDFn func(ctx context.Context, userID string) (*domain.SMTPCredential, error)
}

func (f *fakeCredentialRepo) Upsert(ctx context.Context, cred *domain.SMTPCredential) error {
	if f.upsertFn == nil {
		return nil
	}
	return f.upsertFn(ctx, cred)
}

func (f *fakeCredentialRepo) GetByUserID(ctx context.Context, userID string) (*domain.SMTPCredential, error) {
	if f.getByUserIDFn == nil {
		return nil, domain.ErrNotConfigured
	}
	return f.getByUserIDFn(ctx, userID)
}

func newTestCipher(t *testing.T) *secret.Cipher {
	t.Helper()

	cipher, err := secret.NewCipher(testFernetKey)
	if err != nil {
		t.Fatalf("secret.NewCipher() error = %v", err)
	}
	return cipher
}

func TestSMTPCredentialStore_SaveThenResolveRoundTrip(t *testing.T) {
	t.Parallel()

	var stored *domain.SMTPCredential
	repo := &fakeCredentialRepo{
		upsertFn: func(ctx context.Context, cred *domain.SMTPCredential) error {
			stored = cred
			return nil
		},
		getByUserIDFn: func(ctx context.Context, userID string) (*domain.SMTPCredential, error) {
			if stored == nil || stored.UserID != userID {
				return nil, domain.ErrNotConfigured
			}
			return stored, nil
		},
	}

	store, err := NewSMTPCredentialStore(repo, newTestCipher(t))
	if err != nil {
		t.Fatalf("NewSMTPCredentialStore() error = %v", err)
	}

	saved, err := store.Save(context.Background(), domain.SMTPCredential{
		UserID:   "user-1",
		Host:     "smtp.example.com",
		Port:     587,
		Username: "me@example.com",
		UseTLS:   true,
	}, "hunter2")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Secret == "hunter2" || saved.Secret == "" {
		t.Fatal("Save() must store ciphertext, not the plaintext password")
	}

	params, err := store.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if params.Password != "hunter2" {
		t.Fatalf("Password = %q, want decrypted plaintext", params.Password)
	}
	if params.Host != "smtp.example.com" || params.Port != 587 {
		t.Fatalf("params = %+v, want saved host/port", params)
	}
	if params.Username != "me@example.com" {
		t.Fatalf("Username = %q, want me@example.com", params.Username)
	}
}

func TestSMTPCredentialStore_SaveRequiresPassword(t *testing.T) {
	t.Parallel()

	store, err := NewSMTPCredentialStore(&fakeCredentialRepo{}, newTestCipher(t))
	if err != nil {
		t.Fatalf("NewSMTPCredentialStore() error = %v", err)
	}

	_, err = store.Save(context.Background(), domain.SMTPCredential{
		UserID:   "user-1",
		Host:     "smtp.example.com",
		Port:     587,
		Username: "me@example.com",
		UseTLS:   true,
	}, "   ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Save() error = %v, want ErrValidation", err)
	}
}

func TestSMTPCredentialStore_ResolveUnconfiguredUser(t *testing.T) {
	t.Parallel()

	store, err := NewSMTPCredentialStore(&fakeCredentialRepo{}, newTestCipher(t))
	if err != nil {
		t.Fatalf("NewSMTPCredentialStore() error = %v", err)
	}

	_, err = store.Resolve(context.Background(), "user-without-creds")
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("Resolve() error = %v, want ErrNotConfigured", err)
	}
}
