package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CredentialRepository interface {
	// Upsert stores the credential, replacing any previous one for the user.
	Upsert(ctx context.Context, cred *domain.SMTPCredential) error
	// GetByUserID returns ErrNotConfigured when the user has no credential.
	GetByUserID(ctx context.Context, userID string) (*domain.SMTPCredential, error)
}

type GormCredentialRepo struct {
	db *gorm.DB
}

func NewGormCredentialRepo(db *gorm.DB) *GormCredentialRepo {
	return &GormCredentialRepo{db: db}
}

func (r *GormCredentialRepo) Upsert(ctx context.Context, cred *domain.SMTPCredential) error {
	model := credentialModelFromDomain(cred)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"host", "port", "username", "secret", "use_tls", "use_ssl", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}
	if cred != nil {
		*cred = *credentialModelToDomain(model)
	}
	return nil
}

func (r *GormCredentialRepo) GetByUserID(ctx context.Context, userID string) (*domain.SMTPCredential, error) {
	var model SMTPCredentialModel
	err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}
	return credentialModelToDomain(&model), nil
}
