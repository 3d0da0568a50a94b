package repository

import (
	"context"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.Attachment) error
	// ListForJob returns the union of campaign-level and job-level
	// attachments for one delivery.
	ListForJob(ctx context.Context, campaignID *string, jobID string) ([]domain.Attachment, error)
}

type GormAttachmentRepo struct {
	db *gorm.DB
}

func NewGormAttachmentRepo(db *gorm.DB) *GormAttachmentRepo {
	return &GormAttachmentRepo{db: db}
}

func (r *GormAttachmentRepo) Create(ctx context.Context, att *domain.Attachment) error {
	model := attachmentModelFromDomain(att)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if att != nil {
		*att = *attachmentModelToDomain(model)
	}
	return nil
}

func (r *GormAttachmentRepo) ListForJob(ctx context.Context, campaignID *string, jobID string) ([]domain.Attachment, error) {
	query := r.db.WithContext(ctx).Model(&AttachmentModel{})
	if campaignID != nil {
		query = query.Where("mail_job_id = ? OR campaign_id = ?", jobID, *campaignID)
	} else {
		query = query.Where("mail_job_id = ?", jobID)
	}

	var models []AttachmentModel
	if err := query.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	attachments := make([]domain.Attachment, 0, len(models))
	for i := range models {
		attachments = append(attachments, *attachmentModelToDomain(&models[i]))
	}
	return attachments, nil
}
