package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"gorm.io/gorm"
)

// StatusCount is one row of a per-campaign status breakdown.
type StatusCount struct {
	Status domain.Status `gorm:"column:status"`
	Count  int           `gorm:"column:count"`
}

type MailJobRepository interface {
	Create(ctx context.Context, job *domain.MailJob) error
	// CreatePage inserts one materialization page and runs post inside the
	// same transaction; any failure rolls back the whole page.
	CreatePage(ctx context.Context, jobs []*domain.MailJob, post func(ctx context.Context) error) error
	GetByID(ctx context.Context, id string) (*domain.MailJob, error)
	// ExistingRecipients returns the recipient addresses that already hold a
	// job for the campaign, used to keep materialization idempotent.
	ExistingRecipients(ctx context.Context, campaignID string) (map[string]struct{}, error)
	ListByStatus(ctx context.Context, campaignID string, statuses []domain.Status) ([]domain.MailJob, error)
	DeleteByStatus(ctx context.Context, campaignID string, statuses []domain.Status) (int64, error)
	// ClaimForDelivery bumps the attempt counter iff the job is not yet
	// terminal. It returns (nil, nil) for a job that is already SENT or
	// FAILED, and ErrNotFound for a deleted job.
	ClaimForDelivery(ctx context.Context, id string) (*domain.MailJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	// RequeueFromFailed flips FAILED back to QUEUED; false means the job was
	// not in FAILED state anymore.
	RequeueFromFailed(ctx context.Context, id string) (bool, error)
	StatusCounts(ctx context.Context, campaignID string) ([]StatusCount, error)
	// FindStuckQueued returns jobs that have sat in QUEUED since before the
	// cutoff, so the requeue scanner can republish them.
	FindStuckQueued(ctx context.Context, cutoff time.Time, limit int) ([]domain.MailJob, error)
}

type GormMailJobRepo struct {
	db *gorm.DB
}

func NewGormMailJobRepo(db *gorm.DB) *GormMailJobRepo {
	return &GormMailJobRepo{db: db}
}

func (r *GormMailJobRepo) Create(ctx context.Context, job *domain.MailJob) error {
	model := mailJobModelFromDomain(job)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if job != nil {
		*job = *mailJobModelToDomain(model)
	}
	return nil
}

func (r *GormMailJobRepo) CreatePage(ctx context.Context, jobs []*domain.MailJob, post func(ctx context.Context) error) error {
	models := make([]MailJobModel, 0, len(jobs))
	for _, job := range jobs {
		if model := mailJobModelFromDomain(job); model != nil {
			models = append(models, *model)
		}
	}
	if len(models) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models).Error; err != nil {
			return err
		}
		if post != nil {
			return post(ctx)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := range models {
		if i < len(jobs) && jobs[i] != nil {
			*jobs[i] = *mailJobModelToDomain(&models[i])
		}
	}
	return nil
}

func (r *GormMailJobRepo) GetByID(ctx context.Context, id string) (*domain.MailJob, error) {
	var model MailJobModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return mailJobModelToDomain(&model), nil
}

func (r *GormMailJobRepo) ExistingRecipients(ctx context.Context, campaignID string) (map[string]struct{}, error) {
	var recipients []string
	err := r.db.WithContext(ctx).
		Model(&MailJobModel{}).
		Where("campaign_id = ?", campaignID).
		Pluck("recipient", &recipients).Error
	if err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(recipients))
	for _, recipient := range recipients {
		existing[strings.ToLower(recipient)] = struct{}{}
	}
	return existing, nil
}

func (r *GormMailJobRepo) ListByStatus(ctx context.Context, campaignID string, statuses []domain.Status) ([]domain.MailJob, error) {
	var models []MailJobModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND status IN ?", campaignID, statuses).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	jobs := make([]domain.MailJob, 0, len(models))
	for i := range models {
		jobs = append(jobs, *mailJobModelToDomain(&models[i]))
	}
	return jobs, nil
}

func (r *GormMailJobRepo) DeleteByStatus(ctx context.Context, campaignID string, statuses []domain.Status) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("campaign_id = ? AND status IN ?", campaignID, statuses).
		Delete(&MailJobModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *GormMailJobRepo) ClaimForDelivery(ctx context.Context, id string) (*domain.MailJob, error) {
	claimable := []domain.Status{domain.StatusPending, domain.StatusQueued}

	result := r.db.WithContext(ctx).
		Model(&MailJobModel{}).
		Where("id = ? AND status IN ?", id, claimable).
		Update("attempt_count", gorm.Expr("attempt_count + 1"))
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Either the job is gone or it already reached a terminal state.
		var model MailJobModel
		err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, nil
	}

	var model MailJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return mailJobModelToDomain(&model), nil
}

func (r *GormMailJobRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&MailJobModel{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormMailJobRepo) RequeueFromFailed(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&MailJobModel{}).
		Where("id = ? AND status = ?", id, domain.StatusFailed).
		Update("status", domain.StatusQueued)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormMailJobRepo) StatusCounts(ctx context.Context, campaignID string) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&MailJobModel{}).
		Select("status, COUNT(*) as count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *GormMailJobRepo) FindStuckQueued(ctx context.Context, cutoff time.Time, limit int) ([]domain.MailJob, error) {
	var models []MailJobModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at <= ?", domain.StatusQueued, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	jobs := make([]domain.MailJob, 0, len(models))
	for i := range models {
		jobs = append(jobs, *mailJobModelToDomain(&models[i]))
	}
	return jobs, nil
}
