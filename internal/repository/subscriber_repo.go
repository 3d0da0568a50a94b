package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"gorm.io/gorm"
)

type SubscriberRepository interface {
	CreateList(ctx context.Context, list *domain.MailList) error
	AddSubscriber(ctx context.Context, sub *domain.Subscriber) error
	// ResolveRecipients returns the deduplicated, active-only addresses of
	// every active mail list the campaign references, in deterministic order.
	ResolveRecipients(ctx context.Context, campaignID string) ([]string, error)
	// RecordBounce increments the bounce counter for an address and
	// deactivates it at the bounce threshold.
	RecordBounce(ctx context.Context, address string) error
}

type GormSubscriberRepo struct {
	db *gorm.DB
}

func NewGormSubscriberRepo(db *gorm.DB) *GormSubscriberRepo {
	return &GormSubscriberRepo{db: db}
}

func (r *GormSubscriberRepo) CreateList(ctx context.Context, list *domain.MailList) error {
	model := mailListModelFromDomain(list)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if list != nil {
		list.CreatedAt = model.CreatedAt
		list.UpdatedAt = model.UpdatedAt
	}
	return nil
}

func (r *GormSubscriberRepo) AddSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	if sub != nil {
		sub.Address = strings.ToLower(strings.TrimSpace(sub.Address))
	}
	model := subscriberModelFromDomain(sub)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if sub != nil {
		sub.CreatedAt = model.CreatedAt
		sub.UpdatedAt = model.UpdatedAt
	}
	return nil
}

func (r *GormSubscriberRepo) ResolveRecipients(ctx context.Context, campaignID string) ([]string, error) {
	var addresses []string
	err := r.db.WithContext(ctx).
		Model(&SubscriberModel{}).
		Distinct("LOWER(subscribers.address)").
		Joins("JOIN campaign_mail_lists ON campaign_mail_lists.mail_list_id = subscribers.mail_list_id").
		Joins("JOIN mail_lists ON mail_lists.id = subscribers.mail_list_id").
		Where("campaign_mail_lists.campaign_id = ?", campaignID).
		Where("subscribers.is_active = ?", true).
		Where("mail_lists.is_active = ?", true).
		Order("LOWER(subscribers.address) ASC").
		Pluck("LOWER(subscribers.address)", &addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *GormSubscriberRepo) RecordBounce(ctx context.Context, address string) error {
	address = strings.ToLower(strings.TrimSpace(address))

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var models []SubscriberModel
		if err := tx.Where("LOWER(address) = ?", address).Find(&models).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return domain.ErrNotFound
		}

		for i := range models {
			sub := domain.Subscriber{
				IsActive:    models[i].IsActive,
				BounceCount: models[i].BounceCount,
			}
			sub.RecordBounce()

			err := tx.Model(&SubscriberModel{}).
				Where("id = ?", models[i].ID).
				Updates(map[string]any{
					"bounce_count": sub.BounceCount,
					"is_active":    sub.IsActive,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

var _ SubscriberRepository = (*GormSubscriberRepo)(nil)

// IsUniqueViolation reports whether an insert failed on a unique index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
