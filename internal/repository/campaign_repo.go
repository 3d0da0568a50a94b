package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"gorm.io/gorm"
)

type CampaignRepository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	// UpdateStatus is a compare-and-set on the campaign lifecycle; it
	// returns ErrConflict when the campaign left the expected state.
	UpdateStatus(ctx context.Context, id string, from, to domain.CampaignStatus) error
}

type GormCampaignRepo struct {
	db *gorm.DB
}

func NewGormCampaignRepo(db *gorm.DB) *GormCampaignRepo {
	return &GormCampaignRepo{db: db}
}

func (r *GormCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	model := campaignModelFromDomain(c)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}

		if len(c.MailListIDs) == 0 {
			return nil
		}
		joins := make([]CampaignMailListModel, 0, len(c.MailListIDs))
		for _, listID := range c.MailListIDs {
			joins = append(joins, CampaignMailListModel{
				CampaignID: model.ID,
				MailListID: listID,
			})
		}
		return tx.Create(&joins).Error
	})
	if err != nil {
		return err
	}

	if c != nil {
		*c = *campaignModelToDomain(model, c.MailListIDs)
	}
	return nil
}

func (r *GormCampaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var listIDs []string
	err = r.db.WithContext(ctx).
		Model(&CampaignMailListModel{}).
		Where("campaign_id = ?", id).
		Pluck("mail_list_id", &listIDs).Error
	if err != nil {
		return nil, err
	}

	return campaignModelToDomain(&model, listIDs), nil
}

func (r *GormCampaignRepo) UpdateStatus(ctx context.Context, id string, from, to domain.CampaignStatus) error {
	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var model CampaignModel
		err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		return domain.ErrConflict
	}
	return nil
}
