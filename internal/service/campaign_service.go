package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kursadbilgin/mailflow/internal/domain"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"go.uber.org/zap"
)

// CampaignService owns the campaign lifecycle: creation and the
// forward-only DRAFT -> ACTIVE -> COMPLETED transitions.
type CampaignService struct {
	campaigns repository.CampaignRepository
	logger    *zap.Logger
}

func NewCampaignService(campaigns repository.CampaignRepository, logger *zap.Logger) (*CampaignService, error) {
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CampaignService{
		campaigns: campaigns,
		logger:    logger,
	}, nil
}

func (s *CampaignService) Create(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	if campaign == nil {
		return nil, fmt.Errorf("%w: campaign is required", domain.ErrValidation)
	}

	campaign.ID = strings.TrimSpace(campaign.ID)
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	campaign.Name = strings.TrimSpace(campaign.Name)
	campaign.Subject = strings.TrimSpace(campaign.Subject)
	campaign.Status = domain.CampaignStatusDraft

	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *CampaignService) GetByID(ctx context.Context, id, userID string) (*domain.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if !campaign.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: campaign %s belongs to another user", domain.ErrForbidden, id)
	}
	return campaign, nil
}

// Activate moves a DRAFT campaign to ACTIVE.
func (s *CampaignService) Activate(ctx context.Context, id, userID string) error {
	return s.transition(ctx, id, userID, domain.CampaignStatusDraft, domain.CampaignStatusActive)
}

// Complete moves an ACTIVE campaign to COMPLETED.
func (s *CampaignService) Complete(ctx context.Context, id, userID string) error {
	return s.transition(ctx, id, userID, domain.CampaignStatusActive, domain.CampaignStatusCompleted)
}

func (s *CampaignService) transition(ctx context.Context, id, userID string, from, to domain.CampaignStatus) error {
	campaign, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}

	if !campaign.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: campaign %s cannot move from %s to %s", domain.ErrConflict, id, campaign.Status, to)
	}

	if err := s.campaigns.UpdateStatus(ctx, campaign.ID, from, to); err != nil {
		return err
	}

	s.logger.Info("campaign status changed",
		zap.String("campaignId", campaign.ID),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	return nil
}
