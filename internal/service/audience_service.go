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

// AudienceService manages mail lists and their subscribers. The dispatch
// core never mutates subscription state; bounce recording is the only
// write path and it is driven by operator feedback, not delivery.
type AudienceService struct {
	subscribers repository.SubscriberRepository
	logger      *zap.Logger
}

func NewAudienceService(subscribers repository.SubscriberRepository, logger *zap.Logger) (*AudienceService, error) {
	if subscribers == nil {
		return nil, fmt.Errorf("subscriber repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AudienceService{
		subscribers: subscribers,
		logger:      logger,
	}, nil
}

func (s *AudienceService) CreateList(ctx context.Context, list *domain.MailList) (*domain.MailList, error) {
	if list == nil {
		return nil, fmt.Errorf("%w: mail list is required", domain.ErrValidation)
	}

	list.ID = strings.TrimSpace(list.ID)
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	list.Name = strings.TrimSpace(list.Name)
	list.IsActive = true

	if err := list.Validate(); err != nil {
		return nil, err
	}

	if err := s.subscribers.CreateList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *AudienceService) AddSubscriber(ctx context.Context, sub *domain.Subscriber) (*domain.Subscriber, error) {
	if sub == nil {
		return nil, fmt.Errorf("%w: subscriber is required", domain.ErrValidation)
	}

	sub.ID = strings.TrimSpace(sub.ID)
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.Address = strings.ToLower(strings.TrimSpace(sub.Address))
	sub.IsActive = true

	if err := sub.Validate(); err != nil {
		return nil, err
	}

	if err := s.subscribers.AddSubscriber(ctx, sub); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: subscriber %s already on list", domain.ErrConflict, sub.Address)
		}
		return nil, err
	}
	return sub, nil
}

func (s *AudienceService) RecordBounce(ctx context.Context, address string) error {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return fmt.Errorf("%w: address is required", domain.ErrValidation)
	}

	if err := s.subscribers.RecordBounce(ctx, address); err != nil {
		return err
	}

	s.logger.Info("bounce recorded", zap.String("address", address))
	return nil
}
