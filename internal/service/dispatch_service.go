package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kursadbilgin/mailflow/internal/domain"
	"github.com/kursadbilgin/mailflow/internal/observability"
	"github.com/kursadbilgin/mailflow/internal/queue"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"go.uber.org/zap"
)

// dispatchPageSize bounds the per-transaction job count during
// materialization.
const dispatchPageSize = 100

// RecipientResolver produces the deduplicated, subscription-filtered
// address set for a campaign.
type RecipientResolver interface {
	ResolveRecipients(ctx context.Context, campaignID string) ([]string, error)
}

// DispatchResult is the aggregate outcome reported to the caller.
type DispatchResult struct {
	CampaignID string
	Queued     int
	Skipped    int
}

// DispatchService materializes a campaign into mail jobs and enqueues them.
type DispatchService struct {
	jobs        repository.MailJobRepository
	campaigns   repository.CampaignRepository
	resolver    RecipientResolver
	credentials CredentialStore
	publisher   queue.Publisher
	logger      *zap.Logger
	metrics     *observability.Metrics
	pageSize    int
}

func NewDispatchService(
	jobs repository.MailJobRepository,
	campaigns repository.CampaignRepository,
	resolver RecipientResolver,
	credentials CredentialStore,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*DispatchService, error) {
	if jobs == nil {
		return nil, fmt.Errorf("mail job repository is required")
	}
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("recipient resolver is required")
	}
	if credentials == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispatchService{
		jobs:        jobs,
		campaigns:   campaigns,
		resolver:    resolver,
		credentials: credentials,
		publisher:   publisher,
		logger:      logger,
		pageSize:    dispatchPageSize,
	}, nil
}

func (s *DispatchService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Dispatch expands the campaign into one QUEUED job per resolved recipient
// and publishes each to the mail queue. Recipients are processed in pages;
// a page's inserts and publishes commit or roll back together, and a page
// failure leaves earlier pages committed. Recipients that already hold a
// job for the campaign are skipped unless resend is set.
func (s *DispatchService) Dispatch(ctx context.Context, campaignID, userID string, resend bool) (*DispatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, fmt.Errorf("%w: campaign id is required", domain.ErrValidation)
	}

	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: campaign %s belongs to another user", domain.ErrForbidden, campaignID)
	}
	if campaign.Status == domain.CampaignStatusCompleted {
		return nil, fmt.Errorf("%w: campaign %s is completed", domain.ErrConflict, campaignID)
	}

	// Sender identity derives from the credential, so a user without SMTP
	// credentials cannot be dispatched for at all.
	params, err := s.credentials.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	sender := params.Username

	recipients, err := s.resolver.ResolveRecipients(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{CampaignID: campaignID}
	if len(recipients) == 0 {
		return result, nil
	}

	if !resend {
		existing, err := s.jobs.ExistingRecipients(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		filtered := recipients[:0]
		for _, recipient := range recipients {
			if _, ok := existing[strings.ToLower(recipient)]; ok {
				result.Skipped++
				continue
			}
			filtered = append(filtered, recipient)
		}
		recipients = filtered
	}

	total := len(recipients)
	for start := 0; start < total; start += s.pageSize {
		end := min(start+s.pageSize, total)

		page := make([]*domain.MailJob, 0, end-start)
		for _, recipient := range recipients[start:end] {
			job := &domain.MailJob{
				ID:         uuid.NewString(),
				UserID:     userID,
				CampaignID: &campaignID,
				Sender:     sender,
				Recipient:  recipient,
				Subject:    campaign.Subject,
				Body:       campaign.Body,
				Status:     domain.StatusQueued,
			}
			if err := job.Validate(); err != nil {
				return result, fmt.Errorf("dispatch stopped after %d of %d recipients queued: %w", result.Queued, total, err)
			}
			page = append(page, job)
		}

		err := s.jobs.CreatePage(ctx, page, func(ctx context.Context) error {
			for _, job := range page {
				msg := queue.MailMessage{
					JobID:   job.ID,
					Subject: job.Subject,
					Body:    job.Body,
					Sender:  job.Sender,
					To:      job.Recipient,
				}
				if err := s.publisher.Publish(ctx, queue.MailQueue, msg); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("dispatch page failed",
				zap.String("campaignId", campaignID),
				zap.Int("queued", result.Queued),
				zap.Int("total", total),
				zap.Error(err),
			)
			return result, fmt.Errorf("dispatch stopped after %d of %d recipients queued: %w", result.Queued, total, err)
		}

		result.Queued += len(page)
		if s.metrics != nil {
			s.metrics.AddMailsQueued(len(page))
		}
	}

	s.logger.Info("campaign dispatched",
		zap.String("campaignId", campaignID),
		zap.Int("queued", result.Queued),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
