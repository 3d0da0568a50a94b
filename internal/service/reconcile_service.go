package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"github.com/kursadbilgin/mailflow/internal/queue"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"go.uber.org/zap"
)

// CampaignStats summarizes job status counts for one campaign.
type CampaignStats struct {
	CampaignID string
	Total      int
	Counts     []repository.StatusCount
}

// ReconcileService exposes operator queries and mutations over mail job
// status: listing, purging, and explicit requeue of failed jobs. Every
// operation is scoped to the requesting user's own campaigns.
type ReconcileService struct {
	jobs      repository.MailJobRepository
	campaigns repository.CampaignRepository
	publisher queue.Publisher
	logger    *zap.Logger
}

func NewReconcileService(
	jobs repository.MailJobRepository,
	campaigns repository.CampaignRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*ReconcileService, error) {
	if jobs == nil {
		return nil, fmt.Errorf("mail job repository is required")
	}
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReconcileService{
		jobs:      jobs,
		campaigns: campaigns,
		publisher: publisher,
		logger:    logger,
	}, nil
}

func (s *ReconcileService) authorize(ctx context.Context, campaignID, userID string) error {
	campaign, err := s.campaigns.GetByID(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return err
	}
	if !campaign.OwnedBy(userID) {
		return fmt.Errorf("%w: campaign %s belongs to another user", domain.ErrForbidden, campaignID)
	}
	return nil
}

func (s *ReconcileService) ListByStatus(ctx context.Context, campaignID, userID string, statuses []domain.Status) ([]domain.MailJob, error) {
	if len(statuses) == 0 {
		return nil, fmt.Errorf("%w: at least one status is required", domain.ErrValidation)
	}
	if err := s.authorize(ctx, campaignID, userID); err != nil {
		return nil, err
	}
	return s.jobs.ListByStatus(ctx, campaignID, statuses)
}

// DeleteByStatus permanently removes matching jobs. It does not retract
// deliveries already in flight; the delivery claim treats a deleted job as
// a skip.
func (s *ReconcileService) DeleteByStatus(ctx context.Context, campaignID, userID string, statuses []domain.Status) (int64, error) {
	if len(statuses) == 0 {
		return 0, fmt.Errorf("%w: at least one status is required", domain.ErrValidation)
	}
	if err := s.authorize(ctx, campaignID, userID); err != nil {
		return 0, err
	}

	deleted, err := s.jobs.DeleteByStatus(ctx, campaignID, statuses)
	if err != nil {
		return 0, err
	}

	s.logger.Info("mail jobs purged",
		zap.String("campaignId", campaignID),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}

// RequeueFailed republishes every FAILED job of the campaign and flips it
// back to QUEUED. The publish happens first: a message for a still-FAILED
// job is acked harmlessly by the delivery claim, while a QUEUED job with no
// message would be stranded.
func (s *ReconcileService) RequeueFailed(ctx context.Context, campaignID, userID string) (int, error) {
	if err := s.authorize(ctx, campaignID, userID); err != nil {
		return 0, err
	}

	failed, err := s.jobs.ListByStatus(ctx, campaignID, []domain.Status{domain.StatusFailed})
	if err != nil {
		return 0, err
	}

	requeued := 0
	for i := range failed {
		job := failed[i]
		msg := queue.MailMessage{
			JobID:   job.ID,
			Subject: job.Subject,
			Body:    job.Body,
			Sender:  job.Sender,
			To:      job.Recipient,
		}
		if err := s.publisher.Publish(ctx, queue.MailQueue, msg); err != nil {
			s.logger.Error("failed to republish mail job",
				zap.String("jobId", job.ID),
				zap.Error(err),
			)
			continue
		}

		flipped, err := s.jobs.RequeueFromFailed(ctx, job.ID)
		if err != nil {
			s.logger.Error("failed to requeue mail job",
				zap.String("jobId", job.ID),
				zap.Error(err),
			)
			continue
		}
		if flipped {
			requeued++
		}
	}

	s.logger.Info("failed mail jobs requeued",
		zap.String("campaignId", campaignID),
		zap.Int("requeued", requeued),
		zap.Int("failed", len(failed)),
	)
	return requeued, nil
}

func (s *ReconcileService) Stats(ctx context.Context, campaignID, userID string) (*CampaignStats, error) {
	if err := s.authorize(ctx, campaignID, userID); err != nil {
		return nil, err
	}

	counts, err := s.jobs.StatusCounts(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	stats := &CampaignStats{CampaignID: campaignID, Counts: counts}
	for _, count := range counts {
		stats.Total += count.Count
	}
	return stats, nil
}
