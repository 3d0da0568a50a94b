package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"github.com/kursadbilgin/mailflow/internal/queue"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultScanInterval = 30 * time.Second
	defaultStaleAfter   = 5 * time.Minute
	defaultScanLimit    = 100
)

// RequeueScanner republishes jobs that have sat in QUEUED past the stale
// cutoff. A job committed to storage whose broker message was lost (broker
// restart, publish raced a crash) is picked up here, which gives the queue
// its at-least-once guarantee across process restarts. Duplicate messages
// for a live job are harmless: the delivery claim acks them.
type RequeueScanner struct {
	jobs       repository.MailJobRepository
	publisher  queue.Publisher
	logger     *zap.Logger
	interval   time.Duration
	staleAfter time.Duration
	limit      int
	now        func() time.Time
}

func NewRequeueScanner(
	jobs repository.MailJobRepository,
	publisher queue.Publisher,
	interval time.Duration,
	staleAfter time.Duration,
	limit int,
	logger *zap.Logger,
) (*RequeueScanner, error) {
	if jobs == nil {
		return nil, fmt.Errorf("mail job repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultScanInterval
	}
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	if limit <= 0 {
		limit = defaultScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RequeueScanner{
		jobs:       jobs,
		publisher:  publisher,
		logger:     logger,
		interval:   interval,
		staleAfter: staleAfter,
		limit:      limit,
		now:        time.Now,
	}, nil
}

func (s *RequeueScanner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial scan so jobs stranded before startup do not wait for
	// the first ticker edge.
	if err := s.scanStuck(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("requeue scanner initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scanStuck(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("requeue scanner scan failed", zap.Error(err))
			}
		}
	}
}

func (s *RequeueScanner) scanStuck(ctx context.Context) error {
	cutoff := s.now().Add(-s.staleAfter)
	stuck, err := s.jobs.FindStuckQueued(ctx, cutoff, s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch stuck mail jobs: %w", err)
	}

	for i := range stuck {
		job := stuck[i]
		msg := queue.MailMessage{
			JobID:   job.ID,
			Subject: job.Subject,
			Body:    job.Body,
			Sender:  job.Sender,
			To:      job.Recipient,
		}

		if err := s.publisher.Publish(ctx, queue.MailQueue, msg); err != nil {
			s.logger.Error("failed to republish stuck mail job",
				zap.String("jobId", job.ID),
				zap.Error(err),
			)
			continue
		}

		// Touch the row so the next scan does not pick it up again
		// before the redelivery had a chance to run.
		if err := s.jobs.UpdateStatus(ctx, job.ID, domain.StatusQueued); err != nil {
			s.logger.Error("failed to touch requeued mail job",
				zap.String("jobId", job.ID),
				zap.Error(err),
			)
			continue
		}
	}

	return nil
}
