package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"github.com/kursadbilgin/mailflow/internal/mailer"
	"github.com/kursadbilgin/mailflow/internal/observability"
	"github.com/kursadbilgin/mailflow/internal/queue"
	"github.com/kursadbilgin/mailflow/internal/ratelimit"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minWorkerConcurrency = 1

// deliveryOutcome is the explicit result of one send attempt. The job
// status write happens in exactly one place regardless of which branch
// produced the outcome.
type deliveryOutcome struct {
	err    error
	reason string
}

func (o deliveryOutcome) sent() bool { return o.err == nil }

// DeliveryService consumes the mail queue and sends each job through the
// owning user's SMTP transport.
type DeliveryService struct {
	jobs        repository.MailJobRepository
	attachments repository.AttachmentRepository
	credentials CredentialStore
	consumer    queue.Consumer
	transport   mailer.Transport
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
}

func NewDeliveryService(
	jobs repository.MailJobRepository,
	attachments repository.AttachmentRepository,
	credentials CredentialStore,
	consumer queue.Consumer,
	transport mailer.Transport,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	logger *zap.Logger,
) (*DeliveryService, error) {
	if jobs == nil {
		return nil, fmt.Errorf("mail job repository is required")
	}
	if attachments == nil {
		return nil, fmt.Errorf("attachment repository is required")
	}
	if credentials == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if rateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeliveryService{
		jobs:        jobs,
		attachments: attachments,
		credentials: credentials,
		consumer:    consumer,
		transport:   transport,
		rateLimiter: rateLimiter,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (s *DeliveryService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Start consumes the mail queue until context cancellation.
func (s *DeliveryService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("delivery worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queue.MailQueue),
			)

			err := s.consumer.Consume(groupCtx, queue.MailQueue, s.processMessage)
			if err != nil {
				s.logger.Error("delivery worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("delivery worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

func (s *DeliveryService) processMessage(ctx context.Context, msg queue.MailMessage) error {
	job, err := s.jobs.ClaimForDelivery(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("mail job deleted before delivery, skipping",
				zap.String("jobId", msg.JobID),
			)
			return nil
		}
		return fmt.Errorf("failed to claim mail job: %w", err)
	}

	// Nil means the job already reached SENT or FAILED; ack the
	// redelivery without touching the transport.
	if job == nil {
		return nil
	}

	if s.metrics != nil {
		s.metrics.IncWorkerInFlight()
		defer s.metrics.DecWorkerInFlight()
	}

	if err := s.rateLimiter.Wait(ctx, job.UserID); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	sendStart := s.now()
	outcome := s.attemptDelivery(ctx, job)
	if s.metrics != nil {
		s.metrics.ObserveSendDuration(s.now().Sub(sendStart))
	}

	return s.finalize(ctx, job.ID, outcome)
}

// attemptDelivery resolves credentials and attachments from the job record
// and drives one SMTP send. It never writes job state.
func (s *DeliveryService) attemptDelivery(ctx context.Context, job *domain.MailJob) deliveryOutcome {
	params, err := s.credentials.Resolve(ctx, job.UserID)
	if err != nil {
		return deliveryOutcome{err: err, reason: "credential_missing"}
	}

	attachments, err := s.attachments.ListForJob(ctx, job.CampaignID, job.ID)
	if err != nil {
		return deliveryOutcome{err: err, reason: "attachment_lookup"}
	}

	mail := mailer.Mail{
		Sender:  job.Sender,
		To:      job.Recipient,
		Subject: job.Subject,
		Body:    job.Body,
	}
	for _, attachment := range attachments {
		mail.Attachments = append(mail.Attachments, mailer.Attachment{
			FileName: attachment.FileName,
			FilePath: attachment.FilePath,
		})
	}

	if err := s.transport.Send(ctx, params, mail); err != nil {
		reason := "permanent_error"
		if mailer.IsTransient(err) {
			reason = "transient_error"
		}
		return deliveryOutcome{err: err, reason: reason}
	}

	return deliveryOutcome{}
}

// finalize re-fetches the job and writes the terminal status. The re-fetch
// keeps a concurrent external mutation from being overwritten blindly.
func (s *DeliveryService) finalize(ctx context.Context, jobID string, outcome deliveryOutcome) error {
	fresh, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("mail job deleted during delivery",
				zap.String("jobId", jobID),
			)
			return nil
		}
		return fmt.Errorf("failed to re-fetch mail job: %w", err)
	}
	if fresh.Status.IsTerminal() {
		return nil
	}

	if outcome.sent() {
		if err := s.jobs.UpdateStatus(ctx, jobID, domain.StatusSent); err != nil {
			return fmt.Errorf("failed to mark mail job sent: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncMailSent()
		}
		return nil
	}

	if err := s.jobs.UpdateStatus(ctx, jobID, domain.StatusFailed); err != nil {
		return fmt.Errorf("failed to mark mail job failed: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IncMailFailed(outcome.reason)
	}

	s.logger.Warn("mail delivery failed",
		zap.String("jobId", jobID),
		zap.String("reason", outcome.reason),
		zap.Error(outcome.err),
	)

	// Re-signal the failure so the queue's own retry policy can decide
	// whether to redeliver; a redelivered terminal job is acked by the
	// claim check.
	return outcome.err
}
