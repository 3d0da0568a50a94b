package service

import (
	"context"
	"time"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"github.com/kursadbilgin/mailflow/internal/mailer"
	"github.com/kursadbilgin/mailflow/internal/queue"
	"github.com/kursadbilgin/mailflow/internal/repository"
)

type fakeMailJobRepo struct {
	createFn             func(ctx context.Context, job *domain.MailJob) error
	createPageFn         func(ctx context.Context, jobs []*domain.MailJob, post func(ctx context.Context) error) error
	getByIDFn            func(ctx context.Context, id string) (*domain.MailJob, error)
	existingRecipientsFn func(ctx context.Context, campaignID string) (map[string]struct{}, error)
	listByStatusFn       func(ctx context.Context, campaignID string, statuses []domain.Status) ([]domain.MailJob, error)
	deleteByStatusFn     func(ctx context.Context, campaignID string, statuses []domain.Status) (int64, error)
	claimForDeliveryFn   func(ctx context.Context, id string) (*domain.MailJob, error)
	updateStatusFn       func(ctx context.Context, id string, status domain.Status) error
	requeueFromFailedFn  func(ctx context.Context, id string) (bool, error)
	statusCountsFn       func(ctx context.Context, campaignID string) ([]repository.StatusCount, error)
	findStuckQueuedFn    func(ctx context.Context, cutoff time.Time, limit int) ([]domain.MailJob, error)
}

func (f *fakeMailJobRepo) Create(ctx context.Context, job *domain.MailJob) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, job)
}

func (f *fakeMailJobRepo) CreatePage(ctx context.Context, jobs []*domain.MailJob, post func(ctx context.Context) error) error {
	if f.createPageFn == nil {
		if post != nil {
			return post(ctx)
		}
		return nil
	}
	return f.createPageFn(ctx, jobs, post)
}

func (f *fakeMailJobRepo) GetByID(ctx context.Context, id string) (*domain.MailJob, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeMailJobRepo) ExistingRecipients(ctx context.Context, campaignID string) (map[string]struct{}, error) {
	if f.existingRecipientsFn == nil {
		return map[string]struct{}{}, nil
	}
	return f.existingRecipientsFn(ctx, campaignID)
}

func (f *fakeMailJobRepo) ListByStatus(ctx context.Context, campaignID string, statuses []domain.Status) ([]domain.MailJob, error) {
	if f.listByStatusFn == nil {
		return nil, nil
	}
	return f.listByStatusFn(ctx, campaignID, statuses)
}

func (f *fakeMailJobRepo) DeleteByStatus(ctx context.Context, campaignID string, statuses []domain.Status) (int64, error) {
	if f.deleteByStatusFn == nil {
		return 0, nil
	}
	return f.deleteByStatusFn(ctx, campaignID, statuses)
}

func (f *fakeMailJobRepo) ClaimForDelivery(ctx context.Context, id string) (*domain.MailJob, error) {
	if f.claimForDeliveryFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.claimForDeliveryFn(ctx, id)
}

func (f *fakeMailJobRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	if f.updateStatusFn == nil {
		return nil
	}
	return f.updateStatusFn(ctx, id, status)
}

func (f *fakeMailJobRepo) RequeueFromFailed(ctx context.Context, id string) (bool, error) {
	if f.requeueFromFailedFn == nil {
		return false, nil
	}
	return f.requeueFromFailedFn(ctx, id)
}

func (f *fakeMailJobRepo) StatusCounts(ctx context.Context, campaignID string) ([]repository.StatusCount, error) {
	if f.statusCountsFn == nil {
		return nil, nil
	}
	return f.statusCountsFn(ctx, campaignID)
}

func (f *fakeMailJobRepo) FindStuckQueued(ctx context.Context, cutoff time.Time, limit int) ([]domain.MailJob, error) {
	if f.findStuckQueuedFn == nil {
		return nil, nil
	}
	return f.findStuckQueuedFn(ctx, cutoff, limit)
}

type fakeCampaignRepo struct {
	createFn       func(ctx context.Context, c *domain.Campaign) error
	getByIDFn      func(ctx context.Context, id string) (*domain.Campaign, error)
	updateStatusFn func(ctx context.Context, id string, from, to domain.CampaignStatus) error
}

func (f *fakeCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, c)
}

func (f *fakeCampaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeCampaignRepo) UpdateStatus(ctx context.Context, id string, from, to domain.CampaignStatus) error {
	if f.updateStatusFn == nil {
		return nil
	}
	return f.updateStatusFn(ctx, id, from, to)
}

type fakeAttachmentRepo struct {
	createFn     func(ctx context.Context, att *domain.Attachment) error
	listForJobFn func(ctx context.Context, campaignID *string, jobID string) ([]domain.Attachment, error)
}

func (f *fakeAttachmentRepo) Create(ctx context.Context, att *domain.Attachment) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, att)
}

func (f *fakeAttachmentRepo) ListForJob(ctx context.Context, campaignID *string, jobID string) ([]domain.Attachment, error) {
	if f.listForJobFn == nil {
		return nil, nil
	}
	return f.listForJobFn(ctx, campaignID, jobID)
}

type fakeCredentialStore struct {
	resolveFn func(ctx context.Context, userID string) (domain.SMTPTransportParams, error)
}

func (f *fakeCredentialStore) Resolve(ctx context.Context, userID string) (domain.SMTPTransportParams, error) {
	if f.resolveFn == nil {
		return domain.SMTPTransportParams{
			Host:     "smtp.example.com",
			Port:     587,
			Username: "sender@example.com",
			Password: "secret",
			UseTLS:   true,
		}, nil
	}
	return f.resolveFn(ctx, userID)
}

type fakeResolver struct {
	resolveFn func(ctx context.Context, campaignID string) ([]string, error)
}

func (f *fakeResolver) ResolveRecipients(ctx context.Context, campaignID string) ([]string, error) {
	if f.resolveFn == nil {
		return nil, nil
	}
	return f.resolveFn(ctx, campaignID)
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.MailMessage) error
	published []queue.MailMessage
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.MailMessage) error {
	if f.publishFn != nil {
		if err := f.publishFn(ctx, queueName, msg); err != nil {
			return err
		}
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queueName string, handler queue.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn == nil {
		<-ctx.Done()
		return nil
	}
	return f.consumeFn(ctx, queueName, handler)
}

func (f *fakeConsumer) Close() error { return nil }

type fakeTransport struct {
	sendFn func(ctx context.Context, params domain.SMTPTransportParams, mail mailer.Mail) error
	sent   []mailer.Mail
}

func (f *fakeTransport) Send(ctx context.Context, params domain.SMTPTransportParams, mail mailer.Mail) error {
	if f.sendFn != nil {
		if err := f.sendFn(ctx, params, mail); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, mail)
	return nil
}

type fakeRateLimiter struct {
	waitFn func(ctx context.Context, key string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, key string) error {
	if f.waitFn == nil {
		return nil
	}
	return f.waitFn(ctx, key)
}
