package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kursadbilgin/mailflow/internal/domain"
	"gorm.io/gorm"
)

type fakeSubscriberRepo struct {
	createListFn    func(ctx context.Context, list *domain.MailList) error
	addSubscriberFn func(ctx context.Context, sub *domain.Subscriber) error
	resolveFn       func(ctx context.Context, campaignID string) ([]string, error)
	recordBounceFn  func(ctx context.Context, address string) error
}

func (f *fakeSubscriberRepo) CreateList(ctx context.Context, list *domain.MailList) error {
	if f.createListFn == nil {
		return nil
	}
	return f.createListFn(ctx, list)
}

func (f *fakeSubscriberRepo) AddSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	if f.addSubscriberFn == nil {
		return nil
	}
	return f.addSubscriberFn(ctx, sub)
}

func (f *fakeSubscriberRepo) ResolveRecipients(ctx context.Context, campaignID string) ([]string, error) {
	if f.resolveFn == nil {
		return nil, nil
	}
	return f.resolveFn(ctx, campaignID)
}

func (f *fakeSubscriberRepo) RecordBounce(ctx context.Context, address string) error {
	if f.recordBounceFn == nil {
		return nil
	}
	return f.recordBounceFn(ctx, address)
}

func TestAudienceService_AddSubscriberNormalizesAddress(t *testing.T) {
	t.Parallel()

	var persisted *domain.Subscriber
	repo := &fakeSubscriberRepo{
		addSubscriberFn: func(ctx context.Context, sub *domain.Subscriber) error {
			persisted = sub
			return nil
		},
	}
	svc, err := NewAudienceService(repo, nil)
	if err != nil {
		t.Fatalf("NewAudienceService() error = %v", err)
	}

	created, err := svc.AddSubscriber(context.Background(), &domain.Subscriber{
		MailListID: "list-1",
		Address:    "  Alice@Example.COM ",
	})
	if err != nil {
		t.Fatalf("AddSubscriber() error = %v", err)
	}
	if created.Address != "alice@example.com" {
		t.Fatalf("address = %q, want lowercased and trimmed", created.Address)
	}
	if created.ID == "" {
		t.Fatal("AddSubscriber() should assign an id")
	}
	if persisted == nil {
		t.Fatal("subscriber was not persisted")
	}
}

func TestAudienceService_AddSubscriberDuplicateIsConflict(t *testing.T) {
	t.Parallel()

	repo := &fakeSubscriberRepo{
		addSubscriberFn: func(ctx context.Context, sub *domain.Subscriber) error {
			return gorm.ErrDuplicatedKey
		},
	}
	svc, err := NewAudienceService(repo, nil)
	if err != nil {
		t.Fatalf("NewAudienceService() error = %v", err)
	}

	_, err = svc.AddSubscriber(context.Background(), &domain.Subscriber{
		MailListID: "list-1",
		Address:    "alice@example.com",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("AddSubscriber() error = %v, want ErrConflict", err)
	}
}

func TestAudienceService_RecordBounceRequiresAddress(t *testing.T) {
	t.Parallel()

	svc, err := NewAudienceService(&fakeSubscriberRepo{}, nil)
	if err != nil {
		t.Fatalf("NewAudienceService() error = %v", err)
	}

	if err := svc.RecordBounce(context.Background(), "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("RecordBounce() error = %v, want ErrValidation", err)
	}

	var recorded string
	svc, err = NewAudienceService(&fakeSubscriberRepo{
		recordBounceFn: func(ctx context.Context, address string) error {
			recorded = address
			return nil
		},
	}, nil)
	if err != nil {
		t.Fatalf("NewAudienceService() error = %v", err)
	}

	if err := svc.RecordBounce(context.Background(), " Gone@Example.com "); err != nil {
		t.Fatalf("RecordBounce() error = %v", err)
	}
	if recorded != "gone@example.com" {
		t.Fatalf("recorded = %q, want normalized address", recorded)
	}
}
