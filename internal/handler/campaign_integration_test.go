package handler

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/mailflow/internal/domain"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"github.com/kursadbilgin/mailflow/internal/service"
	"github.com/kursadbilgin/mailflow/internal/transport"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestCampaignIntegration_CreateCampaign(t *testing.T) {
	t.Parallel()

	campaigns := &stubCampaignService{
		createFn: func(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
			if campaign.UserID != "user-1" {
				t.Fatalf("UserID = %q, want user-1", campaign.UserID)
			}
			campaign.ID = "c-created"
			campaign.Status = domain.CampaignStatusDraft
			return campaign, nil
		},
	}

	app := newCampaignTestApp(t, campaigns, &stubDispatchService{}, &stubReconcileService{})

	validBody := `{"name":"spring sale","subject":"Hello","body":"<p>hi</p>","mailListIds":["list-1"]}`
	resp, body := performRequest(t, app, http.MethodPost, "/v1/campaigns", validBody, "user-1")
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", resp.StatusCode, string(body))
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["id"] != "c-created" {
		t.Fatalf("id = %v, want c-created", parsed["id"])
	}
	if parsed["status"] != domain.CampaignStatusDraft.String() {
		t.Fatalf("status = %v, want %s", parsed["status"], domain.CampaignStatusDraft.String())
	}

	resp, _ = performRequest(t, app, http.MethodPost, "/v1/campaigns", validBody, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing user header", resp.StatusCode)
	}
}

func TestCampaignIntegration_GetCampaignOwnership(t *testing.T) {
	t.Parallel()

	campaigns := &stubCampaignService{
		getByIDFn: func(ctx context.Context, id, userID string) (*domain.Campaign, error) {
			if id != "c-1" {
				return nil, domain.ErrNotFound
			}
			if userID != "owner" {
				return nil, fmt.Errorf("%w: campaign belongs to another user", domain.ErrForbidden)
			}
			return &domain.Campaign{
				ID:      "c-1",
				UserID:  "owner",
				Name:    "spring sale",
				Subject: "Hello",
				Body:    "<p>hi</p>",
				Status:  domain.CampaignStatusActive,
			}, nil
		},
	}

	app := newCampaignTestApp(t, campaigns, &stubDispatchService{}, &stubReconcileService{})

	resp, _ := performRequest(t, app, http.MethodGet, "/v1/campaigns/c-1", "", "owner")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/campaigns/c-1", "", "intruder")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403 for foreign campaign", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/campaigns/missing", "", "owner")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCampaignIntegration_DispatchCampaign(t *testing.T) {
	t.Parallel()

	dispatch := &stubDispatchService{
		dispatchFn: func(ctx context.Context, campaignID, userID string, resend bool) (*service.DispatchResult, error) {
			switch campaignID {
			case "c-ready":
				if resend {
					t.Fatal("resend should default to false")
				}
				return &service.DispatchResult{CampaignID: "c-ready", Queued: 42, Skipped: 3}, nil
			case "c-no-creds":
				return nil, fmt.Errorf("%w: smtp credentials missing", domain.ErrNotConfigured)
			default:
				return nil, domain.ErrNotFound
			}
		},
	}

	app := newCampaignTestApp(t, &stubCampaignService{}, dispatch, &stubReconcileService{})

	resp, body := performRequest(t, app, http.MethodPost, "/v1/campaigns/c-ready/dispatch", "", "user-1")
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202, body=%s", resp.StatusCode, string(body))
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["queued"] != float64(42) {
		t.Fatalf("queued = %v, want 42", parsed["queued"])
	}
	if parsed["skipped"] != float64(3) {
		t.Fatalf("skipped = %v, want 3", parsed["skipped"])
	}

	resp, _ = performRequest(t, app, http.MethodPost, "/v1/campaigns/c-no-creds/dispatch", "", "user-1")
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 for missing credentials", resp.StatusCode)
	}
}

func TestCampaignIntegration_ListAndDeleteMails(t *testing.T) {
	t.Parallel()

	reconcile := &stubReconcileService{
		listByStatusFn: func(ctx context.Context, campaignID, userID string, statuses []domain.Status) ([]domain.MailJob, error) {
			if len(statuses) != 1 || statuses[0] != domain.StatusFailed {
				t.Fatalf("statuses = %v, want [FAILED]", statuses)
			}
			return []domain.MailJob{
				{ID: "m-1", Recipient: "a@example.com", Status: domain.StatusFailed},
			}, nil
		},
		deleteByStatusFn: func(ctx context.Context, campaignID, userID string, statuses []domain.Status) (int64, error) {
			return 7, nil
		},
	}

	app := newCampaignTestApp(t, &stubCampaignService{}, &stubDispatchService{}, reconcile)

	resp, body := performRequest(t, app, http.MethodGet, "/v1/campaigns/c-1/mails?status=failed", "", "user-1")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var listParsed struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &listParsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(listParsed.Data) != 1 {
		t.Fatalf("data len = %d, want 1", len(listParsed.Data))
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/campaigns/c-1/mails?status=bogus", "", "user-1")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown status", resp.StatusCode)
	}

	resp, body = performRequest(t, app, http.MethodDelete, "/v1/campaigns/c-1/mails?status=failed,sent", "", "user-1")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var deleteParsed map[string]any
	if err := json.Unmarshal(body, &deleteParsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if deleteParsed["deleted"] != float64(7) {
		t.Fatalf("deleted = %v, want 7", deleteParsed["deleted"])
	}

	resp, _ = performRequest(t, app, http.MethodDelete, "/v1/campaigns/c-1/mails", "", "user-1")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 when delete has no status filter", resp.StatusCode)
	}
}

func TestCampaignIntegration_RequeueAndStats(t *testing.T) {
	t.Parallel()

	reconcile := &stubReconcileService{
		requeueFailedFn: func(ctx context.Context, campaignID, userID string) (int, error) {
			return 5, nil
		},
		statsFn: func(ctx context.Context, campaignID, userID string) (*service.CampaignStats, error) {
			return &service.CampaignStats{
				CampaignID: campaignID,
				Total:      10,
				Counts: []repository.StatusCount{
					{Status: domain.StatusSent, Count: 8},
					{Status: domain.StatusFailed, Count: 2},
				},
			}, nil
		},
	}

	app := newCampaignTestApp(t, &stubCampaignService{}, &stubDispatchService{}, reconcile)

	resp, body := performRequest(t, app, http.MethodPost, "/v1/campaigns/c-1/mails/requeue", "", "user-1")
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202, body=%s", resp.StatusCode, string(body))
	}

	var requeueParsed map[string]any
	if err := json.Unmarshal(body, &requeueParsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if requeueParsed["requeued"] != float64(5) {
		t.Fatalf("requeued = %v, want 5", requeueParsed["requeued"])
	}

	resp, body = performRequest(t, app, http.MethodGet, "/v1/campaigns/c-1/stats", "", "user-1")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var statsParsed struct {
		CampaignID string `json:"campaignId"`
		Total      int    `json:"total"`
		Counts     []struct {
			Status string `json:"status"`
			Count  int    `json:"count"`
		} `json:"counts"`
	}
	if err := json.Unmarshal(body, &statsParsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if statsParsed.Total != 10 {
		t.Fatalf("total = %d, want 10", statsParsed.Total)
	}
	if len(statsParsed.Counts) != 2 {
		t.Fatalf("counts len = %d, want 2", len(statsParsed.Counts))
	}
}

func TestCredentialIntegration_SaveCredential(t *testing.T) {
	t.Parallel()

	credentials := &stubCredentialService{
		saveFn: func(ctx context.Context, cred domain.SMTPCredential, password string) (*domain.SMTPCredential, error) {
			if password == "" {
				return nil, fmt.Errorf("%w: password is required", domain.ErrValidation)
			}
			cred.ID = "cred-1"
			cred.Secret = "ciphertext"
			return &cred, nil
		},
	}

	app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
	if err := RegisterCredentialRoutes(app, credentials); err != nil {
		t.Fatalf("RegisterCredentialRoutes() error = %v", err)
	}

	validBody := `{"host":"smtp.example.com","port":587,"username":"me@example.com","password":"hunter2"}`
	resp, body := performRequest(t, app, http.MethodPut, "/v1/credentials", validBody, "user-1")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	if strings.Contains(string(body), "hunter2") || strings.Contains(string(body), "ciphertext") {
		t.Fatalf("response leaks secret material: %s", string(body))
	}

	missingPassword := `{"host":"smtp.example.com","port":587,"username":"me@example.com"}`
	resp, _ = performRequest(t, app, http.MethodPut, "/v1/credentials", missingPassword, "user-1")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing password", resp.StatusCode)
	}
}

func TestAudienceIntegration_BounceWebhook(t *testing.T) {
	t.Parallel()

	audience := &stubAudienceService{
		recordBounceFn: func(ctx context.Context, address string) error {
			if address != "gone@example.com" {
				return domain.ErrNotFound
			}
			return nil
		},
	}

	app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
	if err := RegisterAudienceRoutes(app, audience); err != nil {
		t.Fatalf("RegisterAudienceRoutes() error = %v", err)
	}

	resp, _ := performRequest(t, app, http.MethodPost, "/v1/bounces", `{"address":"gone@example.com"}`, "")
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodPost, "/v1/bounces", `{"address":""}`, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for empty address", resp.StatusCode)
	}
}

func TestHealthIntegration_LivezAndReadyz(t *testing.T) {
	t.Parallel()

	t.Run("livez returns 200", func(t *testing.T) {
		t.Parallel()

		app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app, sql.OpenDB(stubConnector{}), newStubRedisClient(nil))

		resp, body := performRequest(t, app, http.MethodGet, "/livez", "", "")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("readyz returns 503 when dependencies down", func(t *testing.T) {
		t.Parallel()

		sqlDB := sql.OpenDB(stubConnector{pingErr: errors.New("postgres down")})
		t.Cleanup(func() { _ = sqlDB.Close() })

		rdb := newStubRedisClient(errors.New("redis down"))
		t.Cleanup(func() { _ = rdb.Close() })

		app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app, sqlDB, rdb)

		resp, body := performRequest(t, app, http.MethodGet, "/readyz", "", "")
		if resp.StatusCode != fiber.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503, body=%s", resp.StatusCode, string(body))
		}
	})
}

type stubCampaignService struct {
	createFn  func(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error)
	getByIDFn func(ctx context.Context, id, userID string) (*domain.Campaign, error)
}

func (s *stubCampaignService) Create(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	if s.createFn != nil {
		return s.createFn(ctx, campaign)
	}
	return nil, errors.New("not implemented")
}

func (s *stubCampaignService) GetByID(ctx context.Context, id, userID string) (*domain.Campaign, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id, userID)
	}
	return nil, domain.ErrNotFound
}

func (s *stubCampaignService) Activate(ctx context.Context, id, userID string) error { return nil }

func (s *stubCampaignService) Complete(ctx context.Context, id, userID string) error { return nil }

type stubDispatchService struct {
	dispatchFn func(ctx context.Context, campaignID, userID string, resend bool) (*service.DispatchResult, error)
}

func (s *stubDispatchService) Dispatch(ctx context.Context, campaignID, userID string, resend bool) (*service.DispatchResult, error) {
	if s.dispatchFn != nil {
		return s.dispatchFn(ctx, campaignID, userID, resend)
	}
	return nil, errors.New("not implemented")
}

type stubReconcileService struct {
	listByStatusFn   func(ctx context.Context, campaignID, userID string, statuses []domain.Status) ([]domain.MailJob, error)
	deleteByStatusFn func(ctx context.Context, campaignID, userID string, statuses []domain.Status) (int64, error)
	requeueFailedFn  func(ctx context.Context, campaignID, userID string) (int, error)
	statsFn          func(ctx context.Context, campaignID, userID string) (*service.CampaignStats, error)
}

func (s *stubReconcileService) ListByStatus(ctx context.Context, campaignID, userID string, statuses []domain.Status) ([]domain.MailJob, error) {
	if s.listByStatusFn != nil {
		return s.listByStatusFn(ctx, campaignID, userID, statuses)
	}
	return nil, nil
}

func (s *stubReconcileService) DeleteByStatus(ctx context.Context, campaignID, userID string, statuses []domain.Status) (int64, error) {
	if s.deleteByStatusFn != nil {
		return s.deleteByStatusFn(ctx, campaignID, userID, statuses)
	}
	return 0, nil
}

func (s *stubReconcileService) RequeueFailed(ctx context.Context, campaignID, userID string) (int, error) {
	if s.requeueFailedFn != nil {
		return s.requeueFailedFn(ctx, campaignID, userID)
	}
	return 0, nil
}

func (s *stubReconcileService) Stats(ctx context.Context, campaignID, userID string) (*service.CampaignStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx, campaignID, userID)
	}
	return nil, domain.ErrNotFound
}

type stubCredentialService struct {
	saveFn func(ctx context.Context, cred domain.SMTPCredential, password string) (*domain.SMTPCredential, error)
}

func (s *stubCredentialService) Save(ctx context.Context, cred domain.SMTPCredential, password string) (*domain.SMTPCredential, error) {
	if s.saveFn != nil {
		return s.saveFn(ctx, cred, password)
	}
	return nil, errors.New("not implemented")
}

type stubAudienceService struct {
	recordBounceFn func(ctx context.Context, address string) error
}

func (s *stubAudienceService) CreateList(ctx context.Context, list *domain.MailList) (*domain.MailList, error) {
	return list, nil
}

func (s *stubAudienceService) AddSubscriber(ctx context.Context, sub *domain.Subscriber) (*domain.Subscriber, error) {
	return sub, nil
}

func (s *stubAudienceService) RecordBounce(ctx context.Context, address string) error {
	if s.recordBounceFn != nil {
		return s.recordBounceFn(ctx, address)
	}
	return nil
}

func newCampaignTestApp(t *testing.T, campaigns CampaignService, dispatch DispatchService, reconcile ReconcileService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterCampaignRoutes(app, campaigns, dispatch, reconcile); err != nil {
		t.Fatalf("RegisterCampaignRoutes() error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string, userID string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

type stubConnector struct {
	pingErr error
}

func (c stubConnector) Connect(context.Context) (driver.Conn, error) {
	return stubConn(c), nil
}

func (c stubConnector) Driver() driver.Driver {
	return stubDriver(c)
}

type stubDriver struct {
	pingErr error
}

func (d stubDriver) Open(string) (driver.Conn, error) {
	return stubConn(d), nil
}

type stubConn struct {
	pingErr error
}

func (c stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c stubConn) Close() error                        { return nil }
func (c stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not implemented") }
func (c stubConn) Ping(context.Context) error          { return c.pingErr }

type stubRedisHook struct {
	pingErr error
}

func (h stubRedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h stubRedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if strings.EqualFold(cmd.Name(), "ping") {
			if h.pingErr != nil {
				cmd.SetErr(h.pingErr)
				return h.pingErr
			}
			cmd.SetErr(nil)
			return nil
		}
		cmd.SetErr(nil)
		return nil
	}
}

func (h stubRedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			cmd.SetErr(nil)
		}
		return nil
	}
}

func newStubRedisClient(pingErr error) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:6379",
		DialTimeout:  time.Millisecond,
		ReadTimeout:  time.Millisecond,
		WriteTimeout: time.Millisecond,
	})
	rdb.AddHook(stubRedisHook{pingErr: pingErr})
	return rdb
}
