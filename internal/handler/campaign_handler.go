package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/mailflow/internal/domain"
	"github.com/kursadbilgin/mailflow/internal/service"
)

type CampaignService interface {
	Create(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error)
	GetByID(ctx context.Context, id, userID string) (*domain.Campaign, error)
	Activate(ctx context.Context, id, userID string) error
	Complete(ctx context.Context, id, userID string) error
}

type DispatchService interface {
	Dispatch(ctx context.Context, campaignID, userID string, resend bool) (*service.DispatchResult, error)
}

type ReconcileService interface {
	ListByStatus(ctx context.Context, campaignID, userID string, statuses []domain.Status) ([]domain.MailJob, error)
	DeleteByStatus(ctx context.Context, campaignID, userID string, statuses []domain.Status) (int64, error)
	RequeueFailed(ctx context.Context, campaignID, userID string) (int, error)
	Stats(ctx context.Context, campaignID, userID string) (*service.CampaignStats, error)
}

type CampaignHandler struct {
	campaigns CampaignService
	dispatch  DispatchService
	reconcile ReconcileService
}

func NewCampaignHandler(campaigns CampaignService, dispatch DispatchService, reconcile ReconcileService) (*CampaignHandler, error) {
	if campaigns == nil {
		return nil, fmt.Errorf("campaign service is required")
	}
	if dispatch == nil {
		return nil, fmt.Errorf("dispatch service is required")
	}
	if reconcile == nil {
		return nil, fmt.Errorf("reconcile service is required")
	}
	return &CampaignHandler{campaigns: campaigns, dispatch: dispatch, reconcile: reconcile}, nil
}

func RegisterCampaignRoutes(router fiber.Router, campaigns CampaignService, dispatch DispatchService, reconcile ReconcileService) error {
	h, err := NewCampaignHandler(campaigns, dispatch, reconcile)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/campaigns", h.CreateCampaign)
	v1.Get("/campaigns/:id", h.GetCampaign)
	v1.Post("/campaigns/:id/activate", h.ActivateCampaign)
	v1.Post("/campaigns/:id/complete", h.CompleteCampaign)
	v1.Post("/campaigns/:id/dispatch", h.DispatchCampaign)
	v1.Get("/campaigns/:id/mails", h.ListMails)
	v1.Delete("/campaigns/:id/mails", h.DeleteMails)
	v1.Post("/campaigns/:id/mails/requeue", h.RequeueFailedMails)
	v1.Get("/campaigns/:id/stats", h.CampaignStats)

	return nil
}

type createCampaignRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	MailListIDs []string `json:"mailListIds"`
}

type campaignResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Status      string    `json:"status"`
	MailListIDs []string  `json:"mailListIds,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type dispatchResponse struct {
	CampaignID string `json:"campaignId"`
	Queued     int    `json:"queued"`
	Skipped    int    `json:"skipped"`
}

type mailJobResponse struct {
	ID           string    `json:"id"`
	CampaignID   *string   `json:"campaignId,omitempty"`
	Sender       string    `json:"sender"`
	Recipient    string    `json:"recipient"`
	Subject      string    `json:"subject"`
	Status       string    `json:"status"`
	AttemptCount int       `json:"attemptCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type listMailsResponse struct {
	Data []mailJobResponse `json:"data"`
}

type statsResponse struct {
	CampaignID string            `json:"campaignId"`
	Total      int               `json:"total"`
	Counts     []statusCountItem `json:"counts"`
}

type statusCountItem struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	var req createCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	campaign := domain.Campaign{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Subject:     strings.TrimSpace(req.Subject),
		Body:        req.Body,
		MailListIDs: req.MailListIDs,
	}

	created, err := h.campaigns.Create(c.Context(), &campaign)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toCampaignResponse(created))
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	campaign, err := h.campaigns.GetByID(c.Context(), campaignIDParam(c), userID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toCampaignResponse(campaign))
}

func (h *CampaignHandler) ActivateCampaign(c *fiber.Ctx) error {
	return h.transition(c, h.campaigns.Activate, domain.CampaignStatusActive)
}

func (h *CampaignHandler) CompleteCampaign(c *fiber.Ctx) error {
	return h.transition(c, h.campaigns.Complete, domain.CampaignStatusCompleted)
}

func (h *CampaignHandler) transition(
	c *fiber.Ctx,
	op func(ctx context.Context, id, userID string) error,
	target domain.CampaignStatus,
) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	id := campaignIDParam(c)
	if err := op(c.Context(), id, userID); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"campaignId": id,
		"status":     target.String(),
	})
}

func (h *CampaignHandler) DispatchCampaign(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	resend := c.QueryBool("resend", false)
	result, err := h.dispatch.Dispatch(c.Context(), campaignIDParam(c), userID, resend)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(dispatchResponse{
		CampaignID: result.CampaignID,
		Queued:     result.Queued,
		Skipped:    result.Skipped,
	})
}

func (h *CampaignHandler) ListMails(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	statuses, err := parseStatusesQuery(c, false)
	if err != nil {
		return err
	}

	jobs, err := h.reconcile.ListByStatus(c.Context(), campaignIDParam(c), userID, statuses)
	if err != nil {
		return err
	}

	responses := make([]mailJobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, toMailJobResponse(job))
	}

	return c.Status(fiber.StatusOK).JSON(listMailsResponse{Data: responses})
}

func (h *CampaignHandler) DeleteMails(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	statuses, err := parseStatusesQuery(c, true)
	if err != nil {
		return err
	}

	deleted, err := h.reconcile.DeleteByStatus(c.Context(), campaignIDParam(c), userID, statuses)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"deleted": deleted,
	})
}

func (h *CampaignHandler) RequeueFailedMails(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	requeued, err := h.reconcile.RequeueFailed(c.Context(), campaignIDParam(c), userID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"requeued": requeued,
	})
}

func (h *CampaignHandler) CampaignStats(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	stats, err := h.reconcile.Stats(c.Context(), campaignIDParam(c), userID)
	if err != nil {
		return err
	}

	counts := make([]statusCountItem, 0, len(stats.Counts))
	for _, count := range stats.Counts {
		counts = append(counts, statusCountItem{
			Status: count.Status.String(),
			Count:  count.Count,
		})
	}

	return c.Status(fiber.StatusOK).JSON(statsResponse{
		CampaignID: stats.CampaignID,
		Total:      stats.Total,
		Counts:     counts,
	})
}

func campaignIDParam(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Params("id"))
}

// parseStatusesQuery reads the comma-separated status filter. Deletion
// requires an explicit filter so an empty query never wipes a campaign.
func parseStatusesQuery(c *fiber.Ctx, required bool) ([]domain.Status, error) {
	raw := strings.TrimSpace(c.Query("status"))
	if raw == "" {
		if required {
			return nil, fmt.Errorf("%w: status query parameter is required", domain.ErrValidation)
		}
		return nil, nil
	}
	return domain.ParseStatusList(raw)
}

func toCampaignResponse(campaign *domain.Campaign) campaignResponse {
	if campaign == nil {
		return campaignResponse{}
	}

	return campaignResponse{
		ID:          campaign.ID,
		Name:        campaign.Name,
		Description: campaign.Description,
		Subject:     campaign.Subject,
		Body:        campaign.Body,
		Status:      campaign.Status.String(),
		MailListIDs: campaign.MailListIDs,
		CreatedAt:   campaign.CreatedAt,
		UpdatedAt:   campaign.UpdatedAt,
	}
}

func toMailJobResponse(job domain.MailJob) mailJobResponse {
	return mailJobResponse{
		ID:           job.ID,
		CampaignID:   job.CampaignID,
		Sender:       job.Sender,
		Recipient:    job.Recipient,
		Subject:      job.Subject,
		Status:       job.Status.String(),
		AttemptCount: job.AttemptCount,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}
