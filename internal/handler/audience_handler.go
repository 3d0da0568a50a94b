package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/mailflow/internal/domain"
)

type AudienceService interface {
	CreateList(ctx context.Context, list *domain.MailList) (*domain.MailList, error)
	AddSubscriber(ctx context.Context, sub *domain.Subscriber) (*domain.Subscriber, error)
	RecordBounce(ctx context.Context, address string) error
}

type AudienceHandler struct {
	audience AudienceService
}

func NewAudienceHandler(audience AudienceService) (*AudienceHandler, error) {
	if audience == nil {
		return nil, fmt.Errorf("audience service is required")
	}
	return &AudienceHandler{audience: audience}, nil
}

func RegisterAudienceRoutes(router fiber.Router, audience AudienceService) error {
	h, err := NewAudienceHandler(audience)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/lists", h.CreateList)
	v1.Post("/lists/:id/subscribers", h.AddSubscriber)
	v1.Post("/bounces", h.RecordBounce)

	return nil
}

type createListRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type mailListResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type addSubscriberRequest struct {
	Address string `json:"address"`
}

type subscriberResponse struct {
	ID         string    `json:"id"`
	MailListID string    `json:"mailListId"`
	Address    string    `json:"address"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

type recordBounceRequest struct {
	Address string `json:"address"`
}

func (h *AudienceHandler) CreateList(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	var req createListRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	list := domain.MailList{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	}

	created, err := h.audience.CreateList(c.Context(), &list)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(mailListResponse{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		IsActive:    created.IsActive,
		CreatedAt:   created.CreatedAt,
	})
}

func (h *AudienceHandler) AddSubscriber(c *fiber.Ctx) error {
	if _, err := requestUserID(c); err != nil {
		return err
	}

	var req addSubscriberRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	sub := domain.Subscriber{
		MailListID: strings.TrimSpace(c.Params("id")),
		Address:    strings.TrimSpace(req.Address),
		IsActive:   true,
	}

	created, err := h.audience.AddSubscriber(c.Context(), &sub)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(subscriberResponse{
		ID:         created.ID,
		MailListID: created.MailListID,
		Address:    created.Address,
		IsActive:   created.IsActive,
		CreatedAt:  created.CreatedAt,
	})
}

// RecordBounce accepts provider bounce callbacks. The address is matched
// across all lists; repeated bounces deactivate the subscriber.
func (h *AudienceHandler) RecordBounce(c *fiber.Ctx) error {
	var req recordBounceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		return fmt.Errorf("%w: address is required", domain.ErrValidation)
	}

	if err := h.audience.RecordBounce(c.Context(), address); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
