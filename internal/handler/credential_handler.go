package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/mailflow/internal/domain"
)

type CredentialService interface {
	Save(ctx context.Context, cred domain.SMTPCredential, password string) (*domain.SMTPCredential, error)
}

type CredentialHandler struct {
	credentials CredentialService
}

func NewCredentialHandler(credentials CredentialService) (*CredentialHandler, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential service is required")
	}
	return &CredentialHandler{credentials: credentials}, nil
}

func RegisterCredentialRoutes(router fiber.Router, credentials CredentialService) error {
	h, err := NewCredentialHandler(credentials)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Put("/credentials", h.SaveCredential)

	return nil
}

type saveCredentialRequest struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	UseTLS   *bool  `json:"useTls"`
	UseSSL   bool   `json:"useSsl"`
}

// credentialResponse never echoes the password or its ciphertext.
type credentialResponse struct {
	ID        string    `json:"id"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Username  string    `json:"username"`
	UseTLS    bool      `json:"useTls"`
	UseSSL    bool      `json:"useSsl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *CredentialHandler) SaveCredential(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	var req saveCredentialRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	// STARTTLS is the default unless the caller asks for implicit SSL.
	useTLS := !req.UseSSL
	if req.UseTLS != nil {
		useTLS = *req.UseTLS
	}

	cred := domain.SMTPCredential{
		UserID:   userID,
		Host:     strings.TrimSpace(req.Host),
		Port:     req.Port,
		Username: strings.TrimSpace(req.Username),
		UseTLS:   useTLS,
		UseSSL:   req.UseSSL,
	}

	saved, err := h.credentials.Save(c.Context(), cred, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(credentialResponse{
		ID:        saved.ID,
		Host:      saved.Host,
		Port:      saved.Port,
		Username:  saved.Username,
		UseTLS:    saved.UseTLS,
		UseSSL:    saved.UseSSL,
		UpdatedAt: saved.UpdatedAt,
	})
}
