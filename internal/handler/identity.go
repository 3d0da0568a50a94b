package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/mailflow/internal/domain"
)

// HeaderUserID carries the authenticated user identity. Authentication
// itself happens upstream; the API trusts the gateway-injected header.
const HeaderUserID = "X-User-ID"

func requestUserID(c *fiber.Ctx) (string, error) {
	userID := strings.TrimSpace(c.Get(HeaderUserID))
	if userID == "" {
		return "", fmt.Errorf("%w: %s header is required", domain.ErrValidation, HeaderUserID)
	}
	return userID, nil
}
