package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/discord-modmail/modmail/internal/api/dto"
	"github.com/discord-modmail/modmail/internal/auth"
	"github.com/discord-modmail/modmail/pkg/errorutil"
)

// AuthHandler exposes dashboard login.
type AuthHandler struct {
	accounts *auth.Accounts
}

// NewAuthHandler constructs handler.
func NewAuthHandler(accounts *auth.Accounts) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return errorutil.NewValidationError("username and password required", nil)
	}

	account, token, exp, err := h.accounts.Login(req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"account": dto.AccountResponse{Username: account.Username, Role: string(account.Role)},
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}
