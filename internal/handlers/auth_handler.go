package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/httpx"
	"github.com/noteduco342/OMCalendar-backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshtoken"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var input service.SignupInput
	if err := bind(c, &input); err != nil {
		return httpx.Fail(c, err)
	}

	user, err := h.authService.Signup(input)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user.ToResponse())
}

func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var input service.SigninInput
	if err := bind(c, &input); err != nil {
		return httpx.Fail(c, err)
	}

	pair, err := h.authService.Signin(input)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(pair)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input refreshRequest
	if err := bind(c, &input); err != nil {
		return httpx.Fail(c, err)
	}

	pair, err := h.authService.Refresh(input.RefreshToken)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(pair)
}

func (h *AuthHandler) Signout(c *fiber.Ctx) error {
	var input refreshRequest
	if err := bind(c, &input); err != nil {
		return httpx.Fail(c, err)
	}
	if err := h.authService.Signout(input.RefreshToken); err != nil {
		return httpx.Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Role reports the role registered for ?email=.
func (h *AuthHandler) Role(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		return httpx.BadRequest(c, "missing_email", "email is required")
	}

	role, err := h.authService.RoleByEmail(email)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(fiber.Map{
		"email": strings.ToLower(email),
		"role":  role,
	})
}
