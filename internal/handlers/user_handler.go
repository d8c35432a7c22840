package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/cache"
	"github.com/noteduco342/OMCalendar-backend/internal/httpx"
	"github.com/noteduco342/OMCalendar-backend/internal/middleware"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	cache       *cache.MessageCache
}

func NewUserHandler(userService *service.UserService, messageCache *cache.MessageCache) *UserHandler {
	return &UserHandler{userService: userService, cache: messageCache}
}

// GetCurrentUser returns the authenticated user's profile.
func (h *UserHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, middleware.LocalUserID)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	user, err := h.userService.Get(userID)
	if err != nil {
		return httpx.Fail(c, err)
	}

	etag := fmt.Sprintf("W/\"u-%d-%d\"", user.ID, user.UpdatedAt.UTC().UnixNano())
	c.Set("ETag", etag)
	c.Set("Cache-Control", "private, max-age=0, must-revalidate")

	if inm := strings.TrimSpace(c.Get("If-None-Match")); inm != "" {
		inmNorm := strings.Trim(strings.TrimPrefix(inm, "W/"), "\"")
		etagNorm := strings.Trim(strings.TrimPrefix(etag, "W/"), "\"")
		if strings.Contains(inmNorm, etagNorm) {
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	return c.JSON(user.ToResponse())
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input service.CreateUserInput
	if err := bind(c, &input); err != nil {
		return httpx.Fail(c, err)
	}

	user, err := h.userService.Create(input)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user.ToResponse())
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.List()
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.UsersToResponse(users))
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	userID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}

	user, err := h.userService.Get(userID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(user.ToResponse())
}

// GetByEmail looks a user up by ?email=.
func (h *UserHandler) GetByEmail(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		return httpx.BadRequest(c, "missing_email", "email is required")
	}

	user, err := h.userService.GetByEmail(email)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(user.ToResponse())
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	userID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var input service.UpdateUserInput
	if err := bind(c, &input); err != nil {
		return httpx.Fail(c, err)
	}

	user, err := h.userService.Update(userID, input)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(user.ToResponse())
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	userID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}

	if err := h.userService.Delete(userID); err != nil {
		return httpx.Fail(c, err)
	}
	// co-recipients' cached views list the deleted user
	h.cache.InvalidateAllUnseen(c.Context())
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) AssignCompany(c *fiber.Ctx) error {
	userID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	companyID, err := httpx.ParamUint(c, "companyId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	user, err := h.userService.AssignCompany(userID, companyID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(user.ToResponse())
}

func (h *UserHandler) RemoveCompany(c *fiber.Ctx) error {
	userID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	companyID, err := httpx.ParamUint(c, "companyId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	user, err := h.userService.RemoveCompany(userID, companyID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(user.ToResponse())
}

// AssignCompanies takes a JSON array of company ids.
func (h *UserHandler) AssignCompanies(c *fiber.Ctx) error {
	userID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	companyIDs, err := bindIDs(c)
	if err != nil {
		return httpx.Fail(c, err)
	}

	user, err := h.userService.AssignCompanies(userID, companyIDs)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(user.ToResponse())
}

func (h *UserHandler) ListCompanies(c *fiber.Ctx) error {
	userID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}

	companies, err := h.userService.ListCompanies(userID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.CompaniesToResponse(companies))
}

func (h *UserHandler) ListMessagesByCompany(c *fiber.Ctx) error {
	userID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	companyID, err := httpx.ParamUint(c, "companyId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	messages, err := h.userService.ListMessagesByCompany(userID, companyID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.MessagesToResponse(messages))
}

// IDByEmail resolves ?email= to a user id.
func (h *UserHandler) IDByEmail(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		return httpx.BadRequest(c, "missing_email", "email is required")
	}

	user, err := h.userService.GetByEmail(email)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(fiber.Map{"id": user.ID})
}
