package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/cache"
	"github.com/noteduco342/OMCalendar-backend/internal/httpx"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/service"
)

type CompanyHandler struct {
	companyService *service.CompanyService
	cache          *cache.MessageCache
}

func NewCompanyHandler(companyService *service.CompanyService, messageCache *cache.MessageCache) *CompanyHandler {
	return &CompanyHandler{companyService: companyService, cache: messageCache}
}

func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var input service.CompanyInput
	if err := bind(c, &input); err != nil {
		return httpx.Fail(c, err)
	}

	company, err := h.companyService.Create(input)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(company.ToResponse())
}

func (h *CompanyHandler) List(c *fiber.Ctx) error {
	companies, err := h.companyService.List()
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.CompaniesToResponse(companies))
}

func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	companyID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}

	company, err := h.companyService.Get(companyID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(company.ToResponse())
}

func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	companyID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var input service.CompanyUpdateInput
	if err := bind(c, &input); err != nil {
		return httpx.Fail(c, err)
	}

	company, err := h.companyService.Update(companyID, input)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(company.ToResponse())
}

// Delete removes the company and its messages, so every cached unseen list may be stale.
func (h *CompanyHandler) Delete(c *fiber.Ctx) error {
	companyID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}

	if err := h.companyService.Delete(c.Context(), companyID); err != nil {
		return httpx.Fail(c, err)
	}
	h.cache.InvalidateAllUnseen(c.Context())
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CompanyHandler) AssignUser(c *fiber.Ctx) error {
	companyID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	userID, err := httpx.ParamUint(c, "userId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	company, err := h.companyService.AssignUser(companyID, userID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(company.ToResponse())
}

func (h *CompanyHandler) RemoveUser(c *fiber.Ctx) error {
	companyID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	userID, err := httpx.ParamUint(c, "userId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	company, err := h.companyService.RemoveUser(companyID, userID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(company.ToResponse())
}

// AssignUsers takes a JSON array of user ids.
func (h *CompanyHandler) AssignUsers(c *fiber.Ctx) error {
	companyID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	userIDs, err := bindIDs(c)
	if err != nil {
		return httpx.Fail(c, err)
	}

	company, err := h.companyService.AssignUsers(companyID, userIDs)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(company.ToResponse())
}

func (h *CompanyHandler) ListUsers(c *fiber.Ctx) error {
	companyID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}

	users, err := h.companyService.ListUsers(companyID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.UsersToResponse(users))
}
