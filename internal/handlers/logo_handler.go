package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/httpx"
	"github.com/noteduco342/OMCalendar-backend/internal/service"
)

type LogoHandler struct {
	logoService      *service.LogoService
	publicAPIBaseURL string
}

// NewLogoHandler builds logo URLs from publicAPIBaseURL, or from the request when it is empty.
func NewLogoHandler(logoService *service.LogoService, publicAPIBaseURL string) *LogoHandler {
	return &LogoHandler{logoService: logoService, publicAPIBaseURL: strings.TrimRight(publicAPIBaseURL, "/")}
}

func (h *LogoHandler) baseURL(c *fiber.Ctx) string {
	if h.publicAPIBaseURL != "" {
		return h.publicAPIBaseURL
	}
	return strings.TrimRight(c.BaseURL(), "/") + "/api"
}

// Upload stores the multipart "logo" file as the company's logo.
func (h *LogoHandler) Upload(c *fiber.Ctx) error {
	companyID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		return httpx.BadRequest(c, "missing_logo", "logo file is required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_logo", "Invalid logo upload")
	}
	defer f.Close()

	company, err := h.logoService.Upload(c.Context(), companyID, f, h.baseURL(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(company.ToResponse())
}

func (h *LogoHandler) Delete(c *fiber.Ctx) error {
	companyID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}

	company, err := h.logoService.Delete(c.Context(), companyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(company.ToResponse())
}
