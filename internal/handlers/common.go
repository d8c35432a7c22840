package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/apperr"
	"github.com/noteduco342/OMCalendar-backend/internal/httpx"
	"github.com/noteduco342/OMCalendar-backend/internal/storage"
	"github.com/noteduco342/OMCalendar-backend/internal/validation"
)

// bind decodes the JSON body into dst and runs its validate tags.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.InvalidArgument("invalid request body")
	}
	if err := validation.Struct(dst); err != nil {
		return apperr.InvalidArgument("%s", err.Error())
	}
	return nil
}

// bindIDs decodes a JSON array of ids. An empty body yields nil.
func bindIDs(c *fiber.Ctx) ([]uint, error) {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}
	ids := []uint{}
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, apperr.InvalidArgument("body must be a JSON array of ids")
	}
	return ids, nil
}

// fail extends httpx.Fail with the object storage errors.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
	case errors.Is(err, storage.ErrTooLarge):
		return httpx.BadRequest(c, "logo_too_large", "Logo is too large")
	case errors.Is(err, storage.ErrUnsupported):
		return httpx.BadRequest(c, "logo_unsupported", "Unsupported image type")
	case errors.Is(err, storage.ErrInvalidImage):
		return httpx.BadRequest(c, "logo_invalid", "Invalid image")
	}
	return httpx.Fail(c, err)
}
