package httpx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/apperr"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	if v := c.Locals("requestid"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func Error(c *fiber.Ctx, status int, code string, message string) error {
	if message == "" {
		message = "Request failed"
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID(c),
	})
}

func BadRequest(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

func Unauthorized(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusUnauthorized, code, message)
}

func Forbidden(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusForbidden, code, message)
}

func NotFound(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusNotFound, code, message)
}

func Conflict(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusConflict, code, message)
}

func Internal(c *fiber.Ctx, code string) error {
	return Error(c, fiber.StatusInternalServerError, code, "Internal server error")
}

// Fail writes the response for a service error. Errors outside the apperr
// taxonomy are logged and reported as 500.
func Fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return NotFound(c, "not_found", apperr.Message(err, "Not found"))
	case errors.Is(err, apperr.ErrConflict):
		return Conflict(c, "conflict", apperr.Message(err, "Conflict"))
	case errors.Is(err, apperr.ErrInvalidArgument):
		return BadRequest(c, "invalid_argument", apperr.Message(err, "Invalid request"))
	case errors.Is(err, apperr.ErrUnauthorized):
		return Unauthorized(c, "unauthorized", apperr.Message(err, "Unauthorized"))
	case errors.Is(err, apperr.ErrForbidden):
		return Forbidden(c, "forbidden", apperr.Message(err, "Forbidden"))
	}
	zap.L().Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("request_id", requestID(c)),
		zap.Error(err),
	)
	return Internal(c, "internal_error")
}

func LocalUint(c *fiber.Ctx, key string) (uint, error) {
	v := c.Locals(key)
	if v == nil {
		return 0, fmt.Errorf("missing local %s", key)
	}
	u, ok := v.(uint)
	if !ok {
		return 0, fmt.Errorf("invalid local %s", key)
	}
	return u, nil
}

func parseUint(name, raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperr.InvalidArgument("%s is required", name)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.InvalidArgument("%s must be a positive integer", name)
	}
	return uint(v), nil
}

// ParamUint parses a required positive id route parameter.
func ParamUint(c *fiber.Ctx, name string) (uint, error) {
	return parseUint(name, c.Params(name))
}

// QueryUint parses a required positive id query parameter.
func QueryUint(c *fiber.Ctx, name string) (uint, error) {
	return parseUint(name, c.Query(name))
}

// OptionalQueryUint returns nil when the query parameter is absent.
func OptionalQueryUint(c *fiber.Ctx, name string) (*uint, error) {
	if strings.TrimSpace(c.Query(name)) == "" {
		return nil, nil
	}
	v, err := parseUint(name, c.Query(name))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// QueryBool parses a required boolean query parameter.
func QueryBool(c *fiber.Ctx, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, apperr.InvalidArgument("%s is required", name)
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.InvalidArgument("%s must be true or false", name)
	}
	return v, nil
}
