package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/httpx"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
)

// RequireRole rejects anonymous requests with 401 and other roles with 403.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authenticated(c) {
			return httpx.Unauthorized(c, "unauthenticated", "Authentication required")
		}
		userRole, _ := c.Locals(LocalRole).(string)
		for _, role := range roles {
			if strings.EqualFold(userRole, string(role)) {
				return c.Next()
			}
		}
		return httpx.Forbidden(c, "forbidden", "Insufficient permissions")
	}
}
