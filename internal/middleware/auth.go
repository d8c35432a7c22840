package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/auth"
	"github.com/noteduco342/OMCalendar-backend/internal/httpx"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"go.uber.org/zap"
)

// Locals keys set for authenticated requests.
const (
	LocalUserID = "userID"
	LocalEmail  = "email"
	LocalRole   = "role"
)

// UserLookup resolves a token subject to an account.
type UserLookup interface {
	FindByEmail(email string) (*models.User, error)
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Authenticate resolves the bearer token to a user. Requests with a missing,
// malformed or invalid token continue anonymously. The role comes from the
// stored user, not from the token.
func Authenticate(issuer auth.TokenIssuer, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}
		claims, err := issuer.ParseAccessToken(token)
		if err != nil {
			return c.Next()
		}
		user, err := users.FindByEmail(claims.Subject)
		if err != nil {
			zap.L().Debug("token subject did not resolve", zap.String("subject", claims.Subject), zap.Error(err))
			return c.Next()
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalEmail, user.Email)
		c.Locals(LocalRole, string(user.Role))
		return c.Next()
	}
}

func authenticated(c *fiber.Ctx) bool {
	_, err := httpx.LocalUint(c, LocalUserID)
	return err == nil
}

// RequireAuth rejects anonymous requests.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authenticated(c) {
			return httpx.Unauthorized(c, "unauthenticated", "Authentication required")
		}
		return c.Next()
	}
}
