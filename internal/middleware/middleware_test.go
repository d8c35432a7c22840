package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/auth"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUsers map[string]*models.User

func (s stubUsers) FindByEmail(email string) (*models.User, error) {
	if u, ok := s[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestApp(t *testing.T) (*fiber.App, *auth.JWTIssuer, stubUsers) {
	t.Helper()
	issuer := auth.NewJWTIssuer("middleware-secret", time.Minute)
	users := stubUsers{
		"admin@example.com": {ID: 1, Email: "admin@example.com", Role: models.RoleAdmin},
		"user@example.com":  {ID: 2, Email: "user@example.com", Role: models.RoleUser},
	}

	app := fiber.New()
	app.Use(Authenticate(issuer, users))
	app.Get("/public", func(c *fiber.Ctx) error {
		id, _ := c.Locals(LocalUserID).(uint)
		return c.JSON(fiber.Map{"user_id": id})
	})
	app.Get("/user", RequireAuth(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/admin", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app, issuer, users
}

func bearer(t *testing.T, issuer *auth.JWTIssuer, u *models.User) string {
	t.Helper()
	token, err := issuer.IssueAccessToken(u)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthorization(t *testing.T) {
	app, issuer, users := newTestApp(t)
	adminHeader := bearer(t, issuer, users["admin@example.com"])
	userHeader := bearer(t, issuer, users["user@example.com"])
	ghostHeader := bearer(t, issuer, &models.User{ID: 9, Email: "ghost@example.com", Role: models.RoleAdmin})

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"public anonymous", "/public", "", fiber.StatusOK},
		{"public with garbage token", "/public", "Bearer not-a-jwt", fiber.StatusOK},
		{"user anonymous", "/user", "", fiber.StatusUnauthorized},
		{"user malformed header", "/user", "Token abc", fiber.StatusUnauthorized},
		{"user valid", "/user", userHeader, fiber.StatusOK},
		{"admin as user", "/admin", userHeader, fiber.StatusForbidden},
		{"admin anonymous", "/admin", "", fiber.StatusUnauthorized},
		{"admin valid", "/admin", adminHeader, fiber.StatusOK},
		{"unknown subject", "/admin", ghostHeader, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRoleComesFromStoredUser(t *testing.T) {
	app, issuer, users := newTestApp(t)
	header := bearer(t, issuer, users["admin@example.com"])
	users["admin@example.com"].Role = models.RoleUser

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", header)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestOriginAllowed(t *testing.T) {
	app := fiber.New()
	app.Use(OriginAllowed(" https://app.example.com , https://admin.example.com"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	tests := []struct {
		origin     string
		wantStatus int
	}{
		{"", fiber.StatusOK},
		{"https://app.example.com", fiber.StatusOK},
		{"https://admin.example.com", fiber.StatusOK},
		{"https://evil.example.com", fiber.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.wantStatus, resp.StatusCode, tt.origin)
	}

	assert.Nil(t, SplitCSV("  "))
	assert.Equal(t, []string{"a", "b"}, SplitCSV("a,,b,"))
}
