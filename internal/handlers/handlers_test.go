package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/auth"
	"github.com/noteduco342/OMCalendar-backend/internal/cache"
	"github.com/noteduco342/OMCalendar-backend/internal/middleware"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/service"
	"github.com/noteduco342/OMCalendar-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	app    *fiber.App
	store  *testutil.MemStore
	cache  *testutil.MemCache
	issuer *auth.JWTIssuer
	users  *service.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	testutil.NewTestHelper(t, nil).SetupTestEnv()

	store := testutil.NewMemStore()
	issuer := auth.NewJWTIssuer("handlers-secret", time.Minute)
	memCache := testutil.NewMemCache()
	messageCache := cache.NewMessageCache(memCache, 0)
	userService := service.NewUserService(store)
	logoService := service.NewLogoService(store, nil)

	app := fiber.New()
	Register(app, Handlers{
		Auth:    NewAuthHandler(service.NewAuthService(store, issuer, time.Hour)),
		User:    NewUserHandler(userService, messageCache),
		Company: NewCompanyHandler(service.NewCompanyService(store, nil), messageCache),
		Message: NewMessageHandler(service.NewMessageService(store), service.NewLedgerService(store), messageCache),
		Logo:    NewLogoHandler(logoService, "https://api.example.com/api"),
		Media:   NewMediaHandler(logoService),
	}, middleware.Authenticate(issuer, store.Users()), RouteConfig{AuthRateLimit: 1000})

	return &testServer{t: t, app: app, store: store, cache: memCache, issuer: issuer, users: userService}
}

// account creates a user with the given role and returns it with a bearer token.
func (s *testServer) account(name string, role models.Role) (*models.User, string) {
	s.t.Helper()
	user, err := s.users.Create(service.CreateUserInput{
		FirstName: name,
		Email:     name + "@example.com",
		Password:  "long enough password",
		Role:      string(role),
	})
	require.NoError(s.t, err)
	token, err := s.issuer.IssueAccessToken(user)
	require.NoError(s.t, err)
	return user, token
}

func (s *testServer) do(method, path, token string, body any) (int, []byte) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)
	signup := map[string]string{
		"firstname": "Ada",
		"lastname":  "Lovelace",
		"email":     "ada@example.com",
		"password":  "long enough password",
	}

	status, body := s.do(http.MethodPost, "/api/auth/signup", "", signup)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	user := decode[models.UserResponse](t, body)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "Lovelace", user.SecondName)

	status, _ = s.do(http.MethodPost, "/api/auth/signup", "", signup)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "not-an-email", "password": "long enough password"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ada@example.com", "password": "wrong password!"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = s.do(http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ada@example.com", "password": "long enough password"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	pair := decode[service.TokenPair](t, body)
	require.NotEmpty(t, pair.Token)

	status, _ = s.do(http.MethodGet, "/api/user/me", pair.Token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshtoken": pair.RefreshToken})
	require.Equal(t, fiber.StatusOK, status, string(body))
	rotated := decode[service.TokenPair](t, body)

	status, _ = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshtoken": pair.RefreshToken})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do(http.MethodPost, "/api/auth/signout", "", map[string]string{"refreshtoken": rotated.RefreshToken})
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = s.do(http.MethodGet, "/api/auth/users/role?email=ADA@example.com", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "USER", decode[map[string]string](t, body)["role"])

	status, _ = s.do(http.MethodGet, "/api/auth/users/role?email=ghost@example.com", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.account("admin", models.RoleAdmin)
	_, userToken := s.account("user", models.RoleUser)

	status, _ := s.do(http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = s.do(http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, body := s.do(http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.UserResponse](t, body), 2)

	status, _ = s.do(http.MethodGet, "/api/user/users", userToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(http.MethodGet, "/api/user/users", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAdminCRUD(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.account("admin", models.RoleAdmin)

	status, body := s.do(http.MethodPost, "/api/admin/companies", admin, map[string]any{"name": "Acme", "emails": []string{"hq@acme.test"}})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	company := decode[models.CompanyResponse](t, body)

	status, body = s.do(http.MethodPut, fmt.Sprintf("/api/admin/companies/%d", company.ID), admin, map[string]any{"location": "Porto"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	updated := decode[models.CompanyResponse](t, body)
	assert.Equal(t, "Acme", updated.Name)
	assert.Equal(t, "Porto", updated.Location)

	status, _ = s.do(http.MethodGet, "/api/admin/companies/999", admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = s.do(http.MethodGet, "/api/admin/companies/abc", admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(http.MethodPost, "/api/admin/users", admin, map[string]string{"email": "bob@example.com", "password": "long enough password"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	bob := decode[models.UserResponse](t, body)

	status, body = s.do(http.MethodPost, fmt.Sprintf("/api/admin/companies/%d/assignUser/%d", company.ID, bob.ID), admin, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Len(t, decode[models.CompanyResponse](t, body).Users, 1)

	status, _ = s.do(http.MethodPost, fmt.Sprintf("/api/admin/companies/%d/assignUser/%d", company.ID, bob.ID), admin, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(http.MethodPost, fmt.Sprintf("/api/admin/companies/%d/assignUsers", company.ID), admin, []uint{bob.ID})
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = s.do(http.MethodGet, fmt.Sprintf("/api/admin/users/%d/companies", bob.ID), admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.CompanyResponse](t, body), 1)

	status, body = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d/removeCompany/%d", bob.ID, company.ID), admin, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Empty(t, decode[models.UserResponse](t, body).Companies)

	status, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", bob.ID), admin, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = s.do(http.MethodGet, fmt.Sprintf("/api/admin/users/%d", bob.ID), admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/companies/%d", company.ID), admin, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestMessageAssignmentAndSeenFlow(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.account("admin", models.RoleAdmin)
	ada, adaToken := s.account("ada", models.RoleUser)
	bob, _ := s.account("bob", models.RoleUser)

	status, body := s.do(http.MethodPost, "/api/admin/companies", admin, map[string]any{"name": "Acme"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	company := decode[models.CompanyResponse](t, body)

	status, body = s.do(http.MethodPost, "/api/admin/messages", admin, map[string]any{
		"type":           "MEETING",
		"priority_level": "HIGH",
		"date":           "2024-05-02",
		"description":    "quarterly review",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	message := decode[models.MessageResponse](t, body)

	assignPath := fmt.Sprintf("/api/admin/messages/%d/assign?companyId=%d", message.ID, company.ID)
	status, body = s.do(http.MethodPost, assignPath, admin, []uint{ada.ID, bob.ID})
	require.Equal(t, fiber.StatusOK, status, string(body))
	assigned := decode[models.MessageResponse](t, body)
	assert.Equal(t, []uint{ada.ID, bob.ID}, assigned.UserIDs)
	require.NotNil(t, assigned.CompanyID)
	assert.Equal(t, company.ID, *assigned.CompanyID)
	testutil.NewTestHelper(t, s.store).RequireLedgerMatchesRecipients()

	status, _ = s.do(http.MethodPost, assignPath, admin, []uint{ada.ID})
	assert.Equal(t, fiber.StatusConflict, status)

	unseenPath := fmt.Sprintf("/api/user/messages/unseen/%d", ada.ID)
	status, body = s.do(http.MethodGet, unseenPath, adaToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.MessageResponse](t, body), 1)

	status, body = s.do(http.MethodPut, fmt.Sprintf("/api/user/messages/%d/seen?userId=%d", message.ID, ada.ID), adaToken, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.True(t, decode[models.SeenStatusResponse](t, body).Seen)

	status, body = s.do(http.MethodGet, unseenPath, adaToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, decode[[]models.MessageResponse](t, body))

	statusPath := fmt.Sprintf("/api/user/messages/seenstatus?messageId=%d&userId=%d", message.ID, bob.ID)
	status, body = s.do(http.MethodGet, statusPath, adaToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, decode[models.SeenStatusResponse](t, body).Seen)

	status, _ = s.do(http.MethodPut, fmt.Sprintf("/api/user/messages/status?messageId=%d&userId=%d&seen=true", message.ID, bob.ID), adaToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, body = s.do(http.MethodGet, statusPath, adaToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, decode[models.SeenStatusResponse](t, body).Seen)

	status, _ = s.do(http.MethodPut, fmt.Sprintf("/api/user/messages/status?messageId=%d&userId=%d&seen=maybe", message.ID, bob.ID), adaToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	outsider, _ := s.account("eve", models.RoleUser)
	status, _ = s.do(http.MethodPut, fmt.Sprintf("/api/user/messages/%d/seen?userId=%d", message.ID, outsider.ID), adaToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/messages/%d", message.ID), admin, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = s.do(http.MethodGet, fmt.Sprintf("/api/user/messages/%d", message.ID), adaToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Empty(t, s.store.LedgerPairs())
}

func TestUserDeleteDropsCachedUnseenLists(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.account("admin", models.RoleAdmin)
	ada, _ := s.account("ada", models.RoleUser)
	bob, bobToken := s.account("bob", models.RoleUser)

	status, body := s.do(http.MethodPost, "/api/admin/messages", admin, map[string]any{
		"type":           "EMAIL",
		"priority_level": "LOW",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	message := decode[models.MessageResponse](t, body)
	status, body = s.do(http.MethodPost, fmt.Sprintf("/api/admin/messages/%d/assign", message.ID), admin, []uint{ada.ID, bob.ID})
	require.Equal(t, fiber.StatusOK, status, string(body))

	unseenPath := fmt.Sprintf("/api/user/messages/unseen/%d", bob.ID)
	status, body = s.do(http.MethodGet, unseenPath, bobToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	cached := decode[[]models.MessageResponse](t, body)
	require.Len(t, cached, 1)
	assert.Equal(t, []uint{ada.ID, bob.ID}, cached[0].UserIDs)
	require.Equal(t, []string{fmt.Sprintf("unseen:%d", bob.ID)}, s.cache.Keys())

	status, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", ada.ID), admin, nil)
	require.Equal(t, fiber.StatusNoContent, status)
	assert.Empty(t, s.cache.Keys(), "bob's list still named ada")

	status, body = s.do(http.MethodGet, unseenPath, bobToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	fresh := decode[[]models.MessageResponse](t, body)
	require.Len(t, fresh, 1)
	assert.Equal(t, []uint{bob.ID}, fresh[0].UserIDs)
}

func TestMessageQueries(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.account("admin", models.RoleAdmin)
	ada, adaToken := s.account("ada", models.RoleUser)

	for _, input := range []map[string]any{
		{"type": "EMAIL", "priority_level": "LOW", "date": "2024-01-01"},
		{"type": "EMAIL", "priority_level": "HIGH", "date": "2024-01-31"},
		{"type": "EMAIL", "priority_level": "HIGH", "date": "2024-02-01"},
	} {
		status, body := s.do(http.MethodPost, "/api/admin/messages", admin, input)
		require.Equal(t, fiber.StatusCreated, status, string(body))
	}

	tests := []struct {
		path       string
		wantStatus int
		wantCount  int
	}{
		{"/api/user/message/date-range?startDate=2024-01-01&endDate=2024-01-31", fiber.StatusOK, 2},
		{"/api/admin/message/date-range?startDate=2024-01-01&endDate=2024-01-31", fiber.StatusOK, 2},
		{"/api/user/message/date-range?startDate=2024-01-01", fiber.StatusBadRequest, 0},
		{"/api/user/message/date-range?startDate=2024-02-01&endDate=2024-01-01", fiber.StatusBadRequest, 0},
		{"/api/user/message/date-range?startDate=01-01-2024&endDate=2024-01-31", fiber.StatusBadRequest, 0},
		{"/api/user/message/priority?priorityLevel=high", fiber.StatusOK, 2},
		{"/api/user/message/priority?priorityLevel=someday", fiber.StatusBadRequest, 0},
		{"/api/user/message/seen?seen=false", fiber.StatusOK, 3},
		{fmt.Sprintf("/api/user/message/user/%d", ada.ID), fiber.StatusOK, 0},
		{"/api/user/message/company/1", fiber.StatusOK, 0},
		{fmt.Sprintf("/api/user/messages/user-company-not-seen?userId=%d&companyId=1", ada.ID), fiber.StatusOK, 0},
		{"/api/user/messages/user-company-not-seen?userId=1", fiber.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			token := adaToken
			if tt.path[:10] == "/api/admin" {
				token = admin
			}
			status, body := s.do(http.MethodGet, tt.path, token, nil)
			require.Equal(t, tt.wantStatus, status, string(body))
			if tt.wantStatus == fiber.StatusOK {
				assert.Len(t, decode[[]models.MessageResponse](t, body), tt.wantCount)
			}
		})
	}
}

func TestLogoWithoutStorage(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.account("admin", models.RoleAdmin)
	_, userToken := s.account("user", models.RoleUser)

	status, _ := s.do(http.MethodDelete, "/api/admin/companies/1/logo", admin, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	status, _ = s.do(http.MethodGet, "/api/media/logos/1/a.jpg", userToken, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	status, _ = s.do(http.MethodGet, "/api/media/logos/1/a.jpg", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
