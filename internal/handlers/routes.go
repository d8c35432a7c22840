package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/noteduco342/OMCalendar-backend/internal/middleware"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
)

// Handlers bundles everything Register mounts.
type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Company *CompanyHandler
	Message *MessageHandler
	Logo    *LogoHandler
	Media   *MediaHandler
}

type RouteConfig struct {
	AllowedOrigins string
	// Requests per minute per client on /api/auth.
	AuthRateLimit int
}

// Register mounts the API under /api. authenticate resolves bearer tokens and
// runs before every /api route.
func Register(app *fiber.App, h Handlers, authenticate fiber.Handler, cfg RouteConfig) {
	api := app.Group("/api", middleware.OriginAllowed(cfg.AllowedOrigins), authenticate)

	authGroup := api.Group("/auth", limiter.New(limiter.Config{
		Max:        cfg.AuthRateLimit,
		Expiration: time.Minute,
	}))
	authGroup.Post("/signup", h.Auth.Signup)
	authGroup.Post("/signin", h.Auth.Signin)
	authGroup.Post("/refresh", h.Auth.Refresh)
	authGroup.Post("/signout", h.Auth.Signout)
	authGroup.Get("/users/role", h.Auth.Role)

	api.Get("/media/logos/*", middleware.RequireAuth(), h.Media.GetLogo)

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	registerQueries(admin, h)

	admin.Post("/users", h.User.Create)
	admin.Get("/users", h.User.List)
	admin.Get("/users/by-email", h.User.GetByEmail)
	admin.Get("/users/:id", h.User.Get)
	admin.Put("/users/:id", h.User.Update)
	admin.Delete("/users/:id", h.User.Delete)
	admin.Post("/users/:id/assignCompany/:companyId", h.User.AssignCompany)
	admin.Delete("/users/:id/removeCompany/:companyId", h.User.RemoveCompany)
	admin.Post("/users/:id/assignCompanies", h.User.AssignCompanies)
	admin.Get("/users/:id/companies", h.User.ListCompanies)
	admin.Get("/users/:id/companies/:companyId/messages", h.User.ListMessagesByCompany)

	admin.Post("/companies", h.Company.Create)
	admin.Get("/companies", h.Company.List)
	admin.Get("/companies/:id", h.Company.Get)
	admin.Put("/companies/:id", h.Company.Update)
	admin.Delete("/companies/:id", h.Company.Delete)
	admin.Post("/companies/:id/assignUser/:userId", h.Company.AssignUser)
	admin.Delete("/companies/:id/removeUser/:userId", h.Company.RemoveUser)
	admin.Post("/companies/:id/assignUsers", h.Company.AssignUsers)
	admin.Get("/companies/:id/users", h.Company.ListUsers)
	admin.Post("/companies/:id/logo", h.Logo.Upload)
	admin.Delete("/companies/:id/logo", h.Logo.Delete)

	admin.Post("/messages", h.Message.Create)
	admin.Get("/messages", h.Message.List)
	admin.Get("/messages/:id", h.Message.Get)
	admin.Put("/messages/:id", h.Message.Update)
	admin.Delete("/messages/:id", h.Message.Delete)
	admin.Post("/messages/:id/assign", h.Message.Assign)

	user := api.Group("/user", middleware.RequireAuth())
	registerQueries(user, h)

	user.Get("/me", h.User.GetCurrentUser)
	user.Get("/profile/:id", h.User.Get)
	user.Get("/users", h.User.List)
	user.Get("/users/id", h.User.IDByEmail)
	user.Get("/users/:id/companies", h.User.ListCompanies)
	user.Get("/users/:id/companies/:companyId/messages", h.User.ListMessagesByCompany)
	user.Get("/companies", h.Company.List)
	user.Get("/companies/:id", h.Company.Get)
	user.Get("/companies/:id/users", h.Company.ListUsers)

	user.Get("/messages/seenstatus", h.Message.SeenStatus)
	user.Put("/messages/status", h.Message.SetStatus)
	user.Get("/messages/unseen/:userId", h.Message.Unseen)
	user.Put("/messages/:id/seen", h.Message.MarkSeen)
	user.Get("/messages", h.Message.List)
	user.Get("/messages/:id", h.Message.Get)
}

// registerQueries mounts the read-only message queries. They must be
// registered before any /messages/:id route.
func registerQueries(r fiber.Router, h Handlers) {
	r.Get("/message/priority", h.Message.ByPriority)
	r.Get("/message/seen", h.Message.BySeen)
	r.Get("/message/date-range", h.Message.ByDateRange)
	r.Get("/message/user/:userId", h.Message.ByUser)
	r.Get("/message/company/:companyId", h.Message.ByCompany)
	r.Get("/messages/user-company-not-seen", h.Message.UserCompanyNotSeen)
}
