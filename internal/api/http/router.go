package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickify/tickify/internal/api/http/handlers"
	"github.com/tickify/tickify/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.Middleware
	StaticDir      string
	StaticPrefix   string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.StaticDir != "" && cfg.StaticPrefix != "" {
		app.Static(cfg.StaticPrefix, cfg.StaticDir)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	api := app.Group("", cfg.AuthMiddleware.Handle)

	api.Get("/users/me", cfg.Users.Me)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Delete("/:id/attachment", cfg.Tickets.DeleteAttachment)
	tickets.Post("/:id/assign", auth.RequireElevated(), cfg.Tickets.AssignToSelf)
	tickets.Put("/:id/assignee", auth.RequireElevated(), cfg.Tickets.Reassign)

	tickets.Post("/:id/comments", cfg.Comments.Create)
	tickets.Get("/:id/comments", cfg.Comments.List)
	tickets.Post("/:id/comments/read", cfg.Comments.MarkRead)
	tickets.Get("/:id/comments/unread", cfg.Comments.UnreadCount)

	user := api.Group("/user")
	user.Get("/notifications", cfg.Notifications.List)
	user.Post("/notifications/:id/read", cfg.Notifications.MarkRead)
	user.Delete("/notifications/:id", cfg.Notifications.Delete)

	admin := api.Group("/admin", auth.RequireElevated())
	admin.Put("/tickets/:id/status/:newStatus", cfg.Tickets.ChangeStatus)
	admin.Get("/dashboard", cfg.Tickets.StatusCounts)
	admin.Get("/users", cfg.Users.List)
	admin.Post("/users/:id/role/:role", auth.RequireSuperAdmin(), cfg.Users.ChangeRole)
	admin.Delete("/users/:id", auth.RequireSuperAdmin(), cfg.Users.Delete)
}
