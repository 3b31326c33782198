package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/discord-modmail/modmail/internal/api/http/handlers"
	"github.com/discord-modmail/modmail/internal/auth"
	"github.com/discord-modmail/modmail/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Extensions     *handlers.ExtensionsHandler
	Blocklist      *handlers.BlocklistHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	staff := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	staff.Get("/tickets", cfg.Tickets.ListTickets)
	staff.Get("/tickets/:id", cfg.Tickets.GetTicket)
	staff.Post("/tickets/:id/close", cfg.Tickets.CloseTicket)

	staff.Get("/blocklist", cfg.Blocklist.List)
	staff.Put("/blocklist/:user_id", cfg.Blocklist.Block)
	staff.Delete("/blocklist/:user_id", cfg.Blocklist.Unblock)

	staff.Get("/extensions", cfg.Extensions.List)
	admin := staff.Group("/extensions/:name", auth.RequireStaffRole(domain.StaffRoleAdmin))
	admin.Post("/load", cfg.Extensions.Load)
	admin.Post("/unload", cfg.Extensions.Unload)
	admin.Post("/reload", cfg.Extensions.Reload)
}
