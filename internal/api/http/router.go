package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/command-center/internal/api/http/handlers"
	"github.com/spec-kit/command-center/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Presence       *handlers.PresenceHandler
	Locks          *handlers.LocksHandler
	Board          *handlers.BoardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/admin/login", cfg.Auth.Login)

	terminal := app.Group("/presence", cfg.AuthMiddleware.Handle, auth.RequireTerminal())
	terminal.Post("/heartbeat", cfg.Presence.Heartbeat)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/terminal-tokens", cfg.Auth.TerminalToken)
	admin.Get("/status-board", cfg.Board.StatusBoard)
	admin.Get("/activity", cfg.Board.RecentActivity)

	admin.Get("/role-accounts/:account/lock-view", cfg.Locks.View)
	admin.Post("/role-accounts/:account/selection", cfg.Locks.ToggleSelection)
	admin.Delete("/role-accounts/:account/selection", cfg.Locks.ClearSelection)
	admin.Post("/role-accounts/:account/lock-changes", cfg.Locks.Propose)
	admin.Post("/lock-changes/:id/commit", cfg.Locks.Commit)
}
