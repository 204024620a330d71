package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Jam232006/pulse-lms/internal/config"
	"github.com/Jam232006/pulse-lms/internal/handler"
	"github.com/Jam232006/pulse-lms/internal/middleware"
	"github.com/Jam232006/pulse-lms/internal/models"
	"github.com/Jam232006/pulse-lms/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler   *handler.ActivityHandler
	RiskHandler       *handler.RiskHandler
	AlertHandler      *handler.AlertHandler
	AssignmentHandler *handler.AssignmentHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ActivityHandler != nil {
		activities := api.Group("/activities", jwtMiddleware,
			middleware.RateLimit("activities", 30, time.Minute))
		deps.ActivityHandler.Register(activities)
	}

	if deps.RiskHandler != nil {
		risk := api.Group("/risk", jwtMiddleware)
		deps.RiskHandler.Register(risk, middleware.RequireRole(models.RoleAdmin, models.RoleMentor))
	}

	if deps.AlertHandler != nil {
		alerts := api.Group("/alerts", jwtMiddleware)
		deps.AlertHandler.Register(alerts)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware,
			middleware.RequireRole(models.RoleAdmin, models.RoleMentor))
		deps.AssignmentHandler.Register(assignments)
	}
}
