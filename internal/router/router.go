package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/coach-api/internal/config"
	"github.com/noah-isme/coach-api/internal/handler"
	"github.com/noah-isme/coach-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	HealthHandler    fiber.Handler
	AnalysisHandler  *handler.AnalysisHandler
	DashboardHandler *handler.DashboardHandler
	RoadmapHandler   *handler.RoadmapHandler
	ResourceHandler  *handler.ResourceHandler
	ActivityHandler  *handler.ActivityHandler
	OptionalAuth     fiber.Handler
	RequiredAuth     fiber.Handler
	AnalyzeLimiter   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	if deps.HealthHandler != nil {
		api.Get("/health", deps.HealthHandler)
	}

	passthrough := func(c *fiber.Ctx) error { return c.Next() }
	optionalAuth := deps.OptionalAuth
	if optionalAuth == nil {
		optionalAuth = passthrough
	}
	requiredAuth := deps.RequiredAuth
	if requiredAuth == nil {
		requiredAuth = passthrough
	}

	// Coaching workspace, open to anonymous callers
	if deps.AnalysisHandler != nil {
		coach := app.Group("/api/v2/coach", optionalAuth)
		deps.AnalysisHandler.Register(coach, deps.AnalyzeLimiter)
	}

	// Progress views, authenticated only
	progress := app.Group("/api/v2/progress", requiredAuth)
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(progress)
	}
	if deps.RoadmapHandler != nil {
		deps.RoadmapHandler.Register(progress)
	}
	if deps.ResourceHandler != nil {
		deps.ResourceHandler.Register(progress)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(progress)
	}
}
