package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/spms-go-api/internal/config"
	"github.com/noah-isme/spms-go-api/internal/handler"
	"github.com/noah-isme/spms-go-api/internal/middleware"
	"github.com/noah-isme/spms-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler *handler.StudentHandler
	StatsHandler   *handler.StatsHandler
	SyncHandler    *handler.SyncHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	if deps.StudentHandler != nil {
		students := api.Group("/students")
		deps.StudentHandler.Register(students)

		if deps.StatsHandler != nil {
			deps.StatsHandler.Register(students)
		}
	}

	// Sync triggers hit the upstream API; keep them behind a limiter.
	if deps.SyncHandler != nil {
		sync := api.Group("/sync", middleware.RateLimit("sync", 5, time.Minute))
		deps.SyncHandler.Register(sync)
	}
}
