package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/evalhub/gradehub-api/internal/config"
	"github.com/evalhub/gradehub-api/internal/handler"
	"github.com/evalhub/gradehub-api/internal/middleware"
	"github.com/evalhub/gradehub-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	HomeworkHandler *handler.HomeworkHandler
	GradingHandler  *handler.GradingHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.HomeworkHandler != nil {
		homeworks := app.Group("/api/v2/homeworks", jwtMiddleware)
		deps.HomeworkHandler.RegisterReads(homeworks)

		// Definition management is instructor-only; grading and reads are
		// open to any authenticated caller.
		deps.HomeworkHandler.RegisterManagement(homeworks, middleware.RequireRole("instructor", "admin"))

		if deps.GradingHandler != nil {
			// Grading runs checks synchronously; cap per-user attempts.
			deps.GradingHandler.Register(homeworks, middleware.RateLimit("grade", 30, time.Minute))

			submissions := app.Group("/api/v2/submissions", jwtMiddleware)
			deps.GradingHandler.RegisterSubmissions(submissions)
		}
	}
}
