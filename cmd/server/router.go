package main

import (
	"time"

	"docbridge/cmd/server/handlers"
	"docbridge/cmd/server/handlers/collections"
	"docbridge/cmd/server/handlers/httperr"
	"docbridge/cmd/server/middlewares"
	"docbridge/internal/config"
	"docbridge/internal/docstore"
	"docbridge/internal/logger"
	"docbridge/internal/metrics"

	_ "docbridge/docs" // Load swagger docs

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

const (
	RateLimitExpiration = 1 * time.Minute
)

// setupRouter configures and returns a Fiber app serving store.
// mc may be nil when route metrics are disabled.
func setupRouter(cfg config.Config, store docstore.Handle, ping handlers.PingFunc, mc *metrics.Collector) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
		BodyLimit:    cfg.BodyLimitBytes,
		AppName:      "docbridge",
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(middlewares.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Content-Type, Authorization, " + middlewares.HeaderRequestID,
		ExposeHeaders: middlewares.HeaderRequestID,
	}))

	if cfg.RouteMetricsEnabled && mc != nil {
		middlewares.AttachMetrics(app, mc.Registry())
	}

	// Health check endpoint, outside versioned API to appease scanners and to avoid logging
	app.Get("/healthz", handlers.Healthz(ping))

	app.Get("/docs/*", swagger.HandlerDefault)

	var v1 fiber.Router
	if cfg.RequestLoggingEnabled {
		v1 = app.Group("/api/v1", fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${status} - ${latency} ${method} ${path} ${respHeader:" + middlewares.HeaderRequestID + "}\n",
		}))
		logger.L().Info("request logging enabled")
	} else {
		v1 = app.Group("/api/v1")
		logger.L().Info("request logging disabled")
	}

	if cfg.JWTSecret == "" {
		logger.L().Warn("JWT_SECRET is empty, the collections API is unauthenticated")
	}

	collGrp := v1.Group("/collections",
		middlewares.BuildRateLimiter(cfg.RateLimitPerMin, RateLimitExpiration),
		middlewares.JWT(cfg),
	)

	collections.NewHandlers(store, validator.New(), cfg.OpTimeout()).Register(collGrp)

	return app
}
