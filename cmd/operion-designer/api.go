// Package main provides the Operion Designer server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/operion-designer/pkg/metrics"
	"github.com/dukex/operion-designer/pkg/registry"
	"github.com/dukex/operion-designer/pkg/session"
	"github.com/dukex/operion-designer/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger   *slog.Logger
	sessions *session.Manager
	registry *registry.Registry
	metrics  *metrics.Collector
	tracer   trace.Tracer
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	sessions *session.Manager,
	registry *registry.Registry,
	metrics *metrics.Collector,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:   logger,
		sessions: sessions,
		registry: registry,
		metrics:  metrics,
		tracer:   tracer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.sessions, a.validate, a.registry, a.tracer)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Operion Designer")
	})

	handlers.Register(app)

	app.Get("/health", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	a.logger.Info("Starting designer API", "port", port)

	return app.Listen(":" + strconv.Itoa(port))
}
