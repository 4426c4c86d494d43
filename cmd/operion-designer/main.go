package main

import (
	"context"
	"os"

	"github.com/dukex/operion-designer/pkg/cmd"
	"github.com/dukex/operion-designer/pkg/eventbus"
	"github.com/dukex/operion-designer/pkg/events"
	"github.com/dukex/operion-designer/pkg/log"
	"github.com/dukex/operion-designer/pkg/metrics"
	"github.com/dukex/operion-designer/pkg/otelhelper"
	"github.com/dukex/operion-designer/pkg/session"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPort = 9092
	serviceName = "operion-designer"
)

func main() {
	cmd := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Edit workflow graphs through interactive sessions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the designer API on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "read-only",
				Usage:   "Open every session read-only",
				Sources: cli.EnvVars("READ_ONLY"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type for change notifications (gochannel, none)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL to mirror definition changes to (disabled when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-channel-prefix",
				Usage:   "Prefix of the per-workflow Redis pub/sub channel",
				Value:   "operion:designer:changes:",
				Sources: cli.EnvVars("REDIS_CHANNEL_PREFIX"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("designer")

	logger.InfoContext(ctx, "Initializing Operion Designer")

	tracer, shutdown, err := newTracer(ctx, command.Bool("otel-enabled"))
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
		}
	}()

	registry := cmd.NewRegistry(log.WithModule("registry"))
	collector := metrics.NewCollector("operion_designer")

	opts := []session.ManagerOption{
		session.WithLogger(log.WithModule("session")),
		session.WithMetrics(collector),
		session.WithForceReadOnly(command.Bool("read-only")),
	}

	eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
	if eventBus != nil {
		defer func() {
			if err := eventBus.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
			}
		}()

		if err := subscribeLifecycle(ctx, eventBus); err != nil {
			return err
		}

		opts = append(opts, session.WithEventBus(eventBus))
	}

	redisClient, err := cmd.NewRedisClient(ctx, logger, command.String("redis-url"))
	if err != nil {
		return err
	}

	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close redis client", "error", err)
			}
		}()

		opts = append(opts, session.WithRedis(redisClient, command.String("redis-channel-prefix")))
	}

	sessions := session.NewManager(opts...)
	defer sessions.CloseAll(context.WithoutCancel(ctx))

	api := NewAPI(log.WithModule("api"), sessions, registry, collector, tracer)

	if err := api.Start(command.Int("port")); err != nil {
		logger.ErrorContext(ctx, "Failed to start designer API", "error", err)

		return err
	}

	return nil
}

// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func newTracer(ctx context.Context, enabled bool) (trace.Tracer, otelhelper.ShutdownFunc, error) {
	if !enabled {
		return otelhelper.NoopTracer(), func(context.Context) error { return nil }, nil
	}

	return otelhelper.NewTracer(ctx, serviceName)
}

// subscribeLifecycle logs session lifecycle events delivered through the bus.
func subscribeLifecycle(ctx context.Context, bus eventbus.EventBus) error {
	logger := log.WithModule("lifecycle")

	handle := func(_ context.Context, event any) error {
		switch e := event.(type) {
		case *events.SessionOpened:
			logger.Info("Session opened", "session_id", e.SessionID, "workflow_id", e.WorkflowID, "read_only", e.ReadOnly)
		case *events.SessionClosed:
			logger.Info("Session closed", "session_id", e.SessionID, "workflow_id", e.WorkflowID)
		case *events.DefinitionChanged:
			logger.Debug("Definition changed",
				"session_id", e.SessionID,
				"workflow_id", e.WorkflowID,
				"nodes", e.NodeCount,
				"connections", e.ConnectionCount,
			)
		}

		return nil
	}

	for _, eventType := range []events.EventType{
		events.SessionOpenedEvent,
		events.SessionClosedEvent,
		events.DefinitionChangedEvent,
	} {
		if err := bus.Handle(eventType, handle); err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}
