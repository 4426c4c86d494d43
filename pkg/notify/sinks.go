package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dukex/operion-designer/pkg/eventbus"
	"github.com/dukex/operion-designer/pkg/events"
	"github.com/dukex/operion-designer/pkg/models"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannelPrefix prefixes the pub/sub channel of each workflow.
const DefaultRedisChannelPrefix = "operion:designer:changes:"

// EventBusSink publishes every snapshot as a definition.changed event keyed by
// workflow id. Publishing errors are logged and dropped.
func EventBusSink(ctx context.Context, publisher eventbus.EventPublisher, sessionID string, logger *slog.Logger) ChangeFunc {
	return func(definition models.WorkflowDefinition) {
		event := events.NewDefinitionChanged(sessionID, definition)

		if err := publisher.Publish(ctx, definition.ID, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish definition change",
				"error", err,
				"workflow_id", definition.ID,
				"session_id", sessionID,
			)
		}
	}
}

// RedisSink publishes every snapshot as JSON on the workflow's Redis channel.
func RedisSink(ctx context.Context, client redis.UniversalClient, prefix string, logger *slog.Logger) ChangeFunc {
	if prefix == "" {
		prefix = DefaultRedisChannelPrefix
	}

	return func(definition models.WorkflowDefinition) {
		payload, err := json.Marshal(definition)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to marshal definition", "error", err, "workflow_id", definition.ID)

			return
		}

		if err := client.Publish(ctx, prefix+definition.ID, payload).Err(); err != nil {
			logger.ErrorContext(ctx, "Failed to publish definition to redis",
				"error", err,
				"workflow_id", definition.ID,
			)
		}
	}
}
