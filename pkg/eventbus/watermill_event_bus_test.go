package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/operion-designer/pkg/channels/gochannel"
	"github.com/dukex/operion-designer/pkg/eventbus"
	"github.com/dukex/operion-designer/pkg/events"
	"github.com/dukex/operion-designer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishDefinitionChanged(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)
	received := make(chan *events.DefinitionChanged, 1)

	require.NoError(t, bus.Handle(events.DefinitionChangedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.DefinitionChanged)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	def := models.WorkflowDefinition{
		ID:      "wf-1",
		Name:    "Onboarding",
		Version: 1,
		Nodes:   []*models.WorkflowNode{{ID: "s", Type: models.NodeTypeStart, Label: "Start"}},
	}

	require.NoError(t, bus.Publish(ctx, "wf-1", events.NewDefinitionChanged("session-1", def)))

	select {
	case event := <-received:
		assert.Equal(t, "session-1", event.SessionID)
		assert.Equal(t, "wf-1", event.Definition.ID)
		assert.Equal(t, 1, event.NodeCount)
	case <-time.After(2 * time.Second):
		t.Fatal("definition.changed event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledEventIsAcked(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)
	closed := make(chan *events.SessionClosed, 1)

	require.NoError(t, bus.Handle(events.SessionClosedEvent, func(_ context.Context, event any) error {
		closed <- event.(*events.SessionClosed)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	opened := &events.SessionOpened{BaseEvent: events.NewBaseEvent(events.SessionOpenedEvent, "wf-2")}
	require.NoError(t, bus.Publish(ctx, "wf-2", opened))

	require.NoError(t, bus.Publish(ctx, "wf-2", &events.SessionClosed{BaseEvent: events.NewBaseEvent(events.SessionClosedEvent, "wf-2")}))

	select {
	case event := <-closed:
		assert.Equal(t, "wf-2", event.WorkflowID)
	case <-time.After(2 * time.Second):
		t.Fatal("session.closed event was not delivered")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
