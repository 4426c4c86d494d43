package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/operion-designer/pkg/channels/gochannel"
	"github.com/dukex/operion-designer/pkg/eventbus"
	"github.com/dukex/operion-designer/pkg/events"
	"github.com/dukex/operion-designer/pkg/log"
	"github.com/dukex/operion-designer/pkg/metrics"
	"github.com/dukex/operion-designer/pkg/otelhelper"
	"github.com/dukex/operion-designer/pkg/registry"
	"github.com/dukex/operion-designer/pkg/session"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, opts ...session.ManagerOption) (*fiber.App, *metrics.Collector) {
	t.Helper()

	reg, err := registry.NewRegistry(log.Discard())
	require.NoError(t, err)

	collector := metrics.NewCollector("test")
	sessions := session.NewManager(append([]session.ManagerOption{
		session.WithLogger(log.Discard()),
		session.WithMetrics(collector),
	}, opts...)...)

	api := NewAPI(log.Discard(), sessions, reg, collector, otelhelper.NoopTracer())

	return api.App(), collector
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Operion Designer", readBody(t, resp))
}

func TestAPI_Probes(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "OK", readBody(t, resp))
	}
}

func TestAPI_Metrics(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/sessions", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &created))

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+created.ID+"/events",
		strings.NewReader(`{"kind":"drop_palette_item","type":"task","x":200,"y":120}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, readBody(t, resp))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "test_sessions_active 1")
	assert.Contains(t, body, `test_graph_mutations_total{mutation="add_node",outcome="committed",reason="none"} 1`)
	assert.Contains(t, body, "test_definition_changes_total 1")
}

func TestSubscribeLifecycle(t *testing.T) {
	t.Parallel()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, subscribeLifecycle(ctx, bus))

	received := make(chan events.EventType, 4)
	require.NoError(t, bus.Handle(events.SessionOpenedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.SessionOpened).GetType()

		return nil
	}))

	manager := session.NewManager(session.WithLogger(log.Discard()), session.WithEventBus(bus))
	_, err = manager.Open(ctx, session.Options{})
	require.NoError(t, err)

	select {
	case eventType := <-received:
		assert.Equal(t, events.SessionOpenedEvent, eventType)
	case <-ctx.Done():
		t.Fatal("session opened event not delivered")
	}
}

func TestNewTracer_Disabled(t *testing.T) {
	t.Parallel()

	tracer, shutdown, err := newTracer(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, tracer)
	assert.NoError(t, shutdown(context.Background()))
}
