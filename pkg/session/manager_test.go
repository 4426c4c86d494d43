package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dukex/operion-designer/pkg/canvas"
	"github.com/dukex/operion-designer/pkg/editor"
	"github.com/dukex/operion-designer/pkg/eventbus"
	"github.com/dukex/operion-designer/pkg/events"
	"github.com/dukex/operion-designer/pkg/graph"
	"github.com/dukex/operion-designer/pkg/log"
	"github.com/dukex/operion-designer/pkg/metrics"
	"github.com/dukex/operion-designer/pkg/mocks"
	"github.com/dukex/operion-designer/pkg/models"
	"github.com/dukex/operion-designer/pkg/notify"
	"github.com/dukex/operion-designer/pkg/testutil"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.GetType())
	}

	return types
}

func newTestManager(opts ...ManagerOption) *Manager {
	return NewManager(append([]ManagerOption{
		WithLogger(log.Discard()),
		WithIDGenerator(testutil.SequentialIDs("id")),
	}, opts...)...)
}

func TestManager_Lifecycle(t *testing.T) {
	t.Parallel()

	publisher := &recordingPublisher{}
	m := newTestManager(WithEventBus(publisher))
	ctx := context.Background()

	s, err := m.Open(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "id-1", s.ID())
	assert.False(t, s.CreatedAt().IsZero())
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	def := s.Snapshot()
	assert.Equal(t, models.DefaultWorkflowName, def.Name)
	assert.Len(t, def.Nodes, 2)
	assert.Equal(t, def.ID, s.WorkflowID())

	tr, err := s.Dispatch(editor.DropPaletteItem{Type: models.NodeTypeTask, Viewport: canvas.Point{X: 375, Y: 230}})
	require.NoError(t, err)
	require.True(t, tr.Committed())

	require.NoError(t, m.Close(ctx, s.ID()))
	assert.Equal(t, 0, m.Len())

	_, err = m.Get(s.ID())
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, m.Close(ctx, s.ID()), ErrSessionNotFound)

	_, err = s.Dispatch(editor.ClickCanvas{})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.RemoveConnection("x"), ErrSessionClosed)

	assert.Equal(t, []events.EventType{
		events.SessionOpenedEvent,
		events.DefinitionChangedEvent,
		events.SessionClosedEvent,
	}, publisher.types())
}

func TestManager_OpenWithDefinition(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	task := testutil.CreateTestNode(testutil.WithNodeID("task"))
	def := testutil.CreateTestDefinition(
		testutil.WithNodes(task),
		testutil.WithConnections(testutil.CreateTestConnection("start", "task", testutil.WithConnectionID("c1"))),
	)

	s, err := m.Open(context.Background(), Options{Definition: def})
	require.NoError(t, err)
	assert.Equal(t, "wf-test", s.WorkflowID())

	view := s.View()
	assert.Equal(t, editor.Idle(), view.State)
	assert.Len(t, view.Nodes, 3)
	assert.Len(t, view.Connections, 1)

	broken := testutil.CreateTestDefinition(
		testutil.WithConnections(testutil.CreateTestConnection("start", "ghost")),
	)
	_, err = m.Open(context.Background(), Options{Definition: broken})
	assert.True(t, graph.IsInvalidDefinition(err))
	assert.Equal(t, 1, m.Len())
}

func TestManager_ReadOnly(t *testing.T) {
	t.Parallel()

	publisher := &recordingPublisher{}
	m := newTestManager(WithForceReadOnly(true), WithEventBus(publisher))

	s, err := m.Open(context.Background(), Options{})
	require.NoError(t, err)
	assert.True(t, s.ReadOnly())

	opened, ok := publisher.events[0].(*events.SessionOpened)
	require.True(t, ok)
	assert.True(t, opened.ReadOnly)

	tr, err := s.Dispatch(editor.DropPaletteItem{Type: models.NodeTypeTask})
	require.NoError(t, err)
	assert.True(t, editor.IsReadOnly(tr.Err))

	label := "Renamed"
	assert.ErrorIs(t, s.EditNode("id-3", NodeEdit{Label: &label}), editor.ErrReadOnly)
	assert.ErrorIs(t, s.RemoveConnection("c"), editor.ErrReadOnly)
	assert.ErrorIs(t, s.UpdateConnection("c", "yes", ""), editor.ErrReadOnly)
	assert.Len(t, s.Snapshot().Nodes, 2)
	assert.Len(t, publisher.events, 1)
}

func TestSession_EditNode(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	approval := testutil.CreateTestNode(
		testutil.WithNodeID("approval"),
		testutil.WithConfig(models.ApprovalConfig{AssigneeRole: "clerk"}),
	)

	s, err := m.Open(context.Background(), Options{Definition: testutil.CreateTestDefinition(testutil.WithNodes(approval))})
	require.NoError(t, err)

	label := "Manager approval"
	pos := models.Position{X: -20, Y: 15}

	require.NoError(t, s.EditNode("approval", NodeEdit{
		Label:     &label,
		SetConfig: true,
		Config:    models.ApprovalConfig{AssigneeRole: "manager"},
		Position:  &pos,
	}))

	node := s.Snapshot().NodeByID("approval")
	require.NotNil(t, node)
	assert.Equal(t, label, node.Label)
	assert.Equal(t, models.ApprovalConfig{AssigneeRole: "manager"}, node.Config)
	assert.Equal(t, pos, node.Position)

	other := "Should not apply"
	err = s.EditNode("approval", NodeEdit{
		Label:     &other,
		SetConfig: true,
		Config:    models.DelayConfig{DelayDays: 2},
	})
	assert.ErrorIs(t, err, graph.ErrConfigMismatch)
	assert.Equal(t, label, s.Snapshot().NodeByID("approval").Label)

	err = s.EditNode("ghost", NodeEdit{Label: &other})
	assert.True(t, graph.IsReferenceError(err))
}

func TestSession_Connections(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	def := testutil.CreateTestDefinition(
		testutil.WithConnections(testutil.CreateTestConnection("start", "end", testutil.WithConnectionID("c1"))),
	)

	s, err := m.Open(context.Background(), Options{Definition: def})
	require.NoError(t, err)

	require.NoError(t, s.UpdateConnection("c1", "approved", "amount < 100"))
	conn := s.Snapshot().Connections[0]
	assert.Equal(t, "approved", conn.Label)
	assert.Equal(t, "amount < 100", conn.Condition)

	require.NoError(t, s.RemoveConnection("c1"))
	assert.Empty(t, s.Snapshot().Connections)
	assert.True(t, graph.IsReferenceError(s.RemoveConnection("c1")))
}

func TestManager_Metrics(t *testing.T) {
	t.Parallel()

	collector := metrics.NewCollector("test")
	m := newTestManager(WithMetrics(collector))
	ctx := context.Background()

	s, err := m.Open(ctx, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 1, promtestutil.ToFloat64(collector.ActiveSessions), 0)

	_, err = s.Dispatch(editor.DropPaletteItem{Type: models.NodeTypeDelay})
	require.NoError(t, err)
	_, err = s.Dispatch(editor.ClickCanvas{})
	require.NoError(t, err)

	assert.InDelta(t, 1, promtestutil.ToFloat64(collector.Changes), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(collector.Mutations.WithLabelValues("add_node", metrics.OutcomeCommitted, metrics.OutcomeNone)), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(collector.Transitions.WithLabelValues("click_canvas", "idle", "idle")), 0)

	m.CloseAll(ctx)
	assert.InDelta(t, 0, promtestutil.ToFloat64(collector.ActiveSessions), 0)
	assert.Empty(t, m.IDs())
}

func TestManager_Redis(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m := newTestManager(WithRedis(client, ""))

	s, err := m.Open(ctx, Options{})
	require.NoError(t, err)

	pubsub := client.Subscribe(ctx, notify.DefaultRedisChannelPrefix+s.WorkflowID())
	defer pubsub.Close()

	_, err = pubsub.Receive(ctx)
	require.NoError(t, err)

	_, err = s.Dispatch(editor.DropPaletteItem{Type: models.NodeTypeNotification})
	require.NoError(t, err)

	msg, err := pubsub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var def models.WorkflowDefinition
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &def))
	assert.Len(t, def.Nodes, 3)
}

func TestSession_ConcurrentDispatch(t *testing.T) {
	t.Parallel()

	m := NewManager(WithLogger(log.Discard()))

	s, err := m.Open(context.Background(), Options{})
	require.NoError(t, err)

	const workers = 8

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _ = s.Dispatch(editor.DropPaletteItem{Type: models.NodeTypeTask})
			_ = s.View()
		}()
	}

	wg.Wait()

	assert.Len(t, s.Snapshot().Nodes, 2+workers)
}

func TestManager_PublishFailureDoesNotBlockEditing(t *testing.T) {
	t.Parallel()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker unavailable"))

	m := newTestManager(WithEventBus(bus))
	ctx := context.Background()

	s, err := m.Open(ctx, Options{})
	require.NoError(t, err)

	tr, err := s.Dispatch(editor.DropPaletteItem{Type: models.NodeTypeDecision})
	require.NoError(t, err)
	assert.True(t, tr.Committed())
	assert.Len(t, s.Snapshot().Nodes, 3)

	require.NoError(t, m.Close(ctx, s.ID()))

	bus.AssertNumberOfCalls(t, "Publish", 3)
	bus.AssertCalled(t, "Publish", mock.Anything, s.WorkflowID(), mock.AnythingOfType("*events.DefinitionChanged"))
}
