package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dukex/operion-designer/pkg/canvas"
	"github.com/dukex/operion-designer/pkg/editor"
	"github.com/dukex/operion-designer/pkg/eventbus"
	"github.com/dukex/operion-designer/pkg/events"
	"github.com/dukex/operion-designer/pkg/graph"
	"github.com/dukex/operion-designer/pkg/metrics"
	"github.com/dukex/operion-designer/pkg/models"
	"github.com/dukex/operion-designer/pkg/notify"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Options describes a session to open.
type Options struct {
	// Definition to edit. Nil starts from the default start/end definition.
	Definition *models.WorkflowDefinition
	ReadOnly   bool
	// Frame overrides the manager's canvas geometry.
	Frame *canvas.Frame
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithEventBus publishes session lifecycle and change events on the bus.
func WithEventBus(publisher eventbus.EventPublisher) ManagerOption {
	return func(m *Manager) {
		m.publisher = publisher
	}
}

// WithRedis mirrors every committed change onto a Redis pub/sub channel.
func WithRedis(client redis.UniversalClient, channelPrefix string) ManagerOption {
	return func(m *Manager) {
		m.redis = client
		m.redisPrefix = channelPrefix
	}
}

// WithMetrics records transitions and session counts.
func WithMetrics(collector *metrics.Collector) ManagerOption {
	return func(m *Manager) {
		m.metrics = collector
	}
}

func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithFrame sets the default canvas geometry of new sessions.
func WithFrame(frame canvas.Frame) ManagerOption {
	return func(m *Manager) {
		m.frame = frame
	}
}

// WithForceReadOnly opens every session read-only.
func WithForceReadOnly(readOnly bool) ManagerOption {
	return func(m *Manager) {
		m.forceReadOnly = readOnly
	}
}

// WithIDGenerator sets the id source of new sessions and of their stores.
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.nextID = fn
		}
	}
}

// Manager keeps the open sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	publisher     eventbus.EventPublisher
	redis         redis.UniversalClient
	redisPrefix   string
	metrics       *metrics.Collector
	frame         canvas.Frame
	forceReadOnly bool
	nextID        func() string
	logger        *slog.Logger
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		frame:    canvas.DefaultFrame(),
		nextID:   uuid.NewString,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.logger = m.logger.With("module", "session")

	return m
}

// Open creates a session. ctx only covers the call itself; change
// notifications outlive the request that opened the session.
func (m *Manager) Open(ctx context.Context, opts Options) (*Session, error) {
	id := m.nextID()
	readOnly := opts.ReadOnly || m.forceReadOnly
	sinkCtx := context.Background()

	storeOpts := []graph.Option{
		graph.WithIDGenerator(m.nextID),
		graph.WithLogger(m.logger.With("session_id", id)),
	}

	if m.metrics != nil {
		storeOpts = append(storeOpts, graph.WithChangeFunc(func(models.WorkflowDefinition) {
			m.metrics.Changes.Inc()
		}))
	}

	if m.publisher != nil {
		storeOpts = append(storeOpts, graph.WithChangeFunc(notify.EventBusSink(sinkCtx, m.publisher, id, m.logger)))
	}

	if m.redis != nil {
		storeOpts = append(storeOpts, graph.WithChangeFunc(notify.RedisSink(sinkCtx, m.redis, m.redisPrefix, m.logger)))
	}

	store, err := graph.NewStore(opts.Definition, storeOpts...)
	if err != nil {
		return nil, err
	}

	frame := m.frame
	if opts.Frame != nil {
		frame = *opts.Frame
	}

	controllerOpts := []editor.Option{
		editor.WithReadOnly(readOnly),
		editor.WithFrame(frame),
		editor.WithLogger(m.logger.With("session_id", id)),
	}

	if m.metrics != nil {
		controllerOpts = append(controllerOpts, editor.WithObserver(m.metrics.Observe))
	}

	s := &Session{
		id:         id,
		createdAt:  time.Now().UTC(),
		store:      store,
		controller: editor.NewController(store, controllerOpts...),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveSessions.Inc()
	}

	workflowID := store.Snapshot().ID

	m.publish(ctx, workflowID, events.NewSessionOpened(id, workflowID, readOnly))

	m.logger.InfoContext(ctx, "Session opened",
		"session_id", id,
		"workflow_id", workflowID,
		"read_only", readOnly,
	)

	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return s, nil
}

// Close ends a session. Calls on a closed session fail with ErrSessionClosed.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	workflowID := s.WorkflowID()
	s.close()

	if m.metrics != nil {
		m.metrics.ActiveSessions.Dec()
	}

	m.publish(ctx, workflowID, events.NewSessionClosed(id, workflowID))

	m.logger.InfoContext(ctx, "Session closed", "session_id", id, "workflow_id", workflowID)

	return nil
}

// CloseAll closes every open session.
func (m *Manager) CloseAll(ctx context.Context) {
	for _, id := range m.IDs() {
		if err := m.Close(ctx, id); err != nil && !IsNotFound(err) {
			m.logger.ErrorContext(ctx, "Failed to close session", "session_id", id, "error", err)
		}
	}
}

// IDs returns the open session ids in lexical order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

func (m *Manager) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if m.publisher == nil {
		return
	}

	// Delivery may outlive ctx, so the message does not carry it.
	if err := m.publisher.Publish(context.Background(), workflowID, event); err != nil {
		m.logger.ErrorContext(ctx, "Failed to publish session event",
			"error", err,
			"event_type", event.GetType(),
			"workflow_id", workflowID,
		)
	}
}
