// Package graph owns a workflow definition and mutates it without ever
// exposing a state that breaks the graph invariants.
package graph

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/dukex/operion-designer/pkg/models"
	"github.com/dukex/operion-designer/pkg/notify"
	"github.com/dukex/operion-designer/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Default canvas positions of the nodes in a new definition.
var (
	DefaultStartPosition = models.Position{X: 100, Y: 200}
	DefaultEndPosition   = models.Position{X: 600, Y: 200}
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// maxIDAttempts bounds how many duplicate or empty ids newID tolerates.
const maxIDAttempts = 100

// Store is the single source of truth for one editing session. It is not
// safe for concurrent use; the owning session serialises access.
//
// Subscribers are notified once per committed change. Rejected calls and
// updates that leave a field at its current value do not notify.
type Store struct {
	def      models.WorkflowDefinition
	nodes    map[string]*models.WorkflowNode
	issued   map[string]struct{}
	nextID   func() string
	notifier *notify.Notifier
	pending  []notify.ChangeFunc
	logger   *slog.Logger
}

// NewStore creates a store from a copy of initial, or from the default
// definition (one start node, one end node) when initial is nil.
func NewStore(initial *models.WorkflowDefinition, opts ...Option) (*Store, error) {
	s := &Store{
		nodes:  make(map[string]*models.WorkflowNode),
		issued: make(map[string]struct{}),
		nextID: uuid.NewString,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "graph")

	if s.notifier == nil {
		s.notifier = notify.New()
	}

	for _, fn := range s.pending {
		s.notifier.Subscribe(fn)
	}

	s.pending = nil

	if initial == nil {
		def, err := s.defaultDefinition()
		if err != nil {
			return nil, err
		}

		s.def = def
	} else {
		s.def = initial.Clone()

		if err := s.check(); err != nil {
			return nil, err
		}
	}

	for _, node := range s.def.Nodes {
		s.nodes[node.ID] = node
		s.issued[node.ID] = struct{}{}
	}

	for _, conn := range s.def.Connections {
		s.issued[conn.ID] = struct{}{}
	}

	s.issued[s.def.ID] = struct{}{}

	return s, nil
}

func (s *Store) defaultDefinition() (models.WorkflowDefinition, error) {
	defID, err := s.newID()
	if err != nil {
		return models.WorkflowDefinition{}, err
	}

	def := models.WorkflowDefinition{
		ID:          defID,
		Name:        models.DefaultWorkflowName,
		Nodes:       make([]*models.WorkflowNode, 0, 2),
		Connections: make([]*models.WorkflowConnection, 0),
		Version:     1,
		IsActive:    false,
	}

	for _, seed := range []struct {
		nodeType models.NodeType
		position models.Position
	}{
		{models.NodeTypeStart, DefaultStartPosition},
		{models.NodeTypeEnd, DefaultEndPosition},
	} {
		id, err := s.newID()
		if err != nil {
			return models.WorkflowDefinition{}, err
		}

		def.Nodes = append(def.Nodes, &models.WorkflowNode{
			ID:       id,
			Type:     seed.nodeType,
			Label:    registry.DefaultLabel(seed.nodeType),
			Position: seed.position,
		})
	}

	return def, nil
}

// check verifies an externally supplied definition.
func (s *Store) check() error {
	if err := validate.Struct(&s.def); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	seen := make(map[string]*models.WorkflowNode, len(s.def.Nodes))

	for _, node := range s.def.Nodes {
		if _, dup := seen[node.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %s", ErrInvalidDefinition, node.ID)
		}

		if err := models.CheckConfig(node.Type, node.Config); err != nil {
			return fmt.Errorf("%w: node %s: %v", ErrInvalidDefinition, node.ID, err)
		}

		seen[node.ID] = node
	}

	connIDs := make(map[string]struct{}, len(s.def.Connections))
	pairs := make(map[[2]string]struct{}, len(s.def.Connections))

	for _, conn := range s.def.Connections {
		if _, dup := connIDs[conn.ID]; dup {
			return fmt.Errorf("%w: duplicate connection id %s", ErrInvalidDefinition, conn.ID)
		}

		if seen[conn.SourceID] == nil || seen[conn.TargetID] == nil {
			return fmt.Errorf("%w: connection %s references a missing node", ErrInvalidDefinition, conn.ID)
		}

		pair := [2]string{conn.SourceID, conn.TargetID}
		if _, dup := pairs[pair]; dup {
			return fmt.Errorf("%w: %s -> %s is connected twice", ErrInvalidDefinition, conn.SourceID, conn.TargetID)
		}

		connIDs[conn.ID] = struct{}{}
		pairs[pair] = struct{}{}
	}

	return nil
}

// newID returns an id the store has never seen.
func (s *Store) newID() (string, error) {
	for range maxIDAttempts {
		id := s.nextID()
		if _, used := s.issued[id]; used || id == "" {
			continue
		}

		s.issued[id] = struct{}{}

		return id, nil
	}

	return "", fmt.Errorf("%w after %d attempts", ErrIDsExhausted, maxIDAttempts)
}

// OnChange subscribes fn to committed changes.
func (s *Store) OnChange(fn notify.ChangeFunc) {
	s.notifier.Subscribe(fn)
}

func (s *Store) commit(op string, attrs ...any) {
	s.logger.Debug("Mutation committed", append([]any{"op", op, "workflow_id", s.def.ID}, attrs...)...)
	s.notifier.Publish(s.def)
}

func (s *Store) reject(err *MutationError) error {
	s.logger.Debug("Mutation rejected",
		"op", err.Op,
		"node_id", err.NodeID,
		"connection_id", err.ConnectionID,
		"error", err.Err,
	)

	return err
}

// Snapshot returns a deep copy of the definition.
func (s *Store) Snapshot() models.WorkflowDefinition {
	return s.def.Clone()
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (*models.WorkflowNode, bool) {
	node, ok := s.nodes[id]
	if !ok {
		return nil, false
	}

	return node.Clone(), true
}

// HasNode reports whether the node exists.
func (s *Store) HasNode(id string) bool {
	_, ok := s.nodes[id]

	return ok
}

// AddNode creates a node of type t at pos with the type's default label and
// no config. Any position is accepted.
func (s *Store) AddNode(t models.NodeType, pos models.Position) (string, error) {
	if !t.IsValid() {
		return "", s.reject(&MutationError{Op: "AddNode", Err: fmt.Errorf("%w: %s", ErrUnknownNodeType, t)})
	}

	id, err := s.newID()
	if err != nil {
		return "", s.reject(&MutationError{Op: "AddNode", Err: err})
	}

	node := &models.WorkflowNode{
		ID:       id,
		Type:     t,
		Label:    registry.DefaultLabel(t),
		Position: pos,
	}

	s.def.Nodes = append(s.def.Nodes, node)
	s.nodes[node.ID] = node

	s.commit("AddNode", "node_id", node.ID, "node_type", t)

	return node.ID, nil
}

// RemoveNode deletes a node and every connection that references it.
// Start and end nodes are refused.
func (s *Store) RemoveNode(id string) error {
	node, ok := s.nodes[id]
	if !ok {
		return s.reject(&MutationError{Op: "RemoveNode", NodeID: id, Err: ErrNodeNotFound})
	}

	if node.Type.IsProtected() {
		return s.reject(&MutationError{Op: "RemoveNode", NodeID: id, Err: ErrProtectedNode})
	}

	before := len(s.def.Connections)

	s.def.Nodes = slices.DeleteFunc(s.def.Nodes, func(n *models.WorkflowNode) bool {
		return n.ID == id
	})
	s.def.Connections = slices.DeleteFunc(s.def.Connections, func(c *models.WorkflowConnection) bool {
		return c.References(id)
	})
	delete(s.nodes, id)

	s.commit("RemoveNode", "node_id", id, "removed_connections", before-len(s.def.Connections))

	return nil
}

// AddConnection connects source to target. Both nodes must exist and the
// ordered pair must not be connected yet. A node may connect to itself.
func (s *Store) AddConnection(sourceID, targetID string) (string, error) {
	for _, id := range []string{sourceID, targetID} {
		if _, ok := s.nodes[id]; !ok {
			return "", s.reject(&MutationError{Op: "AddConnection", NodeID: id, Err: ErrNodeNotFound})
		}
	}

	for _, conn := range s.def.Connections {
		if conn.Connects(sourceID, targetID) {
			return "", s.reject(&MutationError{
				Op:           "AddConnection",
				NodeID:       sourceID,
				ConnectionID: conn.ID,
				Err:          fmt.Errorf("%w: %s -> %s", ErrDuplicateConnection, sourceID, targetID),
			})
		}
	}

	id, err := s.newID()
	if err != nil {
		return "", s.reject(&MutationError{Op: "AddConnection", NodeID: sourceID, Err: err})
	}

	conn := &models.WorkflowConnection{
		ID:       id,
		SourceID: sourceID,
		TargetID: targetID,
	}

	s.def.Connections = append(s.def.Connections, conn)

	s.commit("AddConnection", "connection_id", conn.ID, "source_id", sourceID, "target_id", targetID)

	return conn.ID, nil
}

// RemoveConnection deletes a connection.
func (s *Store) RemoveConnection(id string) error {
	idx := s.connectionIndex(id)
	if idx < 0 {
		return s.reject(&MutationError{Op: "RemoveConnection", ConnectionID: id, Err: ErrConnectionNotFound})
	}

	s.def.Connections = slices.Delete(s.def.Connections, idx, idx+1)

	s.commit("RemoveConnection", "connection_id", id)

	return nil
}

// UpdateConnection sets the label and condition of a connection.
func (s *Store) UpdateConnection(id, label, condition string) error {
	idx := s.connectionIndex(id)
	if idx < 0 {
		return s.reject(&MutationError{Op: "UpdateConnection", ConnectionID: id, Err: ErrConnectionNotFound})
	}

	conn := s.def.Connections[idx]
	if conn.Label == label && conn.Condition == condition {
		return nil
	}

	conn.Label = label
	conn.Condition = condition

	s.commit("UpdateConnection", "connection_id", id)

	return nil
}

func (s *Store) connectionIndex(id string) int {
	return slices.IndexFunc(s.def.Connections, func(c *models.WorkflowConnection) bool {
		return c.ID == id
	})
}

// UpdateNodeLabel sets the display label of a node.
func (s *Store) UpdateNodeLabel(id, label string) error {
	node, ok := s.nodes[id]
	if !ok {
		return s.reject(&MutationError{Op: "UpdateNodeLabel", NodeID: id, Err: ErrNodeNotFound})
	}

	if node.Label == label {
		return nil
	}

	node.Label = label

	s.commit("UpdateNodeLabel", "node_id", id)

	return nil
}

// UpdateNodeConfig replaces the config of a node. The variant must match the
// node type and satisfy its field rules; nil clears the config.
func (s *Store) UpdateNodeConfig(id string, cfg models.NodeConfig) error {
	node, ok := s.nodes[id]
	if !ok {
		return s.reject(&MutationError{Op: "UpdateNodeConfig", NodeID: id, Err: ErrNodeNotFound})
	}

	if err := models.CheckConfig(node.Type, cfg); err != nil {
		return s.reject(&MutationError{Op: "UpdateNodeConfig", NodeID: id, Err: err})
	}

	if cfg != nil {
		if err := validate.Struct(cfg); err != nil {
			return s.reject(&MutationError{Op: "UpdateNodeConfig", NodeID: id, Err: fmt.Errorf("%w: %v", ErrInvalidConfig, err)})
		}
	}

	if node.Config == cfg {
		return nil
	}

	node.Config = cfg

	s.commit("UpdateNodeConfig", "node_id", id)

	return nil
}

// MoveNode sets the canvas position of a node.
func (s *Store) MoveNode(id string, pos models.Position) error {
	node, ok := s.nodes[id]
	if !ok {
		return s.reject(&MutationError{Op: "MoveNode", NodeID: id, Err: ErrNodeNotFound})
	}

	if node.Position == pos {
		return nil
	}

	node.Position = pos

	s.commit("MoveNode", "node_id", id)

	return nil
}
