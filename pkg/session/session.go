// Package session owns the in-memory editing sessions. Each session holds
// one graph store and one interaction controller and serialises access to them.
package session

import (
	"sync"
	"time"

	"github.com/dukex/operion-designer/pkg/editor"
	"github.com/dukex/operion-designer/pkg/graph"
	"github.com/dukex/operion-designer/pkg/models"
)

// NodeEdit is a property panel edit. Nil fields are left alone; SetConfig
// with a nil Config clears the config.
type NodeEdit struct {
	Label     *string
	SetConfig bool
	Config    models.NodeConfig
	Position  *models.Position
}

// Session is one editor instance bound to one workflow definition.
type Session struct {
	id        string
	createdAt time.Time

	mu         sync.Mutex
	closed     bool
	store      *graph.Store
	controller *editor.Controller
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// ReadOnly reports whether the session refuses mutating gestures.
func (s *Session) ReadOnly() bool {
	return s.controller.ReadOnly()
}

// WorkflowID returns the id of the edited definition.
func (s *Session) WorkflowID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Snapshot().ID
}

// Dispatch feeds one gesture into the controller.
func (s *Session) Dispatch(ev editor.Event) (editor.Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return editor.Transition{}, ErrSessionClosed
	}

	return s.controller.Dispatch(ev), nil
}

// State returns the controller state.
func (s *Session) State() editor.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.controller.State()
}

// Snapshot returns a copy of the definition.
func (s *Session) Snapshot() models.WorkflowDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Snapshot()
}

// View projects the current state onto the current definition.
func (s *Session) View() editor.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return editor.Project(s.controller.State(), s.store.Snapshot())
}

// EditNode applies a property panel edit. The config is applied first, so a
// mismatched variant leaves the label and position untouched.
func (s *Session) EditNode(nodeID string, edit NodeEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if s.controller.ReadOnly() {
		return editor.ErrReadOnly
	}

	if !s.store.HasNode(nodeID) {
		return &graph.MutationError{Op: "EditNode", NodeID: nodeID, Err: graph.ErrNodeNotFound}
	}

	if edit.SetConfig {
		if err := s.controller.EditConfig(nodeID, edit.Config); err != nil {
			return err
		}
	}

	if edit.Label != nil {
		if err := s.controller.EditLabel(nodeID, *edit.Label); err != nil {
			return err
		}
	}

	if edit.Position != nil {
		if err := s.controller.MoveNode(nodeID, *edit.Position); err != nil {
			return err
		}
	}

	return nil
}

// RemoveConnection deletes a connection.
func (s *Session) RemoveConnection(connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}

	return s.store.RemoveConnection(connectionID)
}

// UpdateConnection sets the label and condition of a connection.
func (s *Session) UpdateConnection(connectionID, label, condition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}

	return s.store.UpdateConnection(connectionID, label, condition)
}

func (s *Session) writable() error {
	if s.closed {
		return ErrSessionClosed
	}

	if s.controller.ReadOnly() {
		return editor.ErrReadOnly
	}

	return nil
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
}
