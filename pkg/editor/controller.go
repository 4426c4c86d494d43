package editor

import (
	"errors"
	"log/slog"

	"github.com/dukex/operion-designer/pkg/canvas"
	"github.com/dukex/operion-designer/pkg/models"
)

var (
	// ErrReadOnly is returned by every mutating entry point of a read-only controller.
	ErrReadOnly = errors.New("editor is read-only")

	// ErrUnknownEvent is returned for an event outside the input alphabet.
	ErrUnknownEvent = errors.New("unknown editor event")
)

// Mutator is the part of the graph store the controller drives.
type Mutator interface {
	AddNode(t models.NodeType, pos models.Position) (string, error)
	RemoveNode(id string) error
	AddConnection(sourceID, targetID string) (string, error)
	UpdateNodeLabel(id, label string) error
	UpdateNodeConfig(id string, cfg models.NodeConfig) error
	MoveNode(id string, pos models.Position) error
}

// Mutation names the store call a transition made.
type Mutation string

const (
	MutationNone          Mutation = ""
	MutationAddNode       Mutation = "add_node"
	MutationRemoveNode    Mutation = "remove_node"
	MutationAddConnection Mutation = "add_connection"
)

// Transition records one dispatched event.
type Transition struct {
	From     State
	To       State
	Event    Event
	Mutation Mutation
	// CreatedID is the id returned by AddNode or AddConnection.
	CreatedID string
	Err       error
}

// Committed reports whether the transition changed the graph.
func (t Transition) Committed() bool {
	return t.Mutation != MutationNone && t.Err == nil
}

// Option configures a Controller.
type Option func(*Controller)

// WithReadOnly disables every gesture that would mutate the graph.
func WithReadOnly(readOnly bool) Option {
	return func(c *Controller) {
		c.readOnly = readOnly
	}
}

// WithFrame sets the canvas geometry used to place dropped nodes.
func WithFrame(frame canvas.Frame) Option {
	return func(c *Controller) {
		c.frame = frame
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers fn to receive every transition.
func WithObserver(fn func(Transition)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// Controller is the interaction state machine of one editing session. It
// holds only transient UI state; the graph lives in the store.
type Controller struct {
	store     Mutator
	state     State
	readOnly  bool
	frame     canvas.Frame
	logger    *slog.Logger
	observers []func(Transition)
}

// NewController creates a controller in the Idle state.
func NewController(store Mutator, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		state:  Idle(),
		frame:  canvas.DefaultFrame(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("module", "editor")

	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// ReadOnly reports whether mutating gestures are disabled.
func (c *Controller) ReadOnly() bool {
	return c.readOnly
}

// Frame returns the canvas geometry used for drops.
func (c *Controller) Frame() canvas.Frame {
	return c.frame
}

// Dispatch applies one event. It makes at most one store call, and the
// state follows the transition table even when the store rejects the call.
// In read-only mode, mutating events leave the state unchanged.
func (c *Controller) Dispatch(ev Event) Transition {
	t := Transition{From: c.state, To: c.state, Event: ev}

	switch {
	case ev == nil:
		t.Err = ErrUnknownEvent
	case c.readOnly && mutates(ev):
		t.Err = ErrReadOnly
	default:
		c.apply(&t)
	}

	c.state = t.To

	c.logger.Debug("Transition",
		"event", kindOf(ev),
		"from", t.From.String(),
		"to", t.To.String(),
		"mutation", t.Mutation,
		"created_id", t.CreatedID,
		"error", t.Err,
	)

	for _, fn := range c.observers {
		fn(t)
	}

	return t
}

func (c *Controller) apply(t *Transition) {
	from := t.From

	switch e := t.Event.(type) {
	case ClickNode:
		switch from.Mode {
		case ModeConnecting:
			t.To = Idle()
			t.Mutation = MutationAddConnection
			t.CreatedID, t.Err = c.store.AddConnection(from.NodeID, e.NodeID)
		case ModeNodeSelected:
			if from.NodeID == e.NodeID {
				t.To = Idle()
			} else {
				t.To = NodeSelected(e.NodeID)
			}
		default:
			t.To = NodeSelected(e.NodeID)
		}

	case ClickCanvas:
		t.To = Idle()

	case ClickConnectHandle:
		t.To = Connecting(e.NodeID)

	case DropPaletteItem:
		t.To = Idle()
		t.Mutation = MutationAddNode
		t.CreatedID, t.Err = c.store.AddNode(e.Type, c.frame.ToCanvas(e.Viewport))

	case DeleteCommand:
		selected, ok := from.Selected()
		if !ok {
			return
		}

		t.To = Idle()
		t.Mutation = MutationRemoveNode
		t.Err = c.store.RemoveNode(selected)

	default:
		t.Err = ErrUnknownEvent
	}
}

func kindOf(ev Event) EventKind {
	if ev == nil {
		return ""
	}

	return ev.Kind()
}

// EditLabel renames a node from the property panel.
func (c *Controller) EditLabel(nodeID, label string) error {
	if c.readOnly {
		return ErrReadOnly
	}

	return c.store.UpdateNodeLabel(nodeID, label)
}

// EditConfig replaces a node's config from the property panel.
func (c *Controller) EditConfig(nodeID string, cfg models.NodeConfig) error {
	if c.readOnly {
		return ErrReadOnly
	}

	return c.store.UpdateNodeConfig(nodeID, cfg)
}

// MoveNode commits the end of a drag.
func (c *Controller) MoveNode(nodeID string, pos models.Position) error {
	if c.readOnly {
		return ErrReadOnly
	}

	return c.store.MoveNode(nodeID, pos)
}

// IsReadOnly checks if an error indicates a refused read-only gesture.
func IsReadOnly(err error) bool {
	return errors.Is(err, ErrReadOnly)
}
