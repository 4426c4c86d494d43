// Package web provides HTTP request and response types for the designer API.
package web

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukex/operion-designer/pkg/canvas"
	"github.com/dukex/operion-designer/pkg/editor"
	"github.com/dukex/operion-designer/pkg/metrics"
	"github.com/dukex/operion-designer/pkg/models"
	"github.com/dukex/operion-designer/pkg/registry"
	"github.com/dukex/operion-designer/pkg/session"
)

// CreateSessionRequest represents the request body for opening an editing session.
type CreateSessionRequest struct {
	Definition   *models.WorkflowDefinition `json:"definition,omitempty"`
	ReadOnly     bool                       `json:"read_only"`
	CanvasOrigin *canvas.Point              `json:"canvas_origin,omitempty"`
}

// EventRequest represents one canvas gesture. NodeID is used by click_node
// and click_connect_handle; Type, X and Y by drop_palette_item.
type EventRequest struct {
	Kind   string  `json:"kind"              validate:"required,oneof=click_node click_canvas click_connect_handle drop_palette_item delete_command"`
	NodeID string  `json:"node_id,omitempty"`
	Type   string  `json:"type,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ToEvent converts the request into a controller event.
func (r EventRequest) ToEvent() (editor.Event, error) {
	switch editor.EventKind(r.Kind) {
	case editor.KindClickNode:
		if r.NodeID == "" {
			return nil, fmt.Errorf("node_id is required for %s", r.Kind)
		}

		return editor.ClickNode{NodeID: r.NodeID}, nil
	case editor.KindClickCanvas:
		return editor.ClickCanvas{}, nil
	case editor.KindClickConnectHandle:
		if r.NodeID == "" {
			return nil, fmt.Errorf("node_id is required for %s", r.Kind)
		}

		return editor.ClickConnectHandle{NodeID: r.NodeID}, nil
	case editor.KindDropPaletteItem:
		t := models.NodeType(r.Type)
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: %q", registry.ErrUnknownNodeType, r.Type)
		}

		return editor.DropPaletteItem{Type: t, Viewport: canvas.Point{X: r.X, Y: r.Y}}, nil
	case editor.KindDeleteCommand:
		return editor.DeleteCommand{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", editor.ErrUnknownEvent, r.Kind)
	}
}

// UpdateNodeRequest represents a property panel edit. Absent fields are left
// alone; a null config clears the config.
type UpdateNodeRequest struct {
	Label    *string          `json:"label,omitempty"    validate:"omitempty,max=200"`
	Config   json.RawMessage  `json:"config,omitempty"`
	Position *models.Position `json:"position,omitempty"`
}

// UpdateConnectionRequest represents the request body for labelling a connection.
type UpdateConnectionRequest struct {
	Label     string `json:"label"     validate:"max=200"`
	Condition string `json:"condition" validate:"max=1000"`
}

// SessionResponse is the full state of a session.
type SessionResponse struct {
	ID         string                    `json:"id"`
	ReadOnly   bool                      `json:"read_only"`
	CreatedAt  time.Time                 `json:"created_at"`
	Definition models.WorkflowDefinition `json:"definition"`
	View       editor.View               `json:"view"`
}

// NewSessionResponse reads the session's definition and projection.
func NewSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:         s.ID(),
		ReadOnly:   s.ReadOnly(),
		CreatedAt:  s.CreatedAt(),
		Definition: s.Snapshot(),
		View:       s.View(),
	}
}

// Rejection explains why a gesture's mutation did not apply.
type Rejection struct {
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// TransitionResponse describes the outcome of one gesture.
type TransitionResponse struct {
	From      editor.State     `json:"from"`
	To        editor.State     `json:"to"`
	Event     editor.EventKind `json:"event"`
	Mutation  editor.Mutation  `json:"mutation,omitempty"`
	CreatedID string           `json:"created_id,omitempty"`
	Committed bool             `json:"committed"`
	Rejection *Rejection       `json:"rejection,omitempty"`
	View      editor.View      `json:"view"`
}

// NewTransitionResponse builds the response for a dispatched transition.
func NewTransitionResponse(t editor.Transition, view editor.View) TransitionResponse {
	resp := TransitionResponse{
		From:      t.From,
		To:        t.To,
		Mutation:  t.Mutation,
		CreatedID: t.CreatedID,
		Committed: t.Committed(),
		View:      view,
	}

	if t.Event != nil {
		resp.Event = t.Event.Kind()
	}

	if t.Err != nil {
		resp.Rejection = &Rejection{Reason: metrics.Reason(t.Err), Detail: t.Err.Error()}
	}

	return resp
}

// NodeTypeResponse describes one palette entry.
type NodeTypeResponse struct {
	Type         models.NodeType `json:"type"`
	DefaultLabel string          `json:"default_label"`
	Protected    bool            `json:"protected"`
	ConfigSchema map[string]any  `json:"config_schema,omitempty"`
}

// TransformNodeTypes converts the registry listing into responses.
func TransformNodeTypes(infos []registry.NodeTypeInfo) []NodeTypeResponse {
	out := make([]NodeTypeResponse, 0, len(infos))

	for _, info := range infos {
		out = append(out, NodeTypeResponse{
			Type:         info.Type,
			DefaultLabel: info.DefaultLabel,
			Protected:    info.Protected,
			ConfigSchema: info.ConfigSchema,
		})
	}

	return out
}
