// Package events defines the notifications the designer publishes about editing sessions.
package events

import (
	"time"

	"github.com/dukex/operion-designer/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "operion.designer.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Editing session lifecycle events.
	SessionOpenedEvent EventType = "session.opened"
	SessionClosedEvent EventType = "session.closed"

	// Graph events.
	DefinitionChangedEvent EventType = "definition.changed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	SessionID  string         `json:"session_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// DefinitionChanged carries the full definition after a committed mutation.
type DefinitionChanged struct {
	BaseEvent

	Definition      models.WorkflowDefinition `json:"definition"`
	NodeCount       int                       `json:"node_count"`
	ConnectionCount int                       `json:"connection_count"`
}

func (d DefinitionChanged) GetType() EventType {
	return DefinitionChangedEvent
}

type SessionOpened struct {
	BaseEvent

	ReadOnly bool `json:"read_only"`
}

func (s SessionOpened) GetType() EventType {
	return SessionOpenedEvent
}

type SessionClosed struct {
	BaseEvent
}

func (s SessionClosed) GetType() EventType {
	return SessionClosedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

// NewDefinitionChanged builds the event for a snapshot.
func NewDefinitionChanged(sessionID string, def models.WorkflowDefinition) *DefinitionChanged {
	base := NewBaseEvent(DefinitionChangedEvent, def.ID)
	base.SessionID = sessionID

	return &DefinitionChanged{
		BaseEvent:       base,
		Definition:      def,
		NodeCount:       len(def.Nodes),
		ConnectionCount: len(def.Connections),
	}
}

func NewSessionOpened(sessionID, workflowID string, readOnly bool) *SessionOpened {
	base := NewBaseEvent(SessionOpenedEvent, workflowID)
	base.SessionID = sessionID

	return &SessionOpened{BaseEvent: base, ReadOnly: readOnly}
}

func NewSessionClosed(sessionID, workflowID string) *SessionClosed {
	base := NewBaseEvent(SessionClosedEvent, workflowID)
	base.SessionID = sessionID

	return &SessionClosed{BaseEvent: base}
}
