package editor

import (
	"github.com/dukex/operion-designer/pkg/canvas"
	"github.com/dukex/operion-designer/pkg/models"
)

// EventKind names an input of the controller.
type EventKind string

const (
	KindClickNode          EventKind = "click_node"
	KindClickCanvas        EventKind = "click_canvas"
	KindClickConnectHandle EventKind = "click_connect_handle"
	KindDropPaletteItem    EventKind = "drop_palette_item"
	KindDeleteCommand      EventKind = "delete_command"
)

// EventKinds lists the full input alphabet.
var EventKinds = []EventKind{
	KindClickNode,
	KindClickCanvas,
	KindClickConnectHandle,
	KindDropPaletteItem,
	KindDeleteCommand,
}

// Event is one user gesture. Only the types in this file implement it.
type Event interface {
	Kind() EventKind
	isEvent()
}

// ClickNode is a click on the body of a node.
type ClickNode struct {
	NodeID string
}

// ClickCanvas is a click on empty canvas.
type ClickCanvas struct{}

// ClickConnectHandle is a click on a node's connect handle.
type ClickConnectHandle struct {
	NodeID string
}

// DropPaletteItem is a palette item dropped at a viewport position.
type DropPaletteItem struct {
	Type     models.NodeType
	Viewport canvas.Point
}

// DeleteCommand asks to delete the current selection.
type DeleteCommand struct{}

func (ClickNode) Kind() EventKind          { return KindClickNode }
func (ClickCanvas) Kind() EventKind        { return KindClickCanvas }
func (ClickConnectHandle) Kind() EventKind { return KindClickConnectHandle }
func (DropPaletteItem) Kind() EventKind    { return KindDropPaletteItem }
func (DeleteCommand) Kind() EventKind      { return KindDeleteCommand }

func (ClickNode) isEvent()          {}
func (ClickCanvas) isEvent()        {}
func (ClickConnectHandle) isEvent() {}
func (DropPaletteItem) isEvent()    {}
func (DeleteCommand) isEvent()      {}

// mutates reports whether the event can change the graph.
func mutates(ev Event) bool {
	switch ev.(type) {
	case ClickConnectHandle, DropPaletteItem, DeleteCommand:
		return true
	default:
		return false
	}
}
