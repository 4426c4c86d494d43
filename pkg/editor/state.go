// Package editor turns discrete canvas gestures into graph mutations.
package editor

import "fmt"

// Mode is the interaction mode of the controller.
type Mode string

const (
	ModeIdle         Mode = "idle"
	ModeNodeSelected Mode = "node_selected"
	ModeConnecting   Mode = "connecting"
)

// State is the controller state. NodeID is the selected node in
// ModeNodeSelected and the connection source in ModeConnecting.
type State struct {
	Mode   Mode   `json:"mode"`
	NodeID string `json:"node_id,omitempty"`
}

func Idle() State {
	return State{Mode: ModeIdle}
}

func NodeSelected(nodeID string) State {
	return State{Mode: ModeNodeSelected, NodeID: nodeID}
}

func Connecting(sourceID string) State {
	return State{Mode: ModeConnecting, NodeID: sourceID}
}

func (s State) String() string {
	if s.Mode == ModeIdle {
		return string(s.Mode)
	}

	return fmt.Sprintf("%s(%s)", s.Mode, s.NodeID)
}

// Selected returns the selected node id, if any.
func (s State) Selected() (string, bool) {
	return s.NodeID, s.Mode == ModeNodeSelected
}

// ConnectSource returns the source of the pending connection, if any.
func (s State) ConnectSource() (string, bool) {
	return s.NodeID, s.Mode == ModeConnecting
}
