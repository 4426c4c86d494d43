package editor

import "github.com/dukex/operion-designer/pkg/models"

// NodeView is a node with the highlighting a renderer should apply.
type NodeView struct {
	Node          *models.WorkflowNode `json:"node"`
	Selected      bool                 `json:"selected"`
	ConnectSource bool                 `json:"connect_source"`
}

// View is everything a renderer needs to paint the canvas.
type View struct {
	State       State                        `json:"state"`
	WorkflowID  string                       `json:"workflow_id"`
	Nodes       []NodeView                   `json:"nodes"`
	Connections []*models.WorkflowConnection `json:"connections"`
}

// Project combines controller state and a snapshot into a View. It copies
// what it returns and never touches either input.
func Project(state State, def models.WorkflowDefinition) View {
	selected, isSelected := state.Selected()
	source, isConnecting := state.ConnectSource()

	view := View{
		State:       state,
		WorkflowID:  def.ID,
		Nodes:       make([]NodeView, 0, len(def.Nodes)),
		Connections: make([]*models.WorkflowConnection, 0, len(def.Connections)),
	}

	for _, node := range def.Nodes {
		view.Nodes = append(view.Nodes, NodeView{
			Node:          node.Clone(),
			Selected:      isSelected && node.ID == selected,
			ConnectSource: isConnecting && node.ID == source,
		})
	}

	for _, conn := range def.Connections {
		c := *conn
		view.Connections = append(view.Connections, &c)
	}

	return view
}
