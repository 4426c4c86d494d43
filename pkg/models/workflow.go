// Package models defines the workflow graph definitions edited by the designer.
package models

// DefaultWorkflowName is used when a definition is created without a name.
const DefaultWorkflowName = "Untitled workflow"

// WorkflowDefinition is a directed graph of typed nodes joined by connections.
type WorkflowDefinition struct {
	ID          string                `json:"id"                    validate:"required"`
	Name        string                `json:"name"                  validate:"required"`
	Description string                `json:"description,omitempty"`
	Nodes       []*WorkflowNode       `json:"nodes"                 validate:"dive,required"`
	Connections []*WorkflowConnection `json:"connections"           validate:"dive,required"`
	Version     int                   `json:"version"               validate:"min=1"`
	IsActive    bool                  `json:"is_active"`
}

// Clone returns a deep copy of the definition. The copy shares no slices or
// pointers with the receiver.
func (d WorkflowDefinition) Clone() WorkflowDefinition {
	out := WorkflowDefinition{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Nodes:       make([]*WorkflowNode, 0, len(d.Nodes)),
		Connections: make([]*WorkflowConnection, 0, len(d.Connections)),
		Version:     d.Version,
		IsActive:    d.IsActive,
	}

	for _, node := range d.Nodes {
		if node == nil {
			continue
		}

		out.Nodes = append(out.Nodes, node.Clone())
	}

	for _, conn := range d.Connections {
		if conn == nil {
			continue
		}

		c := *conn
		out.Connections = append(out.Connections, &c)
	}

	return out
}

// NodeByID returns the node with the given id, or nil.
func (d WorkflowDefinition) NodeByID(id string) *WorkflowNode {
	for _, node := range d.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// ConnectionsOf returns every connection that has the node as source or target.
func (d WorkflowDefinition) ConnectionsOf(nodeID string) []*WorkflowConnection {
	var out []*WorkflowConnection

	for _, conn := range d.Connections {
		if conn.References(nodeID) {
			out = append(out, conn)
		}
	}

	return out
}
