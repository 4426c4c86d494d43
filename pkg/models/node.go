package models

import (
	"encoding/json"
	"fmt"
)

// NodeType identifies what a node does in a workflow.
type NodeType string

const (
	NodeTypeStart        NodeType = "start"
	NodeTypeEnd          NodeType = "end"
	NodeTypeTask         NodeType = "task"
	NodeTypeDecision     NodeType = "decision"
	NodeTypeApproval     NodeType = "approval"
	NodeTypeNotification NodeType = "notification"
	NodeTypeDelay        NodeType = "delay"
)

// NodeTypes lists every node type in palette order.
var NodeTypes = []NodeType{
	NodeTypeStart,
	NodeTypeEnd,
	NodeTypeTask,
	NodeTypeDecision,
	NodeTypeApproval,
	NodeTypeNotification,
	NodeTypeDelay,
}

// IsValid reports whether t is one of the known node types.
func (t NodeType) IsValid() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}

	return false
}

// IsProtected reports whether nodes of this type are exempt from deletion.
func (t NodeType) IsProtected() bool {
	return t == NodeTypeStart || t == NodeTypeEnd
}

// Position is a point in canvas coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WorkflowNode is a typed, positioned vertex of a workflow definition.
type WorkflowNode struct {
	ID       string     `json:"id"               validate:"required"`
	Type     NodeType   `json:"type"             validate:"required,oneof=start end task decision approval notification delay"`
	Label    string     `json:"label"`
	Position Position   `json:"position"`
	Config   NodeConfig `json:"config,omitempty"`
}

// Clone returns a copy of the node. Config variants are plain values, so
// copying the interface copies the settings.
func (n *WorkflowNode) Clone() *WorkflowNode {
	c := *n

	return &c
}

type workflowNodeJSON struct {
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	Label    string          `json:"label"`
	Position Position        `json:"position"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// UnmarshalJSON decodes the config object into the variant selected by the node type.
func (n *WorkflowNode) UnmarshalJSON(data []byte) error {
	var raw workflowNodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	config, err := DecodeNodeConfig(raw.Type, raw.Config)
	if err != nil {
		return fmt.Errorf("node %s: %w", raw.ID, err)
	}

	n.ID = raw.ID
	n.Type = raw.Type
	n.Label = raw.Label
	n.Position = raw.Position
	n.Config = config

	return nil
}
