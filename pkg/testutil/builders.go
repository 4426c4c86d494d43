// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"fmt"

	"github.com/dukex/operion-designer/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a task node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:       uuid.New().String(),
		Type:     models.NodeTypeTask,
		Label:    "Test Task",
		Position: models.Position{X: 300, Y: 200},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithNodeID sets the node id.
func WithNodeID(id string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ID = id
	}
}

// WithType sets the node type and clears a config that no longer fits.
func WithType(t models.NodeType) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = t
		if models.CheckConfig(t, n.Config) != nil {
			n.Config = nil
		}
	}
}

// WithLabel sets the node label.
func WithLabel(label string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Label = label
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// WithConfig sets the node type from the config variant and stores the config.
func WithConfig(cfg models.NodeConfig) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = cfg.NodeType()
		n.Config = cfg
	}
}

// CreateTestConnection creates a connection between two nodes.
func CreateTestConnection(sourceID, targetID string, overrides ...func(*models.WorkflowConnection)) *models.WorkflowConnection {
	conn := &models.WorkflowConnection{
		ID:       uuid.New().String(),
		SourceID: sourceID,
		TargetID: targetID,
	}

	for _, override := range overrides {
		override(conn)
	}

	return conn
}

// WithConnectionID sets the connection id.
func WithConnectionID(id string) func(*models.WorkflowConnection) {
	return func(c *models.WorkflowConnection) {
		c.ID = id
	}
}

// CreateTestDefinition creates a start -> end definition. Overrides can add
// nodes and connections.
func CreateTestDefinition(overrides ...func(*models.WorkflowDefinition)) *models.WorkflowDefinition {
	start := CreateTestNode(WithNodeID("start"), WithType(models.NodeTypeStart), WithLabel("Start"), WithPosition(100, 200))
	end := CreateTestNode(WithNodeID("end"), WithType(models.NodeTypeEnd), WithLabel("End"), WithPosition(600, 200))

	def := &models.WorkflowDefinition{
		ID:          "wf-test",
		Name:        "Test Workflow",
		Nodes:       []*models.WorkflowNode{start, end},
		Connections: []*models.WorkflowConnection{},
		Version:     1,
	}

	for _, override := range overrides {
		override(def)
	}

	return def
}

// WithNodes appends nodes to the definition.
func WithNodes(nodes ...*models.WorkflowNode) func(*models.WorkflowDefinition) {
	return func(d *models.WorkflowDefinition) {
		d.Nodes = append(d.Nodes, nodes...)
	}
}

// WithConnections appends connections to the definition.
func WithConnections(conns ...*models.WorkflowConnection) func(*models.WorkflowDefinition) {
	return func(d *models.WorkflowDefinition) {
		d.Connections = append(d.Connections, conns...)
	}
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	n := 0

	return func() string {
		n++

		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
