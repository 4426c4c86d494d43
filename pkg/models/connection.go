package models

// WorkflowConnection is a directed edge from one node to another.
type WorkflowConnection struct {
	ID        string `json:"id"                  validate:"required"`
	SourceID  string `json:"source_id"           validate:"required"`
	TargetID  string `json:"target_id"           validate:"required"`
	Label     string `json:"label,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// References reports whether the connection starts or ends at the node.
func (c *WorkflowConnection) References(nodeID string) bool {
	return c.SourceID == nodeID || c.TargetID == nodeID
}

// Connects reports whether the connection is the edge source -> target.
func (c *WorkflowConnection) Connects(sourceID, targetID string) bool {
	return c.SourceID == sourceID && c.TargetID == targetID
}
