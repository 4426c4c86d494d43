package graph

import (
	"errors"
	"fmt"

	"github.com/dukex/operion-designer/pkg/models"
	"github.com/dukex/operion-designer/pkg/registry"
)

// Rejections. A rejected call leaves the definition exactly as it was.
var (
	// ErrNodeNotFound indicates a node id absent from the definition.
	ErrNodeNotFound = errors.New("node not found")

	// ErrConnectionNotFound indicates a connection id absent from the definition.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrDuplicateConnection indicates the ordered pair is already connected.
	ErrDuplicateConnection = errors.New("connection already exists")

	// ErrProtectedNode indicates an attempt to delete a start or end node.
	ErrProtectedNode = errors.New("node type is protected")

	// ErrUnknownNodeType is returned when adding a node of an unknown type.
	ErrUnknownNodeType = registry.ErrUnknownNodeType

	// ErrConfigMismatch is returned when a config variant does not fit the node type.
	ErrConfigMismatch = models.ErrConfigTypeMismatch

	// ErrInvalidConfig is returned when a config breaks its field rules.
	ErrInvalidConfig = registry.ErrInvalidConfig

	// ErrIDsExhausted is returned when the id generator keeps yielding ids
	// the store has already issued.
	ErrIDsExhausted = errors.New("id generator yields no fresh ids")

	// ErrInvalidDefinition is returned when an initial definition breaks a graph invariant.
	ErrInvalidDefinition = errors.New("invalid workflow definition")
)

// MutationError describes why a store operation did not apply.
type MutationError struct {
	Op           string // Operation being performed (e.g., "AddConnection", "RemoveNode")
	NodeID       string // Node the operation referenced, if any
	ConnectionID string // Connection the operation referenced, if any
	Err          error  // Underlying error
}

func (e *MutationError) Error() string {
	switch {
	case e.ConnectionID != "":
		return fmt.Sprintf("%s rejected for connection %s: %v", e.Op, e.ConnectionID, e.Err)
	case e.NodeID != "":
		return fmt.Sprintf("%s rejected for node %s: %v", e.Op, e.NodeID, e.Err)
	default:
		return fmt.Sprintf("%s rejected: %v", e.Op, e.Err)
	}
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

func (e *MutationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsReferenceError checks if an error indicates an unknown node or connection id.
func IsReferenceError(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrConnectionNotFound)
}

// IsDuplicateEdge checks if an error indicates an already connected pair.
func IsDuplicateEdge(err error) bool {
	return errors.Is(err, ErrDuplicateConnection)
}

// IsProtectedNode checks if an error indicates a protected node deletion.
func IsProtectedNode(err error) bool {
	return errors.Is(err, ErrProtectedNode)
}

// IsInvalidDefinition checks if an error indicates a rejected initial definition.
func IsInvalidDefinition(err error) bool {
	return errors.Is(err, ErrInvalidDefinition)
}
