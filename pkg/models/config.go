package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrConfigTypeMismatch is returned when a config variant is applied to a
// node of a different type, or a type that carries no config.
var ErrConfigTypeMismatch = errors.New("config does not match node type")

// NodeConfig is the per-type settings of a node. Only the variants in this
// package implement it.
type NodeConfig interface {
	NodeType() NodeType
	isNodeConfig()
}

// ApprovalConfig configures an approval node.
type ApprovalConfig struct {
	AssigneeRole string `json:"assignee_role"`
}

// DelayConfig configures a delay node.
type DelayConfig struct {
	DelayDays int `json:"delay_days" validate:"min=0"`
}

// DecisionConfig configures a decision node.
type DecisionConfig struct {
	Condition string `json:"condition"`
}

// NotificationConfig configures a notification node.
type NotificationConfig struct {
	Channel string `json:"channel"`
}

func (ApprovalConfig) NodeType() NodeType     { return NodeTypeApproval }
func (DelayConfig) NodeType() NodeType        { return NodeTypeDelay }
func (DecisionConfig) NodeType() NodeType     { return NodeTypeDecision }
func (NotificationConfig) NodeType() NodeType { return NodeTypeNotification }

func (ApprovalConfig) isNodeConfig()     {}
func (DelayConfig) isNodeConfig()        {}
func (DecisionConfig) isNodeConfig()     {}
func (NotificationConfig) isNodeConfig() {}

// HasConfig reports whether nodes of type t carry a config variant.
func HasConfig(t NodeType) bool {
	switch t {
	case NodeTypeApproval, NodeTypeDelay, NodeTypeDecision, NodeTypeNotification:
		return true
	default:
		return false
	}
}

// CheckConfig verifies that cfg may be stored on a node of type t. A nil
// config is always allowed. Only the value variants are accepted, so a stored
// config never shares memory with the caller.
func CheckConfig(t NodeType, cfg NodeConfig) error {
	if cfg == nil {
		return nil
	}

	switch cfg.(type) {
	case ApprovalConfig, DelayConfig, DecisionConfig, NotificationConfig:
	default:
		return fmt.Errorf("%w: %T is not a config variant", ErrConfigTypeMismatch, cfg)
	}

	if cfg.NodeType() != t {
		return fmt.Errorf("%w: %s config on %s node", ErrConfigTypeMismatch, cfg.NodeType(), t)
	}

	return nil
}

// DecodeNodeConfig decodes a JSON config object into the variant for t.
// Empty input and JSON null decode to a nil config.
func DecodeNodeConfig(t NodeType, data []byte) (NodeConfig, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch t {
	case NodeTypeApproval:
		var cfg ApprovalConfig
		if err := json.Unmarshal(trimmed, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode approval config: %w", err)
		}

		return cfg, nil
	case NodeTypeDelay:
		var cfg DelayConfig
		if err := json.Unmarshal(trimmed, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode delay config: %w", err)
		}

		return cfg, nil
	case NodeTypeDecision:
		var cfg DecisionConfig
		if err := json.Unmarshal(trimmed, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode decision config: %w", err)
		}

		return cfg, nil
	case NodeTypeNotification:
		var cfg NotificationConfig
		if err := json.Unmarshal(trimmed, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode notification config: %w", err)
		}

		return cfg, nil
	default:
		return nil, fmt.Errorf("%w: %s nodes carry no config", ErrConfigTypeMismatch, t)
	}
}
