// Package registry describes the fixed set of node types the designer offers.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/operion-designer/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrUnknownNodeType is returned for a type outside the fixed enumeration.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrInvalidConfig is returned when a config does not satisfy the type's schema.
	ErrInvalidConfig = errors.New("invalid node config")
)

// NodeTypeInfo is the palette entry for one node type.
type NodeTypeInfo struct {
	Type         models.NodeType `json:"type"`
	DefaultLabel string          `json:"default_label"`
	Protected    bool            `json:"protected"`
	ConfigSchema map[string]any  `json:"config_schema,omitempty"`
}

var builtin = []NodeTypeInfo{
	{Type: models.NodeTypeStart, DefaultLabel: "Start", Protected: true},
	{Type: models.NodeTypeEnd, DefaultLabel: "End", Protected: true},
	{Type: models.NodeTypeTask, DefaultLabel: "Task"},
	{
		Type:         models.NodeTypeDecision,
		DefaultLabel: "Decision",
		ConfigSchema: objectSchema("condition", map[string]any{"type": "string"}),
	},
	{
		Type:         models.NodeTypeApproval,
		DefaultLabel: "Approval",
		ConfigSchema: objectSchema("assignee_role", map[string]any{"type": "string", "minLength": 1}),
	},
	{
		Type:         models.NodeTypeNotification,
		DefaultLabel: "Notification",
		ConfigSchema: objectSchema("channel", map[string]any{"type": "string", "minLength": 1}),
	},
	{
		Type:         models.NodeTypeDelay,
		DefaultLabel: "Delay",
		ConfigSchema: objectSchema("delay_days", map[string]any{"type": "integer", "minimum": 0}),
	},
}

func objectSchema(field string, property map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{field: property},
		"required":             []any{field},
		"additionalProperties": false,
	}
}

// Lookup returns the palette entry for t.
func Lookup(t models.NodeType) (NodeTypeInfo, bool) {
	for _, info := range builtin {
		if info.Type == t {
			return info, true
		}
	}

	return NodeTypeInfo{}, false
}

// DefaultLabel returns the label new nodes of type t receive.
func DefaultLabel(t models.NodeType) string {
	info, ok := Lookup(t)
	if !ok {
		return string(t)
	}

	return info.DefaultLabel
}

// Types returns every node type in palette order.
func Types() []NodeTypeInfo {
	out := make([]NodeTypeInfo, len(builtin))
	copy(out, builtin)

	return out
}

// Registry validates node configs against the per-type JSON schemas.
type Registry struct {
	logger  *slog.Logger
	schemas map[models.NodeType]*gojsonschema.Schema
}

// NewRegistry compiles the config schema of every built-in type.
func NewRegistry(log *slog.Logger) (*Registry, error) {
	r := &Registry{
		logger:  log.With("module", "registry"),
		schemas: make(map[models.NodeType]*gojsonschema.Schema),
	}

	for _, info := range builtin {
		if info.ConfigSchema == nil {
			continue
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(info.ConfigSchema))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s config schema: %w", info.Type, err)
		}

		r.schemas[info.Type] = schema
	}

	r.logger.Debug("Node type registry ready", "types", len(builtin), "schemas", len(r.schemas))

	return r, nil
}

// ValidateConfig checks a raw config object against the schema for t.
func (r *Registry) ValidateConfig(t models.NodeType, config map[string]any) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: %s", ErrUnknownNodeType, t)
	}

	schema, ok := r.schemas[t]
	if !ok {
		if len(config) == 0 {
			return nil
		}

		return fmt.Errorf("%w: %s nodes carry no config", ErrInvalidConfig, t)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", t, err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// DecodeConfig validates a raw config object and converts it into the
// typed variant for t. An empty object on a type without config yields nil.
func (r *Registry) DecodeConfig(t models.NodeType, config map[string]any) (models.NodeConfig, error) {
	if err := r.ValidateConfig(t, config); err != nil {
		return nil, err
	}

	if len(config) == 0 && !models.HasConfig(t) {
		return nil, nil
	}

	data, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s config: %w", t, err)
	}

	cfg, err := models.DecodeNodeConfig(t, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// HealthCheck reports whether every schema compiled.
func (r *Registry) HealthCheck() (string, bool) {
	expected := 0

	for _, info := range builtin {
		if info.ConfigSchema != nil {
			expected++
		}
	}

	if len(r.schemas) != expected {
		return "Registry is missing config schemas", false
	}

	return "Registry is healthy", true
}

// IsUnknownNodeType checks if an error indicates an unknown node type.
func IsUnknownNodeType(err error) bool {
	return errors.Is(err, ErrUnknownNodeType)
}

// IsInvalidConfig checks if an error indicates a config failed validation.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
