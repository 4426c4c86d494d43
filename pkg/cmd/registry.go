// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/dukex/operion-designer/pkg/registry"
)

func NewRegistry(log *slog.Logger) *registry.Registry {
	reg, err := registry.NewRegistry(log)
	if err != nil {
		panic(err)
	}

	log.Info("Node type registry loaded", "node_types", len(registry.Types()))

	return reg
}
