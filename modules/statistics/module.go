// Package statistics provides the find_statistics step. Results are stored
// as float64 arrays in a new attribute set with a single tuple.
package statistics

import (
	"github.com/vk/voxelflow/internal/registry"
	"github.com/vk/voxelflow/internal/step"
)

const TypeFindStatistics = "find_statistics"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the statistics step.
func (m *Module) Register(r *registry.Registry) {
	r.Register(registry.Registration{
		Type:        TypeFindStatistics,
		Group:       "Statistics",
		Description: "Computes per-component mean, standard deviation, minimum and maximum of a numeric array.",
		New:         func() step.Step { return NewFindStatistics() },
	})
}
