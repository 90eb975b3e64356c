// Package manage holds the steps that copy, rename and remove objects of the
// collection without touching element values.
package manage

import (
	"github.com/vk/voxelflow/internal/registry"
	"github.com/vk/voxelflow/internal/step"
)

const (
	TypeCopyDataArray   = "copy_data_array"
	TypeRenameDataArray = "rename_data_array"
	TypeRemoveData      = "remove_data"

	group = "Core"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the management steps.
func (m *Module) Register(r *registry.Registry) {
	r.Register(registry.Registration{
		Type:        TypeCopyDataArray,
		Group:       group,
		Description: "Copies an array into a new array of the same attribute set.",
		New:         func() step.Step { return NewCopyDataArray() },
	})
	r.Register(registry.Registration{
		Type:        TypeRenameDataArray,
		Group:       group,
		Description: "Renames an array.",
		New:         func() step.Step { return NewRenameDataArray() },
	})
	r.Register(registry.Registration{
		Type:        TypeRemoveData,
		Group:       group,
		Description: "Removes containers, attribute sets or arrays.",
		New:         func() step.Step { return NewRemoveData() },
	})
}
