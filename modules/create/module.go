package create

import (
	"github.com/vk/voxelflow/internal/registry"
	"github.com/vk/voxelflow/internal/step"
)

const (
	TypeCreateDataContainer = "create_data_container"
	TypeCreateAttributeSet  = "create_attribute_set"
	TypeCreateDataArray     = "create_data_array"

	group = "Core"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the creation steps.
func (m *Module) Register(r *registry.Registry) {
	r.Register(registry.Registration{
		Type:        TypeCreateDataContainer,
		Group:       group,
		Description: "Creates an empty data container, optionally with an image geometry.",
		New:         func() step.Step { return NewCreateDataContainer() },
	})
	r.Register(registry.Registration{
		Type:        TypeCreateAttributeSet,
		Group:       group,
		Description: "Creates an attribute set with the given tuple dimensions.",
		New:         func() step.Step { return NewCreateAttributeSet() },
	})
	r.Register(registry.Registration{
		Type:        TypeCreateDataArray,
		Group:       group,
		Description: "Creates an array of any supported element type filled with an initial value.",
		New:         func() step.Step { return NewCreateDataArray() },
	})
}
