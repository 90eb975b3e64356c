// Package transform holds the steps that derive or rewrite element values:
// type conversion, component extraction and value replacement.
package transform

import (
	"github.com/vk/voxelflow/internal/dataarray"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/registry"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
)

const (
	TypeConvertData         = "convert_data"
	TypeExtractComponent    = "extract_component"
	TypeReplaceValue        = "replace_value"
	TypeConditionalSetValue = "conditional_set_value"

	group = "Processing"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the transform steps.
func (m *Module) Register(r *registry.Registry) {
	r.Register(registry.Registration{
		Type:        TypeConvertData,
		Group:       group,
		Description: "Converts an array to another element type.",
		New:         func() step.Step { return NewConvertData() },
	})
	r.Register(registry.Registration{
		Type:        TypeExtractComponent,
		Group:       group,
		Description: "Copies one component of a multi-component array into a new array.",
		New:         func() step.Step { return NewExtractComponent() },
	})
	r.Register(registry.Registration{
		Type:        TypeReplaceValue,
		Group:       group,
		Description: "Replaces every occurrence of a value in an array.",
		New:         func() step.Step { return NewReplaceValue() },
	})
	r.Register(registry.Registration{
		Type:        TypeConditionalSetValue,
		Group:       group,
		Description: "Sets the tuples selected by a boolean mask to a value.",
		New:         func() step.Step { return NewConditionalSetValue() },
	})
}

// checkValue reports whether v can be stored in an array of a's type.
func checkValue(a dataarray.Array, v cty.Value, param string) error {
	probe, err := dataarray.New(a.Type(), a.Name(), 1, []int{1}, false)
	if err != nil {
		return err
	}
	if err := probe.InitializeWithValue(v); err != nil {
		return dataerr.New(dataerr.InvalidParameter, a.Name(), "parameter %q: %v", param, err)
	}
	return nil
}

// outputPath is the path of a new array next to src. The name must be valid
// and free, or hold this step's own placeholder from an earlier validation.
func outputPath(env *step.Env, src datapath.Path, name, param string) (datapath.Path, error) {
	if name == "" {
		return datapath.Path{}, dataerr.New(dataerr.InvalidParameter, src.String(), "parameter %q: an output name is required", param)
	}
	if err := datapath.ValidateName(name); err != nil {
		return datapath.Path{}, err
	}
	out := src.WithArray(name)
	if err := env.Collection.RequireFree(out, env.Mode()); err != nil {
		return datapath.Path{}, err
	}
	return out, nil
}
