package transform

import (
	"context"

	"github.com/vk/voxelflow/internal/dataarray"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
)

// ExtractComponent copies component Component of Source into a new
// single-component array. RemoveOriginal drops Source afterwards.
type ExtractComponent struct {
	step.Base
	Source         datapath.Path
	Component      int
	OutputName     string
	RemoveOriginal bool
}

func NewExtractComponent() *ExtractComponent {
	return &ExtractComponent{Base: step.NewBase(TypeExtractComponent)}
}

func (s *ExtractComponent) Validate(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *ExtractComponent) Commit(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *ExtractComponent) apply(env *step.Env) error {
	if err := params.RequirePath(s.Source, "source"); err != nil {
		return err
	}
	src, err := env.Collection.ResolvePath(s.Source)
	if err != nil {
		// An earlier validation already moved the source into our output.
		if env.Preflight() && s.RemoveOriginal && s.OutputName != "" && env.Collection.Declared(s.Source.WithArray(s.OutputName), env.Mode()) {
			return nil
		}
		return err
	}
	out, err := outputPath(env, s.Source, s.OutputName, "output_name")
	if err != nil {
		return err
	}
	if env.Preflight() {
		src = src.DeepCopy(true)
	}
	extracted, err := dataarray.ExtractComponent(src, s.Component, out.Array)
	if err != nil {
		return err
	}
	if _, err := env.Collection.InsertNew(out.SetPath(), extracted, env.Mode()); err != nil {
		return err
	}
	if s.RemoveOriginal {
		return env.Collection.RemovePath(s.Source)
	}
	return nil
}

func (s *ExtractComponent) ReadParameters(r params.Reader) error {
	src, err := params.OptionalPath(r, "source", datapath.DepthArray)
	if err != nil {
		return err
	}
	comp, err := params.Optional(r, "component", 0)
	if err != nil {
		return err
	}
	name, err := params.Optional(r, "output_name", "")
	if err != nil {
		return err
	}
	remove, err := params.Optional(r, "remove_original", false)
	if err != nil {
		return err
	}
	s.Source, s.Component, s.OutputName, s.RemoveOriginal = src, comp, name, remove
	return nil
}

func (s *ExtractComponent) WriteParameters(w params.Writer) error {
	params.PutPath(w, "source", s.Source)
	w.Set("component", cty.NumberIntVal(int64(s.Component)))
	w.Set("output_name", cty.StringVal(s.OutputName))
	w.Set("remove_original", cty.BoolVal(s.RemoveOriginal))
	return nil
}
