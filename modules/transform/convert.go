package transform

import (
	"context"

	"github.com/vk/voxelflow/internal/dataarray"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
)

// ConvertData writes a copy of Source with element type ElementType next to
// it. Numbers are converted with Go conversion rules; strings are parsed.
type ConvertData struct {
	step.Base
	Source      datapath.Path
	ElementType datatype.Type
	OutputName  string
}

func NewConvertData() *ConvertData {
	return &ConvertData{Base: step.NewBase(TypeConvertData), ElementType: datatype.Float32}
}

func (s *ConvertData) Validate(ctx context.Context, env *step.Env) error {
	return s.apply(ctx, env)
}

func (s *ConvertData) Commit(ctx context.Context, env *step.Env) error {
	if err := s.apply(ctx, env); err != nil {
		return err
	}
	env.Progress(1, 1, "Conversion complete")
	return nil
}

func (s *ConvertData) apply(ctx context.Context, env *step.Env) error {
	if err := params.RequirePath(s.Source, "source"); err != nil {
		return err
	}
	src, err := env.Collection.ResolvePath(s.Source)
	if err != nil {
		return err
	}
	out, err := outputPath(env, s.Source, s.OutputName, "output_name")
	if err != nil {
		return err
	}
	if env.Preflight() {
		src = src.DeepCopy(true)
	}
	converted, err := dataarray.Convert(ctx, src, s.ElementType, out.Array, env.Workers)
	if err != nil {
		return err
	}
	_, err = env.Collection.InsertNew(out.SetPath(), converted, env.Mode())
	return err
}

func (s *ConvertData) ReadParameters(r params.Reader) error {
	src, err := params.OptionalPath(r, "source", datapath.DepthArray)
	if err != nil {
		return err
	}
	t, err := params.OptionalType(r, "type", datatype.Float32)
	if err != nil {
		return err
	}
	name, err := params.Optional(r, "output_name", "")
	if err != nil {
		return err
	}
	s.Source, s.ElementType, s.OutputName = src, t, name
	return nil
}

func (s *ConvertData) WriteParameters(w params.Writer) error {
	params.PutPath(w, "source", s.Source)
	w.Set("type", cty.StringVal(s.ElementType.String()))
	w.Set("output_name", cty.StringVal(s.OutputName))
	return nil
}
