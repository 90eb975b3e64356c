package transform

import (
	"context"

	"github.com/vk/voxelflow/internal/dataarray"
	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
)

// ReplaceValue overwrites every element of Path equal to Remove with Replace.
type ReplaceValue struct {
	step.Base
	Path    datapath.Path
	Remove  cty.Value
	Replace cty.Value
}

func NewReplaceValue() *ReplaceValue {
	return &ReplaceValue{
		Base:    step.NewBase(TypeReplaceValue),
		Remove:  cty.NumberIntVal(0),
		Replace: cty.NumberIntVal(0),
	}
}

func (s *ReplaceValue) Validate(_ context.Context, env *step.Env) error {
	_, err := s.target(env)
	return err
}

func (s *ReplaceValue) Commit(ctx context.Context, env *step.Env) error {
	a, err := s.target(env)
	if err != nil {
		return err
	}
	n, err := dataarray.ReplaceValue(ctx, a, s.Remove, s.Replace, env.Workers)
	if err != nil {
		return err
	}
	env.Status("Replaced %d values", n)
	env.Progress(1, 1, "Replacement complete")
	return nil
}

func (s *ReplaceValue) target(env *step.Env) (dataarray.Array, error) {
	if err := params.RequirePath(s.Path, "path"); err != nil {
		return nil, err
	}
	a, err := env.Collection.ResolvePath(s.Path)
	if err != nil {
		return nil, err
	}
	if err := checkValue(a, s.Remove, "remove_value"); err != nil {
		return nil, err
	}
	if err := checkValue(a, s.Replace, "replace_value"); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ReplaceValue) ReadParameters(r params.Reader) error {
	p, err := params.OptionalPath(r, "path", datapath.DepthArray)
	if err != nil {
		return err
	}
	s.Path = p
	s.Remove, s.Replace = cty.NumberIntVal(0), cty.NumberIntVal(0)
	if r.Has("remove_value") {
		s.Remove = r.Value("remove_value")
	}
	if r.Has("replace_value") {
		s.Replace = r.Value("replace_value")
	}
	return nil
}

func (s *ReplaceValue) WriteParameters(w params.Writer) error {
	params.PutPath(w, "path", s.Path)
	w.Set("remove_value", s.Remove)
	w.Set("replace_value", s.Replace)
	return nil
}

// ConditionalSetValue sets every component of the tuples of Path whose entry
// in the boolean Mask is true. Mask must have one component and as many
// tuples as Path.
type ConditionalSetValue struct {
	step.Base
	Path  datapath.Path
	Mask  datapath.Path
	Value cty.Value
}

func NewConditionalSetValue() *ConditionalSetValue {
	return &ConditionalSetValue{Base: step.NewBase(TypeConditionalSetValue), Value: cty.NumberIntVal(0)}
}

func (s *ConditionalSetValue) Validate(_ context.Context, env *step.Env) error {
	_, _, err := s.targets(env)
	return err
}

func (s *ConditionalSetValue) Commit(ctx context.Context, env *step.Env) error {
	a, mask, err := s.targets(env)
	if err != nil {
		return err
	}
	if err := dataarray.SetWhere(ctx, a, mask, s.Value, env.Workers); err != nil {
		return err
	}
	env.Progress(1, 1, "Values set")
	return nil
}

func (s *ConditionalSetValue) targets(env *step.Env) (dataarray.Array, *dataarray.DataArray[bool], error) {
	if err := params.RequirePath(s.Path, "path"); err != nil {
		return nil, nil, err
	}
	if err := params.RequirePath(s.Mask, "mask"); err != nil {
		return nil, nil, err
	}
	a, err := env.Collection.ResolvePath(s.Path)
	if err != nil {
		return nil, nil, err
	}
	mask, err := datacontainer.Fetch[bool](env.Collection, s.Mask, []int{1})
	if err != nil {
		return nil, nil, err
	}
	if mask.NumTuples() != a.NumTuples() {
		return nil, nil, dataerr.New(dataerr.TupleCountMismatch, s.Mask.String(),
			"mask has %d tuples, %q has %d", mask.NumTuples(), s.Path, a.NumTuples())
	}
	if err := checkValue(a, s.Value, "value"); err != nil {
		return nil, nil, err
	}
	return a, mask, nil
}

func (s *ConditionalSetValue) ReadParameters(r params.Reader) error {
	p, err := params.OptionalPath(r, "path", datapath.DepthArray)
	if err != nil {
		return err
	}
	mask, err := params.OptionalPath(r, "mask", datapath.DepthArray)
	if err != nil {
		return err
	}
	s.Path, s.Mask, s.Value = p, mask, cty.NumberIntVal(0)
	if r.Has("value") {
		s.Value = r.Value("value")
	}
	return nil
}

func (s *ConditionalSetValue) WriteParameters(w params.Writer) error {
	params.PutPath(w, "path", s.Path)
	params.PutPath(w, "mask", s.Mask)
	w.Set("value", s.Value)
	return nil
}
