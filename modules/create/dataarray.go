package create

import (
	"context"

	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
)

// CreateDataArray adds an array at Path with one tuple per tuple of its set.
// A NilVal InitValue fills the array with the zero of its element type.
type CreateDataArray struct {
	step.Base
	Path          datapath.Path
	ElementType   datatype.Type
	ComponentDims []int
	InitValue     cty.Value
}

func NewCreateDataArray() *CreateDataArray {
	return &CreateDataArray{
		Base:          step.NewBase(TypeCreateDataArray),
		ElementType:   datatype.Float32,
		ComponentDims: []int{1},
	}
}

func (s *CreateDataArray) Validate(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *CreateDataArray) Commit(ctx context.Context, env *step.Env) error {
	if err := s.apply(env); err != nil {
		return err
	}
	env.Progress(1, 1, "Array created")
	return nil
}

func (s *CreateDataArray) apply(env *step.Env) error {
	if err := params.RequirePath(s.Path, "path"); err != nil {
		return err
	}
	_, err := env.Collection.CreateArray(s.Path, s.ElementType, s.ComponentDims, s.InitValue, env.Mode())
	return err
}

func (s *CreateDataArray) ReadParameters(r params.Reader) error {
	p, err := params.OptionalPath(r, "path", datapath.DepthArray)
	if err != nil {
		return err
	}
	t, err := params.OptionalType(r, "type", datatype.Float32)
	if err != nil {
		return err
	}
	dims, err := params.Optional(r, "component_dims", []int{1})
	if err != nil {
		return err
	}
	initValue := cty.NilVal
	if r.Has("init_value") {
		initValue = r.Value("init_value")
	}
	s.Path, s.ElementType, s.ComponentDims, s.InitValue = p, t, dims, initValue
	return nil
}

func (s *CreateDataArray) WriteParameters(w params.Writer) error {
	params.PutPath(w, "path", s.Path)
	w.Set("type", cty.StringVal(s.ElementType.String()))
	if err := params.Put(w, "component_dims", s.ComponentDims); err != nil {
		return err
	}
	if s.InitValue != cty.NilVal {
		w.Set("init_value", s.InitValue)
	}
	return nil
}
