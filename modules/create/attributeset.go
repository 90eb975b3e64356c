package create

import (
	"context"

	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
)

// CreateAttributeSet adds an attribute set at Path. Without TupleDims a cell
// set takes the dimensions of its container's image geometry.
type CreateAttributeSet struct {
	step.Base
	Path      datapath.Path
	TupleDims []int
	Kind      datacontainer.SetKind
}

func NewCreateAttributeSet() *CreateAttributeSet {
	return &CreateAttributeSet{Base: step.NewBase(TypeCreateAttributeSet), Kind: datacontainer.Generic}
}

func (s *CreateAttributeSet) Validate(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *CreateAttributeSet) Commit(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *CreateAttributeSet) apply(env *step.Env) error {
	if err := params.RequirePath(s.Path, "path"); err != nil {
		return err
	}
	dims := s.TupleDims
	if len(dims) == 0 {
		dc, err := env.Collection.FetchContainer(s.Path)
		if err != nil {
			return err
		}
		g, ok := dc.Geometry().(*datacontainer.ImageGeometry)
		if !ok || s.Kind != datacontainer.Cell {
			return dataerr.New(dataerr.InvalidParameter, s.Path.String(), "parameter %q: tuple dims are required unless a cell set is created in an image geometry", "tuple_dims")
		}
		dims = g.TupleDims()
	}
	_, err := env.Collection.CreateAttributeSet(s.Path, dims, s.Kind, env.Mode())
	return err
}

func (s *CreateAttributeSet) ReadParameters(r params.Reader) error {
	p, err := params.OptionalPath(r, "path", datapath.DepthAttributeSet)
	if err != nil {
		return err
	}
	dims, err := params.Optional[[]int](r, "tuple_dims", nil)
	if err != nil {
		return err
	}
	kindName, err := params.Optional(r, "kind", datacontainer.Generic.String())
	if err != nil {
		return err
	}
	kind, err := datacontainer.ParseSetKind(kindName)
	if err != nil {
		return dataerr.New(dataerr.InvalidParameter, "", "parameter %q: %v", "kind", err)
	}
	s.Path, s.TupleDims, s.Kind = p, dims, kind
	return nil
}

func (s *CreateAttributeSet) WriteParameters(w params.Writer) error {
	params.PutPath(w, "path", s.Path)
	if len(s.TupleDims) > 0 {
		if err := params.Put(w, "tuple_dims", s.TupleDims); err != nil {
			return err
		}
	}
	w.Set("kind", cty.StringVal(s.Kind.String()))
	return nil
}
