package create

import (
	"context"

	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
)

// CreateDataContainer adds a container named Name.
type CreateDataContainer struct {
	step.Base
	Name     string
	Geometry *datacontainer.ImageGeometry
}

func NewCreateDataContainer() *CreateDataContainer {
	return &CreateDataContainer{Base: step.NewBase(TypeCreateDataContainer)}
}

func (s *CreateDataContainer) Validate(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *CreateDataContainer) Commit(_ context.Context, env *step.Env) error {
	return s.apply(env)
}

func (s *CreateDataContainer) apply(env *step.Env) error {
	if s.Name == "" {
		return dataerr.New(dataerr.InvalidParameter, "", "parameter %q: a container name is required", "name")
	}
	dc, err := env.Collection.CreateContainer(s.Name, env.Mode())
	if err != nil {
		return err
	}
	if s.Geometry != nil {
		dc.SetGeometry(s.Geometry.Clone())
	}
	return nil
}

func (s *CreateDataContainer) ReadParameters(r params.Reader) error {
	name, err := params.Optional(r, "name", "")
	if err != nil {
		return err
	}
	s.Name = name
	s.Geometry = nil
	if r.Has("geometry") {
		g, err := readGeometry(params.Raw(r, "geometry"))
		if err != nil {
			return err
		}
		s.Geometry = g
	}
	return nil
}

func (s *CreateDataContainer) WriteParameters(w params.Writer) error {
	w.Set("name", cty.StringVal(s.Name))
	if s.Geometry != nil {
		w.Set("geometry", geometryValue(s.Geometry))
	}
	return nil
}

// readGeometry decodes {dims, origin, spacing}. Origin defaults to zero and
// spacing to one.
func readGeometry(v cty.Value) (*datacontainer.ImageGeometry, error) {
	obj, err := params.FromObject(v)
	if err != nil {
		return nil, dataerr.New(dataerr.InvalidParameter, "", "parameter %q: %v", "geometry", err)
	}
	dims, err := params.Get[[]int](obj, "dims")
	if err != nil {
		return nil, err
	}
	origin, err := params.Optional(obj, "origin", []float64{0, 0, 0})
	if err != nil {
		return nil, err
	}
	spacing, err := params.Optional(obj, "spacing", []float64{1, 1, 1})
	if err != nil {
		return nil, err
	}
	if len(dims) != 3 || len(origin) != 3 || len(spacing) != 3 {
		return nil, dataerr.New(dataerr.InvalidParameter, "", "parameter %q: dims, origin and spacing need three values each", "geometry")
	}
	g := &datacontainer.ImageGeometry{}
	for i := range 3 {
		if dims[i] < 1 {
			return nil, dataerr.New(dataerr.InvalidParameter, "", "parameter %q: dimension %d must be positive, got %d", "geometry", i, dims[i])
		}
		g.Dims[i] = dims[i]
		g.Origin[i] = origin[i]
		g.Spacing[i] = spacing[i]
	}
	return g, nil
}

func geometryValue(g *datacontainer.ImageGeometry) cty.Value {
	ints := func(v [3]int) cty.Value {
		return cty.ListVal([]cty.Value{cty.NumberIntVal(int64(v[0])), cty.NumberIntVal(int64(v[1])), cty.NumberIntVal(int64(v[2]))})
	}
	floats := func(v [3]float64) cty.Value {
		return cty.ListVal([]cty.Value{cty.NumberFloatVal(v[0]), cty.NumberFloatVal(v[1]), cty.NumberFloatVal(v[2])})
	}
	return cty.ObjectVal(map[string]cty.Value{
		"dims":    ints(g.Dims),
		"origin":  floats(g.Origin),
		"spacing": floats(g.Spacing),
	})
}
