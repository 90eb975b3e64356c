package statistics

import (
	"context"
	"slices"

	"github.com/vk/voxelflow/internal/dataarray"
	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/vk/voxelflow/internal/parallel"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Names of the arrays written to the output set.
const (
	ArrayMean   = "Mean"
	ArrayStdDev = "StdDev"
	ArrayMin    = "Minimum"
	ArrayMax    = "Maximum"
	ArrayMedian = "Median"
)

// FindStatistics summarizes every component of Source. The standard
// deviation is the sample (n-1) estimate.
type FindStatistics struct {
	step.Base
	Source datapath.Path
	Output datapath.Path
	Median bool
}

func NewFindStatistics() *FindStatistics {
	return &FindStatistics{Base: step.NewBase(TypeFindStatistics)}
}

func (s *FindStatistics) arrayNames() []string {
	names := []string{ArrayMean, ArrayStdDev, ArrayMin, ArrayMax}
	if s.Median {
		names = append(names, ArrayMedian)
	}
	return names
}

func (s *FindStatistics) Validate(_ context.Context, env *step.Env) error {
	src, err := s.source(env)
	if err != nil {
		return err
	}
	return s.declare(env, src.NumComponents())
}

func (s *FindStatistics) Commit(ctx context.Context, env *step.Env) error {
	src, err := s.source(env)
	if err != nil {
		return err
	}
	if err := s.declare(env, src.NumComponents()); err != nil {
		return err
	}

	names := s.arrayNames()
	out := make([]*dataarray.DataArray[float64], len(names))
	for i, name := range names {
		a, err := datacontainer.Fetch[float64](env.Collection, s.Output.WithArray(name), nil)
		if err != nil {
			return err
		}
		out[i] = a
	}

	numComps := src.NumComponents()
	err = parallel.Each(ctx, numComps, env.Workers, func(c int) error {
		vals, err := dataarray.ComponentFloat64s(src, c)
		if err != nil {
			return err
		}
		mean, std := stat.MeanStdDev(vals, nil)
		out[0].SetComponent(0, c, mean)
		out[1].SetComponent(0, c, std)
		out[2].SetComponent(0, c, floats.Min(vals))
		out[3].SetComponent(0, c, floats.Max(vals))
		if s.Median {
			slices.Sort(vals)
			out[4].SetComponent(0, c, stat.Quantile(0.5, stat.Empirical, vals, nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	env.Progress(numComps, numComps, "Statistics computed")
	return nil
}

func (s *FindStatistics) source(env *step.Env) (dataarray.Array, error) {
	if err := params.RequirePath(s.Source, "source"); err != nil {
		return nil, err
	}
	if err := params.RequirePath(s.Output, "output"); err != nil {
		return nil, err
	}
	src, err := env.Collection.ResolvePath(s.Source)
	if err != nil {
		return nil, err
	}
	if !src.Type().IsNumeric() {
		return nil, dataerr.New(dataerr.TypeMismatch, s.Source.String(), "statistics need a numeric array, got %s", src.TypeName()).
			WithSupported(numericNames())
	}
	if src.NumTuples() == 0 {
		return nil, dataerr.New(dataerr.Compute, s.Source.String(), "array has no tuples")
	}
	return src, nil
}

// declare creates the output set and its arrays in the mode of the phase.
func (s *FindStatistics) declare(env *step.Env, numComps int) error {
	if _, err := env.Collection.CreateAttributeSet(s.Output, []int{1}, datacontainer.MetaData, env.Mode()); err != nil {
		return err
	}
	for _, name := range s.arrayNames() {
		if _, err := env.Collection.CreateArray(s.Output.WithArray(name), datatype.Float64, []int{numComps}, cty.NilVal, env.Mode()); err != nil {
			return err
		}
	}
	return nil
}

func numericNames() []string {
	var out []string
	for _, t := range datatype.All() {
		if t.IsNumeric() {
			out = append(out, t.String())
		}
	}
	return out
}

func (s *FindStatistics) ReadParameters(r params.Reader) error {
	src, err := params.OptionalPath(r, "source", datapath.DepthArray)
	if err != nil {
		return err
	}
	out, err := params.OptionalPath(r, "output", datapath.DepthAttributeSet)
	if err != nil {
		return err
	}
	median, err := params.Optional(r, "median", false)
	if err != nil {
		return err
	}
	s.Source, s.Output, s.Median = src, out, median
	return nil
}

func (s *FindStatistics) WriteParameters(w params.Writer) error {
	params.PutPath(w, "source", s.Source)
	params.PutPath(w, "output", s.Output)
	w.Set("median", cty.BoolVal(s.Median))
	return nil
}
