package dataarray

import (
	"context"
	"sync/atomic"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/parallel"
	"github.com/zclconf/go-cty/cty"
)

// ReplaceValue overwrites every element equal to old with repl and returns
// how many elements changed.
func ReplaceValue(ctx context.Context, a Array, old, repl cty.Value, workers int) (int64, error) {
	return a.replaceValue(ctx, old, repl, workers)
}

// SetWhere sets every component of each tuple whose mask entry is true.
// The mask must have one entry per tuple.
func SetWhere(ctx context.Context, a Array, mask *DataArray[bool], v cty.Value, workers int) error {
	if mask.NumComponents() != 1 {
		return dataerr.New(dataerr.ShapeMismatch, mask.Name(), "mask must have a single component, it has %d", mask.NumComponents())
	}
	if mask.NumTuples() != a.NumTuples() {
		return dataerr.New(dataerr.TupleCountMismatch, mask.Name(), "mask has %d tuples, array has %d", mask.NumTuples(), a.NumTuples())
	}
	if err := mask.requireAllocated(); err != nil {
		return err
	}
	return a.setWhere(ctx, mask.data, v, workers)
}

// ExtractComponent copies one component of every tuple into a new
// single-component array named name.
func ExtractComponent(a Array, comp int, name string) (Array, error) {
	if comp < 0 || comp >= a.NumComponents() {
		return nil, dataerr.New(dataerr.IndexOutOfRange, a.Name(), "component %d outside [0, %d)", comp, a.NumComponents())
	}
	return a.extractComponent(comp, name)
}

// ComponentFloat64s collects one component of every tuple as float64.
func ComponentFloat64s(a Array, comp int) ([]float64, error) {
	if comp < 0 || comp >= a.NumComponents() {
		return nil, dataerr.New(dataerr.IndexOutOfRange, a.Name(), "component %d outside [0, %d)", comp, a.NumComponents())
	}
	if !a.IsAllocated() {
		return nil, dataerr.New(dataerr.Compute, a.Name(), "array is not allocated")
	}
	out := make([]float64, a.NumTuples())
	n := a.NumComponents()
	for t := range out {
		f, err := Float64At(a, t*n+comp)
		if err != nil {
			return nil, dataerr.New(dataerr.Compute, a.Name(), "tuple %d: %v", t, err)
		}
		out[t] = f
	}
	return out, nil
}

func (a *DataArray[T]) replaceValue(ctx context.Context, old, repl cty.Value, workers int) (int64, error) {
	if err := a.requireAllocated(); err != nil {
		return 0, err
	}
	from, err := fromCty[T](old)
	if err != nil {
		return 0, dataerr.Wrap(dataerr.InvalidParameter, a.name, err)
	}
	to, err := fromCty[T](repl)
	if err != nil {
		return 0, dataerr.Wrap(dataerr.InvalidParameter, a.name, err)
	}

	var changed atomic.Int64
	err = parallel.For(ctx, len(a.data), workers, func(lo, hi int) error {
		var n int64
		for i := lo; i < hi; i++ {
			if a.data[i] == from {
				a.data[i] = to
				n++
			}
		}
		changed.Add(n)
		return nil
	})
	return changed.Load(), err
}

func (a *DataArray[T]) setWhere(ctx context.Context, mask []bool, v cty.Value, workers int) error {
	if err := a.requireAllocated(); err != nil {
		return err
	}
	x, err := fromCty[T](v)
	if err != nil {
		return dataerr.Wrap(dataerr.InvalidParameter, a.name, err)
	}
	return parallel.For(ctx, a.numTuples, workers, func(lo, hi int) error {
		for t := lo; t < hi; t++ {
			if !mask[t] {
				continue
			}
			tuple := a.Tuple(t)
			for c := range tuple {
				tuple[c] = x
			}
		}
		return nil
	})
}

func (a *DataArray[T]) extractComponent(comp int, name string) (Array, error) {
	out, err := NewDataArray[T](name, a.numTuples, []int{1}, a.allocated)
	if err != nil {
		return nil, err
	}
	out.initValue = a.initValue
	if !a.allocated {
		return out, nil
	}
	for t := 0; t < a.numTuples; t++ {
		out.data[t] = a.data[t*a.numComps+comp]
	}
	return out, nil
}
