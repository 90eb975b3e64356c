package dataarray

import (
	"context"
	"slices"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/vk/voxelflow/internal/parallel"
)

// kind holds the type-specific constructors for one element type.
type kind struct {
	newArray func(name string, numTuples int, compDims []int, allocate bool) (Array, error)
	convert  func(ctx context.Context, src Array, name string, workers int) (Array, error)
	decode   func(a Array, raw []byte) error
}

func kindOf[T datatype.Element]() kind {
	return kind{
		newArray: func(name string, numTuples int, compDims []int, allocate bool) (Array, error) {
			return NewDataArray[T](name, numTuples, compDims, allocate)
		},
		convert: convertTo[T],
		decode: func(a Array, raw []byte) error {
			typed, err := As[T](a)
			if err != nil {
				return err
			}
			return decodeInto(typed, raw)
		},
	}
}

// table is indexed by datatype.Type. Unsupported stays empty.
var table = [datatype.Count + 1]kind{
	datatype.Int8:    kindOf[int8](),
	datatype.UInt8:   kindOf[uint8](),
	datatype.Int16:   kindOf[int16](),
	datatype.UInt16:  kindOf[uint16](),
	datatype.Int32:   kindOf[int32](),
	datatype.UInt32:  kindOf[uint32](),
	datatype.Int64:   kindOf[int64](),
	datatype.UInt64:  kindOf[uint64](),
	datatype.Float32: kindOf[float32](),
	datatype.Float64: kindOf[float64](),
	datatype.Bool:    kindOf[bool](),
	datatype.String:  kindOf[string](),
}

func lookup(t datatype.Type, name string) (kind, error) {
	if !t.Valid() || table[t].newArray == nil {
		return kind{}, dataerr.New(dataerr.UnsupportedType, name, "element type %s is not supported", t).WithSupported(datatype.Names())
	}
	return table[t], nil
}

// New creates an array of the given run-time type.
func New(t datatype.Type, name string, numTuples int, compDims []int, allocate bool) (Array, error) {
	k, err := lookup(t, name)
	if err != nil {
		return nil, err
	}
	return k.newArray(name, numTuples, compDims, allocate)
}

// Supported returns the names of every type New accepts.
func Supported() []string {
	var out []string
	for _, t := range datatype.All() {
		if table[t].newArray != nil {
			out = append(out, t.String())
		}
	}
	return out
}

// As recovers the concrete array type. A mismatch is reported as a
// TypeMismatch error listing every supported type.
func As[T datatype.Element](a Array) (*DataArray[T], error) {
	if a == nil {
		return nil, dataerr.New(dataerr.MissingArray, "", "array is nil")
	}
	typed, ok := a.(*DataArray[T])
	if !ok {
		return nil, dataerr.New(dataerr.TypeMismatch, a.Name(), "array holds %s, %s was requested", a.TypeName(), datatype.Of[T]()).
			WithSupported(datatype.Names())
	}
	return typed, nil
}

// Is reports whether a holds elements of type T.
func Is[T datatype.Element](a Array) bool {
	_, ok := a.(*DataArray[T])
	return ok
}

// Convert creates a new allocated array named name holding the elements of
// src converted to type t. Tuples are converted in parallel chunks.
func Convert(ctx context.Context, src Array, t datatype.Type, name string, workers int) (Array, error) {
	k, err := lookup(t, name)
	if err != nil {
		return nil, err
	}
	if !src.IsAllocated() {
		return k.newArray(name, src.NumTuples(), src.ComponentDims(), false)
	}
	return k.convert(ctx, src, name, workers)
}

func convertTo[D datatype.Element](ctx context.Context, src Array, name string, workers int) (Array, error) {
	dst, err := NewDataArray[D](name, src.NumTuples(), src.ComponentDims(), true)
	if err != nil {
		return nil, err
	}
	err = parallel.For(ctx, src.Size(), workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			v, err := castElement[D](src.elementAt(i))
			if err != nil {
				return dataerr.New(dataerr.Compute, src.Name(), "element %d: %v", i, err)
			}
			dst.data[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// CheckCompatible verifies that a has the given type, tuple count and
// component dims. Zero values of the expectations are not checked.
func CheckCompatible(a Array, t datatype.Type, numTuples int, compDims []int) error {
	if t != datatype.Unsupported && a.Type() != t {
		return dataerr.New(dataerr.TypeMismatch, a.Name(), "array holds %s, %s is required", a.TypeName(), t).
			WithSupported([]string{t.String()})
	}
	if numTuples > 0 && a.NumTuples() != numTuples {
		return dataerr.New(dataerr.TupleCountMismatch, a.Name(), "array has %d tuples, %d are required", a.NumTuples(), numTuples)
	}
	if compDims != nil && !sameDims(a.ComponentDims(), compDims) {
		return dataerr.New(dataerr.ShapeMismatch, a.Name(), "array has component dims %v, %v are required", a.ComponentDims(), compDims)
	}
	return nil
}

func sameDims(a, b []int) bool {
	return slices.Equal(a, b)
}

// SameShape reports whether two arrays share type, tuple count and dims.
func SameShape(a, b Array) bool {
	return a.Type() == b.Type() && a.NumTuples() == b.NumTuples() && sameDims(a.ComponentDims(), b.ComponentDims())
}
