package dataarray

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/zclconf/go-cty/cty"
)

// Array is the type-erased handle to a DataArray.
type Array interface {
	Name() string
	SetName(name string)
	Type() datatype.Type
	TypeName() string

	NumTuples() int
	ComponentDims() []int
	NumComponents() int
	Size() int
	SizeInBytes() int
	IsAllocated() bool

	Allocate()
	Release()
	ResizeTuples(numTuples int) error
	EraseTuples(indices []int) error
	CopyTuple(from, to int) error
	CopyFrom(destTuple int, src Array, srcTuple, numTuples int) error

	InitValue() cty.Value
	InitializeWithZeros()
	InitializeWithValue(v cty.Value) error

	DeepCopy(forceNoAllocate bool) Array
	ValueString(tuple int) string
	Info() string

	// unexported hooks keep the interface sealed.
	elementAt(i int) any
	replaceValue(ctx context.Context, old, repl cty.Value, workers int) (int64, error)
	setWhere(ctx context.Context, mask []bool, v cty.Value, workers int) error
	extractComponent(comp int, name string) (Array, error)
}

// DataArray is an array of tuples whose elements have type T.
type DataArray[T datatype.Element] struct {
	name      string
	numTuples int
	compDims  []int
	numComps  int
	data      []T
	allocated bool
	initValue T
}

var _ Array = (*DataArray[float32])(nil)

// NewDataArray creates an array of numTuples tuples shaped by compDims. When
// allocate is false only metadata is recorded.
func NewDataArray[T datatype.Element](name string, numTuples int, compDims []int, allocate bool) (*DataArray[T], error) {
	numComps, err := checkShape(name, numTuples, compDims)
	if err != nil {
		return nil, err
	}
	a := &DataArray[T]{
		name:      name,
		numTuples: numTuples,
		compDims:  slices.Clone(compDims),
		numComps:  numComps,
	}
	if allocate {
		a.Allocate()
	}
	return a, nil
}

// FromValues wraps vals as an allocated array. len(vals) must be a multiple of
// the component count.
func FromValues[T datatype.Element](name string, compDims []int, vals []T) (*DataArray[T], error) {
	numComps, err := checkShape(name, 0, compDims)
	if err != nil {
		return nil, err
	}
	if len(vals)%numComps != 0 {
		return nil, dataerr.New(dataerr.ShapeMismatch, name, "%d values do not divide into tuples of %d components", len(vals), numComps)
	}
	return &DataArray[T]{
		name:      name,
		numTuples: len(vals) / numComps,
		compDims:  slices.Clone(compDims),
		numComps:  numComps,
		data:      slices.Clone(vals),
		allocated: true,
	}, nil
}

func checkShape(name string, numTuples int, compDims []int) (int, error) {
	if numTuples < 0 {
		return 0, dataerr.New(dataerr.ShapeMismatch, name, "tuple count %d is negative", numTuples)
	}
	if len(compDims) == 0 {
		return 0, dataerr.New(dataerr.ShapeMismatch, name, "component dimensions are empty").WithCode(-8051)
	}
	n := 1
	for _, d := range compDims {
		if d < 0 {
			return 0, dataerr.New(dataerr.ShapeMismatch, name, "component dimension %d is negative", d).WithCode(-8050)
		}
		if d == 0 {
			return 0, dataerr.New(dataerr.ShapeMismatch, name, "component dimension is zero").WithCode(-8051)
		}
		if n > math.MaxInt/d {
			return 0, dataerr.New(dataerr.ShapeMismatch, name, "component dimensions %v overflow", compDims)
		}
		n *= d
	}
	if numTuples > 0 && n > math.MaxInt/numTuples {
		return 0, dataerr.New(dataerr.ShapeMismatch, name, "%d tuples of %d components overflow", numTuples, n)
	}
	return n, nil
}

func (a *DataArray[T]) Name() string { return a.name }
func (a *DataArray[T]) SetName(name string) { a.name = name }
func (a *DataArray[T]) Type() datatype.Type { return datatype.Of[T]() }
func (a *DataArray[T]) TypeName() string { return a.Type().String() }
func (a *DataArray[T]) NumTuples() int { return a.numTuples }
func (a *DataArray[T]) NumComponents() int { return a.numComps }
func (a *DataArray[T]) IsAllocated() bool { return a.allocated }

// ComponentDims returns a copy of the per-tuple shape.
func (a *DataArray[T]) ComponentDims() []int { return slices.Clone(a.compDims) }

// Size is the number of elements the array holds or would hold once allocated.
func (a *DataArray[T]) Size() int { return a.numTuples * a.numComps }

// SizeInBytes reports the buffer footprint. Strings count their byte length.
func (a *DataArray[T]) SizeInBytes() int {
	if w := a.Type().Size(); w > 0 {
		return a.Size() * w
	}
	total := 0
	for _, v := range a.data {
		if s, ok := any(v).(string); ok {
			total += len(s)
		}
	}
	return total
}

// Values exposes the backing buffer. It is nil for metadata-only arrays.
func (a *DataArray[T]) Values() []T { return a.data }

// Value returns element i of the flat buffer.
func (a *DataArray[T]) Value(i int) T { return a.data[i] }

// SetValue sets element i of the flat buffer.
func (a *DataArray[T]) SetValue(i int, v T) { a.data[i] = v }

// Component returns one component of one tuple.
func (a *DataArray[T]) Component(tuple, comp int) T {
	return a.data[tuple*a.numComps+comp]
}

// SetComponent sets one component of one tuple.
func (a *DataArray[T]) SetComponent(tuple, comp int, v T) {
	a.data[tuple*a.numComps+comp] = v
}

// Tuple returns a view of the components of one tuple.
func (a *DataArray[T]) Tuple(tuple int) []T {
	off := tuple * a.numComps
	return a.data[off : off+a.numComps : off+a.numComps]
}

// SetTuple copies vals into one tuple.
func (a *DataArray[T]) SetTuple(tuple int, vals []T) error {
	if len(vals) != a.numComps {
		return dataerr.New(dataerr.ShapeMismatch, a.name, "tuple has %d components, got %d values", a.numComps, len(vals))
	}
	if err := a.checkTuple(tuple); err != nil {
		return err
	}
	copy(a.Tuple(tuple), vals)
	return nil
}

// ValueString formats one tuple as comma separated components.
func (a *DataArray[T]) ValueString(tuple int) string {
	if !a.allocated || tuple < 0 || tuple >= a.numTuples {
		return ""
	}
	parts := make([]string, a.numComps)
	for i, v := range a.Tuple(tuple) {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

// Info renders the array metadata in a human readable block.
func (a *DataArray[T]) Info() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", a.name)
	fmt.Fprintf(&sb, "Type: %s\n", a.TypeName())
	fmt.Fprintf(&sb, "Number of Tuples: %d\n", a.numTuples)
	fmt.Fprintf(&sb, "Component Dimensions: %v\n", a.compDims)
	fmt.Fprintf(&sb, "Total Elements: %d\n", a.Size())
	fmt.Fprintf(&sb, "Total Memory Required: %d\n", a.SizeInBytes())
	fmt.Fprintf(&sb, "Allocated: %t\n", a.allocated)
	return sb.String()
}

func (a *DataArray[T]) elementAt(i int) any { return a.data[i] }

func (a *DataArray[T]) checkTuple(tuple int) error {
	if tuple < 0 || tuple >= a.numTuples {
		return dataerr.New(dataerr.IndexOutOfRange, a.name, "tuple %d outside [0, %d)", tuple, a.numTuples)
	}
	return nil
}

func (a *DataArray[T]) requireAllocated() error {
	if !a.allocated {
		return dataerr.New(dataerr.Compute, a.name, "array is not allocated")
	}
	return nil
}
