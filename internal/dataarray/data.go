package dataarray

import (
	"slices"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/zclconf/go-cty/cty"
)

// Allocate creates the buffer and fills it with the recorded init value. It is
// a no-op for an already allocated array.
func (a *DataArray[T]) Allocate() {
	if a.allocated {
		return
	}
	a.data = make([]T, a.Size())
	a.fill(a.initValue)
	a.allocated = true
}

// Release drops the buffer and keeps the metadata.
func (a *DataArray[T]) Release() {
	a.data = nil
	a.allocated = false
}

// ResizeTuples changes the tuple count. New tuples take the init value.
func (a *DataArray[T]) ResizeTuples(numTuples int) error {
	if numTuples < 0 {
		return dataerr.New(dataerr.ShapeMismatch, a.name, "tuple count %d is negative", numTuples)
	}
	if a.allocated {
		old := len(a.data)
		size := numTuples * a.numComps
		if size <= cap(a.data) {
			a.data = a.data[:size]
		} else {
			grown := make([]T, size)
			copy(grown, a.data)
			a.data = grown
		}
		for i := old; i < size; i++ {
			a.data[i] = a.initValue
		}
	}
	a.numTuples = numTuples
	return nil
}

// EraseTuples removes the listed tuples, keeping the order of the rest.
// Duplicate indices are ignored. Any index outside the array fails the whole
// call and leaves the array untouched.
func (a *DataArray[T]) EraseTuples(indices []int) error {
	if len(indices) == 0 {
		return nil
	}
	drop := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if err := a.checkTuple(idx); err != nil {
			return err
		}
		drop[idx] = struct{}{}
	}
	if len(drop) >= a.numTuples {
		return a.ResizeTuples(0)
	}
	if !a.allocated {
		a.numTuples -= len(drop)
		return nil
	}

	kept := make([]T, 0, (a.numTuples-len(drop))*a.numComps)
	for t := 0; t < a.numTuples; t++ {
		if _, gone := drop[t]; gone {
			continue
		}
		kept = append(kept, a.Tuple(t)...)
	}
	a.data = kept
	a.numTuples -= len(drop)
	return nil
}

// CopyTuple overwrites tuple to with the components of tuple from.
func (a *DataArray[T]) CopyTuple(from, to int) error {
	if err := a.requireAllocated(); err != nil {
		return err
	}
	if err := a.checkTuple(from); err != nil {
		return err
	}
	if err := a.checkTuple(to); err != nil {
		return err
	}
	copy(a.Tuple(to), a.Tuple(from))
	return nil
}

// CopyFrom copies numTuples tuples of src, starting at srcTuple, into the
// receiver starting at destTuple. Both arrays must share element type and
// component count and both ranges must be in bounds.
func (a *DataArray[T]) CopyFrom(destTuple int, src Array, srcTuple, numTuples int) error {
	other, err := As[T](src)
	if err != nil {
		return err
	}
	if other.numComps != a.numComps {
		return dataerr.New(dataerr.ShapeMismatch, src.Name(), "source has %d components, destination %d", other.numComps, a.numComps)
	}
	if err := a.requireAllocated(); err != nil {
		return err
	}
	if err := other.requireAllocated(); err != nil {
		return err
	}
	if numTuples < 0 || srcTuple < 0 || srcTuple+numTuples > other.numTuples {
		return dataerr.New(dataerr.IndexOutOfRange, src.Name(), "source range [%d, %d) outside [0, %d)", srcTuple, srcTuple+numTuples, other.numTuples)
	}
	if destTuple < 0 || destTuple+numTuples > a.numTuples {
		return dataerr.New(dataerr.IndexOutOfRange, a.name, "destination range [%d, %d) outside [0, %d)", destTuple, destTuple+numTuples, a.numTuples)
	}
	n := a.numComps
	copy(a.data[destTuple*n:(destTuple+numTuples)*n], other.data[srcTuple*n:(srcTuple+numTuples)*n])
	return nil
}

// InitValue returns the value new elements are filled with.
func (a *DataArray[T]) InitValue() cty.Value {
	v, err := toCty(a.initValue)
	if err != nil {
		return cty.NilVal
	}
	return v
}

// InitializeWithZeros resets the init value to the zero of T and, when
// allocated, overwrites every element with it.
func (a *DataArray[T]) InitializeWithZeros() {
	var zero T
	a.initValue = zero
	a.fill(zero)
}

// InitializeWithValue records v, coerced to T, as the init value and fills an
// allocated buffer with it.
func (a *DataArray[T]) InitializeWithValue(v cty.Value) error {
	x, err := fromCty[T](v)
	if err != nil {
		return dataerr.Wrap(dataerr.InvalidParameter, a.name, err)
	}
	a.initValue = x
	a.fill(x)
	return nil
}

// Fill sets every element to v.
func (a *DataArray[T]) Fill(v T) {
	a.fill(v)
}

func (a *DataArray[T]) fill(v T) {
	for i := range a.data {
		a.data[i] = v
	}
}

// DeepCopy clones the array. With forceNoAllocate the copy is metadata only
// regardless of the source.
func (a *DataArray[T]) DeepCopy(forceNoAllocate bool) Array {
	return a.Clone(forceNoAllocate)
}

// Clone is the typed form of DeepCopy.
func (a *DataArray[T]) Clone(forceNoAllocate bool) *DataArray[T] {
	c := &DataArray[T]{
		name:      a.name,
		numTuples: a.numTuples,
		compDims:  slices.Clone(a.compDims),
		numComps:  a.numComps,
		initValue: a.initValue,
	}
	if a.allocated && !forceNoAllocate {
		c.data = slices.Clone(a.data)
		c.allocated = true
	}
	return c
}
