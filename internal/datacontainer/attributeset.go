package datacontainer

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/vk/voxelflow/internal/dataarray"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
)

// AttributeSet is a named group of arrays sharing one tuple shape.
type AttributeSet struct {
	name        string
	kind        SetKind
	tupleDims   []int
	numTuples   int
	arrays      ordered[dataarray.Array]
	placeholder bool
	owner       int
	// placeholders maps arrays created in preflight mode to their owner.
	placeholders map[string]int
}

// NewAttributeSet creates an empty attribute set. The tuple count is the
// product of tupleDims.
func NewAttributeSet(name string, tupleDims []int, kind SetKind) (*AttributeSet, error) {
	if err := datapath.ValidateName(name); err != nil {
		return nil, err
	}
	n, err := tupleCount(name, tupleDims)
	if err != nil {
		return nil, err
	}
	return &AttributeSet{
		name:         name,
		kind:         kind,
		tupleDims:    slices.Clone(tupleDims),
		numTuples:    n,
		arrays:       newOrdered[dataarray.Array](),
		placeholders: make(map[string]int),
	}, nil
}

func tupleCount(name string, dims []int) (int, error) {
	if len(dims) == 0 {
		return 0, dataerr.New(dataerr.ShapeMismatch, name, "tuple dimensions are empty")
	}
	n := 1
	for _, d := range dims {
		if d < 0 {
			return 0, dataerr.New(dataerr.ShapeMismatch, name, "tuple dimension %d is negative", d)
		}
		if d > 0 && n > math.MaxInt/d {
			return 0, dataerr.New(dataerr.ShapeMismatch, name, "tuple dimensions %v overflow", dims)
		}
		n *= d
	}
	return n, nil
}

func (s *AttributeSet) Name() string { return s.name }
func (s *AttributeSet) Kind() SetKind { return s.kind }
func (s *AttributeSet) NumTuples() int { return s.numTuples }
func (s *AttributeSet) TupleDims() []int { return slices.Clone(s.tupleDims) }
func (s *AttributeSet) Len() int { return s.arrays.len() }
func (s *AttributeSet) ArrayNames() []string { return s.arrays.names() }

// IsPlaceholder reports whether the set was declared in preflight mode and
// not yet materialized.
func (s *AttributeSet) IsPlaceholder() bool { return s.placeholder }

// Array returns the named array.
func (s *AttributeSet) Array(name string) (dataarray.Array, bool) {
	return s.arrays.get(name)
}

// Arrays returns the arrays in insertion order.
func (s *AttributeSet) Arrays() []dataarray.Array {
	return s.arrays.values()
}

// InsertOrAssign stores a under its own name, replacing an array with the
// same name. The array's tuple count must equal the set's; otherwise the set
// is left unchanged.
func (s *AttributeSet) InsertOrAssign(a dataarray.Array) error {
	if a == nil {
		return dataerr.New(dataerr.MissingArray, s.name, "cannot insert a nil array")
	}
	if err := datapath.ValidateName(a.Name()); err != nil {
		return err
	}
	if a.NumTuples() != s.numTuples {
		return dataerr.New(dataerr.TupleCountMismatch, s.name+datapath.Separator+a.Name(),
			"array has %d tuples, attribute set %q has %d", a.NumTuples(), s.name, s.numTuples)
	}
	s.arrays.set(a.Name(), a)
	delete(s.placeholders, a.Name())
	return nil
}

// Remove deletes the named array and returns it.
func (s *AttributeSet) Remove(name string) (dataarray.Array, bool) {
	delete(s.placeholders, name)
	return s.arrays.remove(name)
}

// Rename changes the name of an array. The new name must be free.
func (s *AttributeSet) Rename(from, to string) error {
	if err := datapath.ValidateName(to); err != nil {
		return err
	}
	a, ok := s.arrays.get(from)
	if !ok {
		return dataerr.New(dataerr.MissingArray, s.name+datapath.Separator+from, "array %q not found", from)
	}
	if from == to {
		return nil
	}
	if _, exists := s.arrays.get(to); exists {
		return dataerr.New(dataerr.DuplicateName, s.name+datapath.Separator+to, "array %q already exists", to)
	}
	s.arrays.rename(from, to)
	a.SetName(to)
	if owner, ok := s.placeholders[from]; ok {
		delete(s.placeholders, from)
		s.placeholders[to] = owner
	}
	return nil
}

// ResizeTuples changes the tuple shape of the set and of every array in it.
func (s *AttributeSet) ResizeTuples(tupleDims []int) error {
	n, err := tupleCount(s.name, tupleDims)
	if err != nil {
		return err
	}
	for _, a := range s.arrays.values() {
		if err := a.ResizeTuples(n); err != nil {
			return err
		}
	}
	s.tupleDims = slices.Clone(tupleDims)
	s.numTuples = n
	return nil
}

// DeepCopy clones the set and all of its arrays.
func (s *AttributeSet) DeepCopy(forceNoAllocate bool) *AttributeSet {
	c := &AttributeSet{
		name:         s.name,
		kind:         s.kind,
		tupleDims:    slices.Clone(s.tupleDims),
		numTuples:    s.numTuples,
		placeholder:  s.placeholder,
		owner:        s.owner,
		placeholders: make(map[string]int, len(s.placeholders)),
	}
	c.arrays = s.arrays.clone(func(a dataarray.Array) dataarray.Array {
		return a.DeepCopy(forceNoAllocate)
	})
	for k, v := range s.placeholders {
		c.placeholders[k] = v
	}
	return c
}

// reusable reports whether the named array is a placeholder that mode may
// declare again.
func (s *AttributeSet) reusable(name string, mode Mode) bool {
	owner, ok := s.placeholders[name]
	return ok && mode.owns(owner)
}

// Info renders the set and its arrays.
func (s *AttributeSet) Info() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Attribute Set: %s\n", s.name)
	fmt.Fprintf(&sb, "Kind: %s\n", s.kind)
	fmt.Fprintf(&sb, "Tuple Dimensions: %v\n", s.tupleDims)
	fmt.Fprintf(&sb, "Number of Arrays: %d\n", s.arrays.len())
	for _, a := range s.arrays.values() {
		fmt.Fprintf(&sb, "  %s (%s, %v)\n", a.Name(), a.TypeName(), a.ComponentDims())
	}
	return sb.String()
}
