package datacontainer

import (
	"slices"
	"strings"
	"sync"

	"github.com/vk/voxelflow/internal/dataarray"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/zclconf/go-cty/cty"
)

// Mode controls how the creators behave.
type Mode struct {
	// Allocate creates buffers. It is false while a pipeline is validated.
	Allocate bool
	// Replace overwrites an existing object instead of failing.
	Replace bool
	// Owner identifies the declaring step, starting at 1. A placeholder can
	// only be declared again by its owner. Zero matches any owner.
	Owner int
}

func (m Mode) owns(owner int) bool {
	return owner == 0 || m.Owner == 0 || owner == m.Owner
}

var (
	// Preflight is the mode used while validating.
	Preflight = Mode{}
	// Commit is the mode used while executing.
	Commit = Mode{Allocate: true}
)

// Collection is the root of the container hierarchy. It is safe for
// concurrent use through its methods; pointers it hands out are not.
type Collection struct {
	mu         sync.RWMutex
	containers ordered[*Container]
}

// New creates an empty collection.
func New() *Collection {
	return &Collection{containers: newOrdered[*Container]()}
}

// Len returns the number of containers.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.containers.len()
}

// Container returns the named container.
func (c *Collection) Container(name string) (*Container, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.containers.get(name)
}

// Containers returns every container in insertion order.
func (c *Collection) Containers() []*Container {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.containers.values()
}

// ContainerNames returns every container name in insertion order.
func (c *Collection) ContainerNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.containers.names()
}

// InsertContainer stores dc under its own name following the placeholder
// rules of CreateContainer. In preflight mode dc becomes a placeholder. The
// stored container is returned.
func (c *Collection) InsertContainer(dc *Container, mode Mode) (*Container, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.containers.get(dc.Name()); ok && !mode.Replace {
		if !existing.placeholder || !mode.owns(existing.owner) {
			return nil, dataerr.New(dataerr.DuplicateName, dc.Name(), "container %q already exists", dc.Name())
		}
		if !mode.Allocate {
			return existing, nil
		}
	}
	dc.placeholder = !mode.Allocate
	dc.owner = mode.Owner
	if mode.Replace {
		c.containers.remove(dc.Name())
	}
	c.containers.set(dc.Name(), dc)
	return dc, nil
}

// AddContainer stores an existing container. The name must be free.
func (c *Collection) AddContainer(dc *Container) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.containers.get(dc.Name()); exists {
		return dataerr.New(dataerr.DuplicateName, dc.Name(), "container %q already exists", dc.Name())
	}
	c.containers.set(dc.Name(), dc)
	return nil
}

// CreateContainer creates a container named name.
func (c *Collection) CreateContainer(name string, mode Mode) (*Container, error) {
	if err := datapath.ValidateName(name); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.containers.get(name); ok && !mode.Replace {
		if !existing.placeholder || !mode.owns(existing.owner) {
			return nil, dataerr.New(dataerr.DuplicateName, name, "container %q already exists", name)
		}
		if mode.Allocate {
			existing.placeholder = false
		}
		return existing, nil
	}

	dc, err := NewContainer(name)
	if err != nil {
		return nil, err
	}
	dc.placeholder = !mode.Allocate
	dc.owner = mode.Owner
	if mode.Replace {
		c.containers.remove(name)
	}
	c.containers.set(name, dc)
	return dc, nil
}

// CreateAttributeSet creates the attribute set addressed by path, a
// "container/set" path.
func (c *Collection) CreateAttributeSet(path datapath.Path, tupleDims []int, kind SetKind, mode Mode) (*AttributeSet, error) {
	if path.Depth() != datapath.DepthAttributeSet {
		return nil, dataerr.New(dataerr.InvalidPath, path.String(), "expected a container/attributeset path").WithCode(-80010)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dc, err := c.container(path)
	if err != nil {
		return nil, err
	}
	if existing, ok := dc.sets.get(path.AttributeSet); ok && !mode.Replace {
		if !existing.placeholder || !mode.owns(existing.owner) || existing.kind != kind || !slices.Equal(existing.tupleDims, tupleDims) {
			return nil, dataerr.New(dataerr.DuplicateName, path.String(), "attribute set %q already exists", path.AttributeSet)
		}
		if mode.Allocate {
			existing.placeholder = false
		}
		return existing, nil
	}

	s, err := NewAttributeSet(path.AttributeSet, tupleDims, kind)
	if err != nil {
		return nil, err
	}
	s.placeholder = !mode.Allocate
	s.owner = mode.Owner
	if mode.Replace {
		dc.sets.remove(path.AttributeSet)
	}
	dc.sets.set(s.name, s)
	return s, nil
}

// CreateArray creates the array addressed by path with one tuple per tuple of
// its attribute set. Every element is set to initValue coerced to t once
// allocated.
func (c *Collection) CreateArray(path datapath.Path, t datatype.Type, compDims []int, initValue cty.Value, mode Mode) (dataarray.Array, error) {
	if path.Depth() != datapath.DepthArray {
		return nil, dataerr.New(dataerr.InvalidPath, path.String(), "expected a container/attributeset/array path").WithCode(-80010)
	}
	if err := datapath.ValidateName(path.Array); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.attributeSet(path)
	if err != nil {
		return nil, err
	}

	if existing, ok := s.arrays.get(path.Array); ok && !mode.Replace {
		if !s.reusable(path.Array, mode) || existing.Type() != t || !slices.Equal(existing.ComponentDims(), compDims) {
			return nil, dataerr.New(dataerr.DuplicateName, path.String(), "array %q already exists", path.Array)
		}
		if mode.Allocate {
			if err := existing.InitializeWithValue(initValue); err != nil {
				return nil, err
			}
			existing.Allocate()
			delete(s.placeholders, path.Array)
		}
		return existing, nil
	}

	a, err := dataarray.New(t, path.Array, s.numTuples, compDims, false)
	if err != nil {
		return nil, withPath(err, path)
	}
	if err := a.InitializeWithValue(initValue); err != nil {
		return nil, withPath(err, path)
	}
	if mode.Allocate {
		a.Allocate()
	}
	if err := s.InsertOrAssign(a); err != nil {
		return nil, err
	}
	if !mode.Allocate {
		s.placeholders[a.Name()] = mode.Owner
	}
	return a, nil
}

// InsertNew stores a, which must not exist yet, in the attribute set
// addressed by setPath and returns the stored array. A placeholder declared
// by the same owner with the same type and shape counts as free: in
// preflight mode it is kept, otherwise a replaces it. In preflight mode a is
// stored as a placeholder. Mode.Replace overwrites any existing array.
func (c *Collection) InsertNew(setPath datapath.Path, a dataarray.Array, mode Mode) (dataarray.Array, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.attributeSet(setPath)
	if err != nil {
		return nil, err
	}
	path := setPath.WithArray(a.Name())
	if existing, ok := s.arrays.get(a.Name()); ok && !mode.Replace {
		if !s.reusable(a.Name(), mode) || !dataarray.SameShape(existing, a) {
			return nil, dataerr.New(dataerr.DuplicateName, path.String(), "array %q already exists", a.Name())
		}
		if !mode.Allocate {
			return existing, nil
		}
	}
	if err := s.InsertOrAssign(a); err != nil {
		return nil, err
	}
	if !mode.Allocate {
		s.placeholders[a.Name()] = mode.Owner
	}
	return a, nil
}

// RequireFree fails with DuplicateName when path addresses an array that
// InsertNew or CreateArray in mode could not declare again. Missing parents
// are not an error here.
func (c *Collection) RequireFree(path datapath.Path, mode Mode) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, err := c.attributeSet(path)
	if err != nil {
		return nil
	}
	if _, ok := s.arrays.get(path.Array); !ok || mode.Replace || s.reusable(path.Array, mode) {
		return nil
	}
	return dataerr.New(dataerr.DuplicateName, path.String(), "array %q already exists", path.Array)
}

// Declared reports whether path holds an array placeholder owned by
// mode.Owner.
func (c *Collection) Declared(path datapath.Path, mode Mode) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, err := c.attributeSet(path)
	if err != nil {
		return false
	}
	owner, ok := s.placeholders[path.Array]
	return ok && owner == mode.Owner
}

// InsertArray stores a in the attribute set addressed by setPath.
func (c *Collection) InsertArray(setPath datapath.Path, a dataarray.Array) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.attributeSet(setPath)
	if err != nil {
		return err
	}
	return s.InsertOrAssign(a)
}

// ResolvePath returns the array addressed by a three-segment path. The first
// missing level decides the error kind.
func (c *Collection) ResolvePath(path datapath.Path) (dataarray.Array, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.array(path)
}

// FetchArray resolves path and checks the component dims of the array. A nil
// expectedDims accepts any shape.
func (c *Collection) FetchArray(path datapath.Path, expectedDims []int) (dataarray.Array, error) {
	a, err := c.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	if expectedDims != nil && !slices.Equal(a.ComponentDims(), expectedDims) {
		return nil, dataerr.New(dataerr.ShapeMismatch, path.String(),
			"array has component dims %v, %v were expected", a.ComponentDims(), expectedDims)
	}
	return a, nil
}

// Fetch resolves path and casts the array to element type T.
func Fetch[T datatype.Element](c *Collection, path datapath.Path, expectedDims []int) (*dataarray.DataArray[T], error) {
	a, err := c.FetchArray(path, expectedDims)
	if err != nil {
		return nil, err
	}
	typed, err := dataarray.As[T](a)
	if err != nil {
		return nil, withPath(err, path)
	}
	return typed, nil
}

// FetchContainer returns the container named by the first segment of path.
func (c *Collection) FetchContainer(path datapath.Path) (*Container, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.container(path)
}

// FetchAttributeSet returns the set named by the first two segments of path.
func (c *Collection) FetchAttributeSet(path datapath.Path) (*AttributeSet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attributeSet(path)
}

// RemovePath deletes the object a path addresses: a container, a set or an
// array depending on its depth.
func (c *Collection) RemovePath(path datapath.Path) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch path.Depth() {
	case datapath.DepthContainer:
		if _, ok := c.containers.remove(path.Container); !ok {
			return dataerr.New(dataerr.MissingContainer, path.String(), "container %q not found", path.Container)
		}
	case datapath.DepthAttributeSet:
		dc, err := c.container(path)
		if err != nil {
			return err
		}
		if _, ok := dc.sets.remove(path.AttributeSet); !ok {
			return dataerr.New(dataerr.MissingAttributeSet, path.String(), "attribute set %q not found", path.AttributeSet)
		}
	case datapath.DepthArray:
		s, err := c.attributeSet(path)
		if err != nil {
			return err
		}
		if _, ok := s.Remove(path.Array); !ok {
			return dataerr.New(dataerr.MissingArray, path.String(), "array %q not found", path.Array)
		}
	default:
		return dataerr.New(dataerr.InvalidPath, "", "path is empty").WithCode(-80000)
	}
	return nil
}

// Rename changes the last segment of the object path addresses.
func (c *Collection) Rename(path datapath.Path, newName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch path.Depth() {
	case datapath.DepthContainer:
		if err := datapath.ValidateName(newName); err != nil {
			return err
		}
		dc, err := c.container(path)
		if err != nil {
			return err
		}
		if path.Container == newName {
			return nil
		}
		if _, exists := c.containers.get(newName); exists {
			return dataerr.New(dataerr.DuplicateName, newName, "container %q already exists", newName)
		}
		c.containers.rename(path.Container, newName)
		dc.name = newName
		return nil
	case datapath.DepthAttributeSet:
		dc, err := c.container(path)
		if err != nil {
			return err
		}
		return dc.RenameAttributeSet(path.AttributeSet, newName)
	case datapath.DepthArray:
		s, err := c.attributeSet(path)
		if err != nil {
			return err
		}
		if _, ok := s.arrays.get(path.Array); !ok {
			return dataerr.New(dataerr.MissingArray, path.String(), "array %q not found", path.Array)
		}
		return withPath(s.Rename(path.Array, newName), path.WithArray(newName))
	}
	return dataerr.New(dataerr.InvalidPath, "", "path is empty").WithCode(-80000)
}

// DeepCopy clones the whole hierarchy. With forceNoAllocate every array in
// the copy is metadata only.
func (c *Collection) DeepCopy(forceNoAllocate bool) *Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Collection{
		containers: c.containers.clone(func(dc *Container) *Container {
			return dc.DeepCopy(forceNoAllocate)
		}),
	}
}

// ArrayPaths lists the path of every array in insertion order.
func (c *Collection) ArrayPaths() []datapath.Path {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []datapath.Path
	for _, dc := range c.containers.values() {
		for _, s := range dc.sets.values() {
			for _, name := range s.arrays.names() {
				out = append(out, datapath.New(dc.name, s.name, name))
			}
		}
	}
	return out
}

// Paths lists every container, set and array path, depth first.
func (c *Collection) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, dc := range c.containers.values() {
		out = append(out, dc.name)
		for _, s := range dc.sets.values() {
			out = append(out, datapath.New(dc.name, s.name, "").String())
			for _, name := range s.arrays.names() {
				out = append(out, datapath.New(dc.name, s.name, name).String())
			}
		}
	}
	return out
}

// Info renders the whole hierarchy.
func (c *Collection) Info() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sb strings.Builder
	for _, dc := range c.containers.values() {
		sb.WriteString(dc.Info())
	}
	return sb.String()
}

func (c *Collection) container(path datapath.Path) (*Container, error) {
	if path.Container == "" {
		return nil, dataerr.New(dataerr.InvalidPath, path.String(), "path has no container segment").WithCode(-80000)
	}
	dc, ok := c.containers.get(path.Container)
	if !ok {
		return nil, dataerr.New(dataerr.MissingContainer, path.String(), "container %q not found", path.Container)
	}
	return dc, nil
}

func (c *Collection) attributeSet(path datapath.Path) (*AttributeSet, error) {
	dc, err := c.container(path)
	if err != nil {
		return nil, err
	}
	if path.AttributeSet == "" {
		return nil, dataerr.New(dataerr.InvalidPath, path.String(), "path has no attribute set segment").WithCode(-80001)
	}
	s, ok := dc.sets.get(path.AttributeSet)
	if !ok {
		return nil, dataerr.New(dataerr.MissingAttributeSet, path.String(), "attribute set %q not found in container %q", path.AttributeSet, path.Container)
	}
	return s, nil
}

func (c *Collection) array(path datapath.Path) (dataarray.Array, error) {
	s, err := c.attributeSet(path)
	if err != nil {
		return nil, err
	}
	if path.Array == "" {
		return nil, dataerr.New(dataerr.InvalidPath, path.String(), "path has no array segment").WithCode(-80001)
	}
	a, ok := s.arrays.get(path.Array)
	if !ok {
		return nil, dataerr.New(dataerr.MissingArray, path.String(), "array %q not found in %q", path.Array, path.SetPath().String())
	}
	return a, nil
}

// withPath fills in the full path on errors raised with only a name.
func withPath(err error, path datapath.Path) error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*dataerr.Error); ok {
		cp := *de
		cp.Path = path.String()
		return &cp
	}
	return err
}
