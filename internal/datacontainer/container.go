package datacontainer

import (
	"fmt"
	"strings"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
)

// Container is a named group of attribute sets with an optional geometry.
type Container struct {
	name        string
	geometry    Geometry
	sets        ordered[*AttributeSet]
	placeholder bool
	owner       int
}

// NewContainer creates an empty container.
func NewContainer(name string) (*Container, error) {
	if err := datapath.ValidateName(name); err != nil {
		return nil, err
	}
	return &Container{name: name, sets: newOrdered[*AttributeSet]()}, nil
}

func (c *Container) Name() string { return c.name }
func (c *Container) Geometry() Geometry { return c.geometry }
func (c *Container) SetGeometry(g Geometry) { c.geometry = g }
func (c *Container) Len() int { return c.sets.len() }
func (c *Container) IsPlaceholder() bool { return c.placeholder }

// AttributeSet returns the named attribute set.
func (c *Container) AttributeSet(name string) (*AttributeSet, bool) {
	return c.sets.get(name)
}

// AttributeSets returns the sets in insertion order.
func (c *Container) AttributeSets() []*AttributeSet {
	return c.sets.values()
}

// AddAttributeSet stores s. The name must be free.
func (c *Container) AddAttributeSet(s *AttributeSet) error {
	if _, exists := c.sets.get(s.Name()); exists {
		return dataerr.New(dataerr.DuplicateName, c.name+datapath.Separator+s.Name(), "attribute set %q already exists", s.Name())
	}
	c.sets.set(s.Name(), s)
	return nil
}

// RemoveAttributeSet deletes the named set and returns it.
func (c *Container) RemoveAttributeSet(name string) (*AttributeSet, bool) {
	return c.sets.remove(name)
}

// RenameAttributeSet changes the name of a set. The new name must be free.
func (c *Container) RenameAttributeSet(from, to string) error {
	if err := datapath.ValidateName(to); err != nil {
		return err
	}
	s, ok := c.sets.get(from)
	if !ok {
		return dataerr.New(dataerr.MissingAttributeSet, c.name+datapath.Separator+from, "attribute set %q not found", from)
	}
	if from == to {
		return nil
	}
	if _, exists := c.sets.get(to); exists {
		return dataerr.New(dataerr.DuplicateName, c.name+datapath.Separator+to, "attribute set %q already exists", to)
	}
	c.sets.rename(from, to)
	s.name = to
	return nil
}

// DeepCopy clones the container, its geometry and every set.
func (c *Container) DeepCopy(forceNoAllocate bool) *Container {
	cp := &Container{name: c.name, placeholder: c.placeholder, owner: c.owner}
	if c.geometry != nil {
		cp.geometry = c.geometry.Clone()
	}
	cp.sets = c.sets.clone(func(s *AttributeSet) *AttributeSet {
		return s.DeepCopy(forceNoAllocate)
	})
	return cp
}

// Info renders the container, its geometry and its sets.
func (c *Container) Info() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Container: %s\n", c.name)
	if c.geometry != nil {
		sb.WriteString(c.geometry.Info())
	}
	for _, s := range c.sets.values() {
		sb.WriteString(s.Info())
	}
	return sb.String()
}
