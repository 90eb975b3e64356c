package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/step"
)

// Namespace seeds the name-based UUIDs of registrations that do not set one.
var Namespace = uuid.MustParse("6f1c5a1e-3d0b-4c55-9a4e-8f5b1d7c2e90")

// Module is the interface that all step modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Factory builds a step with default parameters.
type Factory func() step.Step

// Registration describes one step type.
type Registration struct {
	Type        string
	UUID        uuid.UUID
	Group       string
	Description string
	New         Factory
}

// Registry holds the registrations of a single application instance.
type Registry struct {
	byType map[string]*Registration
	byUUID map[uuid.UUID]*Registration
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byType: make(map[string]*Registration),
		byUUID: make(map[uuid.UUID]*Registration),
	}
}

// Register adds a step type. A missing UUID is derived from the type name.
// Registering the same type or UUID twice is a programming error and panics.
func (r *Registry) Register(reg Registration) {
	if reg.Type == "" {
		panic("step registration has an empty type")
	}
	if _, exists := r.byType[reg.Type]; exists {
		panic(fmt.Sprintf("step type '%s' already registered", reg.Type))
	}
	if reg.UUID == uuid.Nil {
		reg.UUID = uuid.NewSHA1(Namespace, []byte(reg.Type))
	}
	if prev, exists := r.byUUID[reg.UUID]; exists {
		panic(fmt.Sprintf("step uuid '%s' of '%s' already registered by '%s'", reg.UUID, reg.Type, prev.Type))
	}
	slog.Debug("Registering step type.", "type", reg.Type, "uuid", reg.UUID)
	r.byType[reg.Type] = &reg
	r.byUUID[reg.UUID] = &reg
}

// Lookup returns the registration for a type name.
func (r *Registry) Lookup(typeName string) (*Registration, bool) {
	reg, ok := r.byType[typeName]
	return reg, ok
}

// LookupUUID returns the registration for a UUID.
func (r *Registry) LookupUUID(id uuid.UUID) (*Registration, bool) {
	reg, ok := r.byUUID[id]
	return reg, ok
}

// Create builds a new step of the given type.
func (r *Registry) Create(typeName string) (step.Step, error) {
	reg, ok := r.byType[typeName]
	if !ok {
		return nil, dataerr.New(dataerr.UnknownStep, "", "step type %q is not registered", typeName)
	}
	return reg.New(), nil
}

// Types returns every registered type name in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	return len(r.byType)
}

// RegisterModules adds every module to r.
func (r *Registry) RegisterModules(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}
