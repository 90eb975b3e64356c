package testutil

import (
	"context"
	"sync"

	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/vk/voxelflow/internal/params"
	"github.com/vk/voxelflow/internal/registry"
	"github.com/vk/voxelflow/internal/step"
	"github.com/zclconf/go-cty/cty"
)

// FuncStepType is the registry type of FuncStep.
const FuncStepType = "test_func"

// Recorder collects "phase:label" events from FuncSteps in call order.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *Recorder) Add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// FuncStep is a step whose phases are plain functions.
type FuncStep struct {
	step.Base
	Rec        *Recorder
	OnValidate func(ctx context.Context, env *step.Env) error
	OnCommit   func(ctx context.Context, env *step.Env) error
	Params     params.Values
}

// NewFuncStep creates a FuncStep that records into rec, which may be nil.
func NewFuncStep(label string, rec *Recorder) *FuncStep {
	s := &FuncStep{Base: step.NewBase(FuncStepType), Rec: rec, Params: params.Values{}}
	s.SetLabel(label)
	return s
}

func (s *FuncStep) Validate(ctx context.Context, env *step.Env) error {
	if s.Rec != nil {
		s.Rec.Add("validate:" + s.Label())
	}
	if s.OnValidate == nil {
		return nil
	}
	return s.OnValidate(ctx, env)
}

func (s *FuncStep) Commit(ctx context.Context, env *step.Env) error {
	if s.Rec != nil {
		s.Rec.Add("commit:" + s.Label())
	}
	if s.OnCommit == nil {
		return nil
	}
	return s.OnCommit(ctx, env)
}

func (s *FuncStep) ReadParameters(r params.Reader) error {
	s.Params = params.Values{}
	for _, name := range r.Names() {
		s.Params[name] = r.Value(name)
	}
	return nil
}

func (s *FuncStep) WriteParameters(w params.Writer) error {
	for name, v := range s.Params {
		w.Set(name, v)
	}
	return nil
}

// FuncModule registers FuncStep.
type FuncModule struct{}

func (FuncModule) Register(r *registry.Registry) {
	r.Register(registry.Registration{
		Type:        FuncStepType,
		Description: "Test step driven by functions.",
		New:         func() step.Step { return NewFuncStep("", nil) },
	})
}

// CreatesArray makes s declare a float32 array at path in both phases.
func CreatesArray(s *FuncStep, path string) *FuncStep {
	p := datapath.MustParse(path)
	create := func(_ context.Context, env *step.Env) error {
		_, err := env.Collection.CreateArray(p, datatype.Float32, []int{1}, cty.NumberIntVal(1), env.Mode())
		return err
	}
	s.OnValidate = create
	s.OnCommit = create
	return s
}

// RequiresArray makes s fetch the array at path in both phases, then run
// next, which may be nil.
func RequiresArray(s *FuncStep, path string, next func(ctx context.Context, env *step.Env) error) *FuncStep {
	p := datapath.MustParse(path)
	fetch := func(ctx context.Context, env *step.Env) error {
		if _, err := env.Collection.FetchArray(p, nil); err != nil {
			return err
		}
		if next != nil {
			return next(ctx, env)
		}
		return nil
	}
	s.OnValidate = fetch
	s.OnCommit = fetch
	return s
}

// CellCollection builds a collection holding an empty DC/Cell set with the
// given tuple count.
func CellCollection(tuples int) *datacontainer.Collection {
	c := datacontainer.New()
	if _, err := c.CreateContainer("DC", datacontainer.Commit); err != nil {
		panic(err)
	}
	if _, err := c.CreateAttributeSet(datapath.MustParse("DC/Cell"), []int{tuples}, datacontainer.Cell, datacontainer.Commit); err != nil {
		panic(err)
	}
	return c
}
