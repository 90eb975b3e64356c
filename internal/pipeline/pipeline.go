package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/step"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the parallelism steps may use internally.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithObserver registers an observer for every message of every run.
func WithObserver(o step.Observer) Option {
	return func(p *Pipeline) { p.observers = append(p.observers, o) }
}

// Pipeline is an ordered list of steps.
type Pipeline struct {
	mu         sync.Mutex
	name       string
	steps      []step.Step
	stepStates []step.State
	state      State
	// validated is set by a successful ValidateAll and cleared by any edit
	// and by CommitAll.
	validated bool
	running   atomic.Bool
	cancel    atomic.Bool
	workers   int
	observers []step.Observer
}

// New creates an empty pipeline.
func New(name string, opts ...Option) *Pipeline {
	p := &Pipeline{name: name}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *Pipeline) SetName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
}

// State returns the state of the latest run.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// StepStates returns the per-step states of the latest run.
func (p *Pipeline) StepStates() []step.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]step.State(nil), p.stepStates...)
}

// Running reports whether a run is in progress.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Cancel requests that the current commit stop after the step in progress.
func (p *Pipeline) Cancel() {
	p.cancel.Store(true)
}

// CancelRequested reports whether Cancel was called during the current run.
func (p *Pipeline) CancelRequested() bool {
	return p.cancel.Load()
}

// AddObserver registers o for subsequent runs.
func (p *Pipeline) AddObserver(o step.Observer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running.Load() {
		return errBusy("add an observer")
	}
	p.observers = append(p.observers, o)
	return nil
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.steps)
}

// Steps returns a copy of the step list.
func (p *Pipeline) Steps() []step.Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]step.Step(nil), p.steps...)
}

// At returns the step at index i.
func (p *Pipeline) At(i int) (step.Step, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.steps) {
		return nil, errIndex(i, len(p.steps))
	}
	return p.steps[i], nil
}

// PushFront inserts s before every other step.
func (p *Pipeline) PushFront(s step.Step) error {
	return p.Insert(0, s)
}

// PushBack appends s.
func (p *Pipeline) PushBack(s step.Step) error {
	return p.edit(func() error {
		p.steps = append(p.steps, s)
		return nil
	})
}

// Insert places s at index i, shifting later steps. i may equal Len.
func (p *Pipeline) Insert(i int, s step.Step) error {
	return p.edit(func() error {
		if i < 0 || i > len(p.steps) {
			return errIndex(i, len(p.steps)+1)
		}
		p.steps = append(p.steps, nil)
		copy(p.steps[i+1:], p.steps[i:])
		p.steps[i] = s
		return nil
	})
}

// Erase removes the step at index i.
func (p *Pipeline) Erase(i int) (step.Step, error) {
	var removed step.Step
	err := p.edit(func() error {
		if i < 0 || i >= len(p.steps) {
			return errIndex(i, len(p.steps))
		}
		removed = p.steps[i]
		p.steps = append(p.steps[:i], p.steps[i+1:]...)
		return nil
	})
	return removed, err
}

// PopFront removes and returns the first step.
func (p *Pipeline) PopFront() (step.Step, error) {
	return p.Erase(0)
}

// PopBack removes and returns the last step.
func (p *Pipeline) PopBack() (step.Step, error) {
	var removed step.Step
	err := p.edit(func() error {
		n := len(p.steps)
		if n == 0 {
			return errIndex(-1, 0)
		}
		removed = p.steps[n-1]
		p.steps = p.steps[:n-1]
		return nil
	})
	return removed, err
}

// RemoveFirstByType removes the first step of the given type and reports
// whether one was found.
func (p *Pipeline) RemoveFirstByType(typeName string) (bool, error) {
	found := false
	err := p.edit(func() error {
		for i, s := range p.steps {
			if s.Type() == typeName {
				p.steps = append(p.steps[:i], p.steps[i+1:]...)
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

// Clear removes every step.
func (p *Pipeline) Clear() error {
	return p.edit(func() error {
		p.steps = nil
		return nil
	})
}

// edit applies fn under the lock unless a run is in progress, and
// invalidates the previous validation when fn succeeds.
func (p *Pipeline) edit(fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running.Load() {
		return errBusy("edit the step list")
	}
	if err := fn(); err != nil {
		return err
	}
	p.validated = false
	p.state = NotStarted
	p.stepStates = make([]step.State, len(p.steps))
	return nil
}

func errIndex(i, n int) error {
	return dataerr.New(dataerr.IndexOutOfRange, "", "step index %d outside [0, %d)", i, n)
}

func errBusy(action string) error {
	return dataerr.New(dataerr.PipelineBusy, "", "cannot %s while the pipeline is running", action).WithCode(-206)
}
