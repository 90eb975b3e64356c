package step

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datacontainer"
	"golang.org/x/time/rate"
)

// Phase says which half of the two-phase protocol is running.
type Phase int

const (
	Validate Phase = iota
	Commit
)

func (p Phase) String() string {
	if p == Commit {
		return "commit"
	}
	return "validate"
}

// ProgressInterval bounds how often Progress messages are forwarded.
const ProgressInterval = 100 * time.Millisecond

// Env is what a step sees during one Validate or Commit call.
type Env struct {
	Collection *datacontainer.Collection
	Phase      Phase
	// Workers bounds internal parallelism. Zero means one per CPU.
	Workers int
	// Index and Total place the step in its pipeline, zero based.
	Index int
	Total int
	// Notify receives status, progress and warning messages. May be nil.
	Notify func(Message)
	// IsCancelled reports a pending cancellation request. May be nil.
	IsCancelled func() bool

	mu        sync.Mutex
	current   Step
	warnings  []dataerr.Warning
	sometimes rate.Sometimes
}

// NewEnv creates an environment for a standalone step invocation.
func NewEnv(coll *datacontainer.Collection, phase Phase) *Env {
	return &Env{Collection: coll, Phase: phase, Total: 1}
}

// Mode is the creation mode matching the phase. Objects are owned by the
// step at Index.
func (e *Env) Mode() datacontainer.Mode {
	m := datacontainer.Preflight
	if e.Phase == Commit {
		m = datacontainer.Commit
	}
	m.Owner = e.Index + 1
	return m
}

// Preflight reports whether the step is being validated.
func (e *Env) Preflight() bool {
	return e.Phase == Validate
}

// Cancelled reports whether the run should stop. Long loops in Commit
// should check it between chunks of work.
func (e *Env) Cancelled(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return e.IsCancelled != nil && e.IsCancelled()
}

// Warn records a non-fatal diagnostic and forwards it to observers.
func (e *Env) Warn(code int, path string, format string, args ...any) {
	w := dataerr.Warning{Code: code, Message: fmt.Sprintf(format, args...), Path: path}
	e.mu.Lock()
	e.warnings = append(e.warnings, w)
	e.mu.Unlock()
	e.send(Message{Kind: WarningMessage, Code: code, Text: w.Message, Path: path})
}

// Status forwards a free-form status line.
func (e *Env) Status(format string, args ...any) {
	e.send(Message{Kind: StatusMessage, Text: fmt.Sprintf(format, args...)})
}

// Progress forwards completion of done out of total units. Messages are
// throttled to one per ProgressInterval except for the final one.
func (e *Env) Progress(done, total int, text string) {
	if total <= 0 {
		return
	}
	msg := Message{Kind: ProgressMessage, Text: text, Progress: float64(done) / float64(total)}
	if done >= total {
		e.send(msg)
		return
	}
	e.sometimes.Do(func() { e.send(msg) })
}

// Warnings returns the diagnostics recorded since the last reset.
func (e *Env) Warnings() []dataerr.Warning {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]dataerr.Warning(nil), e.warnings...)
}

func (e *Env) reset(s Step) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = s
	e.warnings = nil
	e.sometimes = rate.Sometimes{First: 1, Interval: ProgressInterval}
}

func (e *Env) send(m Message) {
	if e.Notify == nil {
		return
	}
	m.StepIndex = e.Index
	m.StepCount = e.Total
	e.mu.Lock()
	s := e.current
	e.mu.Unlock()
	if s != nil {
		m.StepType = s.Type()
		m.Label = s.Label()
	}
	e.Notify(m)
}
