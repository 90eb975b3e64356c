package pipeline

import (
	"context"
	"time"

	"github.com/vk/voxelflow/internal/ctxlog"
	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datacontainer"
	"github.com/vk/voxelflow/internal/step"
)

// Hook is implemented by observers that also want timing callbacks.
type Hook interface {
	OnStepDone(phase step.Phase, s step.Step, res step.Result, elapsed time.Duration)
	OnRunDone(r Result)
}

// ValidateAll validates every enabled step against a metadata-only copy of
// coll. It stops at the first failing step.
func (p *Pipeline) ValidateAll(ctx context.Context, coll *datacontainer.Collection) Result {
	steps, observers, err := p.begin(ValidatingAll)
	if err != nil {
		return Result{Phase: step.Validate, State: p.State(), FailedIndex: -1, Err: err}
	}
	defer p.running.Store(false)
	p.cancel.Store(false)

	logger := ctxlog.FromContext(ctx).With("pipeline", p.Name())
	logger.Debug("Pipeline validation started.", "steps", len(steps))

	work := coll.DeepCopy(true)
	res := p.runPhase(ctx, step.Validate, steps, observers, work)

	p.mu.Lock()
	p.state = res.State
	p.validated = res.Ok()
	p.mu.Unlock()

	if res.Ok() {
		logger.Debug("Pipeline validation passed.", "duration", res.Duration)
	} else {
		logger.Warn("Pipeline validation failed.", "step", res.FailedLabel, "index", res.FailedIndex, "error", res.Err)
	}
	p.finish(observers, res)
	return res
}

// CommitAll executes every enabled step against coll. It requires a
// successful ValidateAll since the last edit. A Cancel issued since that
// validation started stops the commit before its first step.
func (p *Pipeline) CommitAll(ctx context.Context, coll *datacontainer.Collection) Result {
	p.mu.Lock()
	validated := p.validated
	p.mu.Unlock()
	if !validated {
		err := dataerr.New(dataerr.NotValidated, "", "the pipeline must validate successfully before it is committed")
		return Result{Phase: step.Commit, State: p.State(), FailedIndex: -1, Err: err}
	}

	steps, observers, err := p.begin(CommittingAll)
	if err != nil {
		return Result{Phase: step.Commit, State: p.State(), FailedIndex: -1, Err: err}
	}
	defer p.running.Store(false)

	logger := ctxlog.FromContext(ctx).With("pipeline", p.Name())
	logger.Info("🚀 Pipeline execution started.", "steps", len(steps))

	res := p.runPhase(ctx, step.Commit, steps, observers, coll)

	p.mu.Lock()
	p.state = res.State
	p.validated = false
	p.mu.Unlock()

	switch res.State {
	case AllCommitted:
		logger.Info("🏁 Pipeline execution finished.", "duration", res.Duration)
	case Cancelled:
		logger.Warn("Pipeline cancelled.", "completed", res.Completed)
	default:
		logger.Error("Pipeline execution failed.", "step", res.FailedLabel, "index", res.FailedIndex, "error", res.Err)
	}
	p.finish(observers, res)
	return res
}

// Run validates and, when validation passes, commits.
func (p *Pipeline) Run(ctx context.Context, coll *datacontainer.Collection) Result {
	res := p.ValidateAll(ctx, coll)
	if !res.Ok() {
		return res
	}
	return p.CommitAll(ctx, coll)
}

func (p *Pipeline) begin(state State) ([]step.Step, []step.Observer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running.CompareAndSwap(false, true) {
		return nil, nil, dataerr.New(dataerr.PipelineBusy, "", "pipeline is already running")
	}
	p.state = state
	p.stepStates = make([]step.State, len(p.steps))
	return append([]step.Step(nil), p.steps...), append([]step.Observer(nil), p.observers...), nil
}

func (p *Pipeline) runPhase(ctx context.Context, phase step.Phase, steps []step.Step, observers []step.Observer, coll *datacontainer.Collection) Result {
	start := time.Now()
	res := Result{Phase: phase, FailedIndex: -1, Steps: make([]StepReport, len(steps))}
	notify := func(m step.Message) {
		for _, o := range observers {
			o.OnMessage(m)
		}
	}

	cancelledAt := func(i int) {
		notify(step.Message{Kind: step.StatusMessage, StepIndex: i, StepCount: len(steps), Text: "Pipeline Canceled"})
	}

	running, done, failed := phaseStepStates(phase)
	res.State = successState(phase)

	for i, s := range steps {
		res.Steps[i] = StepReport{Index: i, Type: s.Type(), Label: s.Label(), State: step.Idle}
	}

	for i, s := range steps {
		if !s.Enabled() {
			p.setStepState(i, step.Skipped)
			res.Steps[i].State = step.Skipped
			continue
		}
		if phase == step.Commit && p.cancelled(ctx) {
			res.State = Cancelled
			cancelledAt(i)
			break
		}

		env := &step.Env{
			Collection:  coll,
			Phase:       phase,
			Workers:     p.workers,
			Index:       i,
			Total:       len(steps),
			Notify:      notify,
			IsCancelled: p.cancel.Load,
		}
		if phase == step.Commit {
			notify(step.Message{Kind: step.StatusMessage, StepIndex: i, StepCount: len(steps), StepType: s.Type(), Label: s.Label(), Text: "Executing"})
		}

		p.setStepState(i, running)
		stepStart := time.Now()
		sr := step.Run(ctx, s, env)
		elapsed := time.Since(stepStart)
		for _, o := range observers {
			if h, ok := o.(Hook); ok {
				h.OnStepDone(phase, s, sr, elapsed)
			}
		}

		res.Steps[i].Status = sr.Status
		res.Warnings = append(res.Warnings, sr.Status.Warnings...)
		if !sr.Ok() {
			p.setStepState(i, failed)
			res.Steps[i].State = failed
			res.Err = sr.Err
			res.FailedIndex = i
			res.FailedLabel = s.Label()
			res.State = failureState(phase)
			if phase == step.Commit && p.cancelled(ctx) {
				res.State = Cancelled
			}
			break
		}
		p.setStepState(i, done)
		res.Steps[i].State = done
		res.Completed++
		// Checked here too so a cancel during the last step is reported.
		if phase == step.Commit && p.cancelled(ctx) {
			res.State = Cancelled
			cancelledAt(min(i+1, len(steps)-1))
			break
		}
	}

	res.Duration = time.Since(start)
	return res
}

func (p *Pipeline) finish(observers []step.Observer, res Result) {
	for _, o := range observers {
		if h, ok := o.(Hook); ok {
			h.OnRunDone(res)
		}
	}
}

func (p *Pipeline) cancelled(ctx context.Context) bool {
	return p.cancel.Load() || ctx.Err() != nil
}

func (p *Pipeline) setStepState(i int, s step.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < len(p.stepStates) {
		p.stepStates[i] = s
	}
}

// phaseStepStates returns the running, done and failed step states of a phase.
func phaseStepStates(phase step.Phase) (running, done, failed step.State) {
	if phase == step.Commit {
		return step.Committing, step.Committed, step.CommitFailed
	}
	return step.Validating, step.Validated, step.ValidationFailed
}

func successState(phase step.Phase) State {
	if phase == step.Commit {
		return AllCommitted
	}
	return AllValidated
}

func failureState(phase step.Phase) State {
	if phase == step.Commit {
		return CommitFailed
	}
	return ValidationFailed
}
