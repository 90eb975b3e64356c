package step

import (
	"context"

	"github.com/vk/voxelflow/internal/params"
)

// Step is a single processing stage of a pipeline.
type Step interface {
	// Type is the registry key the step was created from.
	Type() string
	// Label is the human readable name shown in reports.
	Label() string
	SetLabel(label string)
	Enabled() bool
	SetEnabled(enabled bool)

	Validate(ctx context.Context, env *Env) error
	Commit(ctx context.Context, env *Env) error

	ReadParameters(r params.Reader) error
	WriteParameters(w params.Writer) error
}

// Base carries the bookkeeping fields shared by every step. Embed it and
// implement the remaining methods.
type Base struct {
	typeName string
	label    string
	disabled bool
}

// NewBase creates a Base for the given registry type. The label defaults to
// the type name.
func NewBase(typeName string) Base {
	return Base{typeName: typeName, label: typeName}
}

func (b *Base) Type() string { return b.typeName }
func (b *Base) Label() string { return b.label }
func (b *Base) SetLabel(label string) { b.label = label }
func (b *Base) Enabled() bool { return !b.disabled }
func (b *Base) SetEnabled(enabled bool) { b.disabled = !enabled }

// State tracks one step through a pipeline run.
type State int

const (
	Idle State = iota
	Validating
	Validated
	ValidationFailed
	Committing
	Committed
	CommitFailed
	Skipped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Validated:
		return "validated"
	case ValidationFailed:
		return "validation_failed"
	case Committing:
		return "committing"
	case Committed:
		return "committed"
	case CommitFailed:
		return "commit_failed"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}
