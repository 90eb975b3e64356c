package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/step"
)

// StepReport is the outcome of one step in a run.
type StepReport struct {
	Index  int
	Type   string
	Label  string
	State  step.State
	Status step.Status
}

// Result summarizes a ValidateAll or CommitAll call.
type Result struct {
	Phase step.Phase
	State State
	// FailedIndex is the zero-based index of the failing step, or -1.
	FailedIndex int
	FailedLabel string
	Err         error
	// Completed counts the enabled steps that finished successfully.
	Completed int
	Steps     []StepReport
	Warnings  []dataerr.Warning
	Duration  time.Duration
}

// Ok reports whether the run reached its success state.
func (r Result) Ok() bool {
	return r.Err == nil && (r.State == AllValidated || r.State == AllCommitted)
}

// Code is the numeric code of the failure, or 0.
func (r Result) Code() int {
	return dataerr.CodeOf(r.Err)
}

// Report renders the result as a multi-line human readable summary.
func (r Result) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s (%d/%d steps, %s)\n", r.Phase, r.State, r.Completed, len(r.Steps), r.Duration.Round(time.Millisecond))
	for _, s := range r.Steps {
		fmt.Fprintf(&sb, "  [%d] %-28s %-18s", s.Index+1, s.Label, s.State)
		if s.Status.Code != 0 {
			fmt.Fprintf(&sb, " %d: %s", s.Status.Code, s.Status.Message)
		}
		sb.WriteString("\n")
		for _, w := range s.Status.Warnings {
			fmt.Fprintf(&sb, "      warning %s\n", w)
		}
	}
	if r.Err != nil && r.FailedIndex < 0 {
		fmt.Fprintf(&sb, "  error: %v\n", r.Err)
	}
	return sb.String()
}
