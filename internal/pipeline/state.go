package pipeline

// State is the lifecycle state of a pipeline run.
type State int

const (
	NotStarted State = iota
	ValidatingAll
	AllValidated
	ValidationFailed
	CommittingAll
	AllCommitted
	CommitFailed
	Cancelled
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case ValidatingAll:
		return "validating"
	case AllValidated:
		return "validated"
	case ValidationFailed:
		return "validation_failed"
	case CommittingAll:
		return "committing"
	case AllCommitted:
		return "committed"
	case CommitFailed:
		return "commit_failed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Running reports whether the state belongs to an in-progress run.
func (s State) Running() bool {
	return s == ValidatingAll || s == CommittingAll
}
