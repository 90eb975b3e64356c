package step

import (
	"fmt"

	"github.com/vk/voxelflow/internal/dataerr"
)

// MessageKind classifies a Message.
type MessageKind int

const (
	StatusMessage MessageKind = iota
	ProgressMessage
	WarningMessage
	ErrorMessage
)

func (k MessageKind) String() string {
	switch k {
	case StatusMessage:
		return "status"
	case ProgressMessage:
		return "progress"
	case WarningMessage:
		return "warning"
	case ErrorMessage:
		return "error"
	}
	return "unknown"
}

// Message is a diagnostic emitted while a pipeline runs.
type Message struct {
	Kind      MessageKind `json:"kind"`
	StepIndex int         `json:"step_index"`
	StepCount int         `json:"step_count"`
	StepType  string      `json:"step_type,omitempty"`
	Label     string      `json:"label,omitempty"`
	Code      int         `json:"code,omitempty"`
	Text      string      `json:"text"`
	Path      string      `json:"path,omitempty"`
	Progress  float64     `json:"progress,omitempty"`
}

// String renders the message as "[i/n] label: text".
func (m Message) String() string {
	prefix := fmt.Sprintf("[%d/%d]", m.StepIndex+1, m.StepCount)
	if m.Label != "" {
		prefix += " " + m.Label
	}
	switch m.Kind {
	case ProgressMessage:
		return fmt.Sprintf("%s: %s (%.0f%%)", prefix, m.Text, m.Progress*100)
	case WarningMessage, ErrorMessage:
		return fmt.Sprintf("%s: %s %d: %s", prefix, m.Kind, m.Code, m.Text)
	}
	return fmt.Sprintf("%s: %s", prefix, m.Text)
}

// Observer receives pipeline messages. Implementations must not block for
// long; they are called on the pipeline goroutine.
type Observer interface {
	OnMessage(m Message)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(m Message)

func (f ObserverFunc) OnMessage(m Message) { f(m) }

// Status is the outcome of one step invocation.
type Status struct {
	Code     int
	Message  string
	Path     string
	Warnings []dataerr.Warning
}

// Result pairs a Status with the error that produced it.
type Result struct {
	Status Status
	Err    error
}

// Ok reports whether the invocation succeeded.
func (r Result) Ok() bool {
	return r.Err == nil
}

func newResult(err error, warnings []dataerr.Warning) Result {
	r := Result{Err: err, Status: Status{Warnings: warnings}}
	if err != nil {
		r.Status.Code = dataerr.CodeOf(err)
		r.Status.Message = err.Error()
		r.Status.Path = dataerr.PathOf(err)
	}
	return r
}
