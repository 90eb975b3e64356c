package dataerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error.
type Kind int

const (
	Unknown Kind = iota
	MissingContainer
	MissingAttributeSet
	MissingArray
	ShapeMismatch
	TupleCountMismatch
	TypeMismatch
	UnsupportedType
	DuplicateName
	InvalidPath
	InvalidParameter
	IndexOutOfRange
	Compute
	UnknownStep
	PipelineBusy
	NotValidated
)

var kindNames = map[Kind]string{
	Unknown:             "unknown error",
	MissingContainer:    "missing container",
	MissingAttributeSet: "missing attribute set",
	MissingArray:        "missing array",
	ShapeMismatch:       "shape mismatch",
	TupleCountMismatch:  "tuple count mismatch",
	TypeMismatch:        "type mismatch",
	UnsupportedType:     "unsupported type",
	DuplicateName:       "duplicate name",
	InvalidPath:         "invalid path",
	InvalidParameter:    "invalid parameter",
	IndexOutOfRange:     "index out of range",
	Compute:             "compute failure",
	UnknownStep:         "unknown step",
	PipelineBusy:        "pipeline busy",
	NotValidated:        "pipeline not validated",
}

// Default numeric codes. They stay stable across releases because reports
// and saved pipeline files refer to them.
var kindCodes = map[Kind]int{
	Unknown:             -1,
	MissingContainer:    -80002,
	MissingAttributeSet: -80003,
	MissingArray:        -80004,
	ShapeMismatch:       -503,
	TupleCountMismatch:  -502,
	TypeMismatch:        -501,
	UnsupportedType:     -504,
	DuplicateName:       -10002,
	InvalidPath:         -80001,
	InvalidParameter:    -11000,
	IndexOutOfRange:     -100,
	Compute:             -12000,
	UnknownStep:         -66066,
	PipelineBusy:        -200,
	NotValidated:        -203,
}

// Error implements the error interface so a Kind can be used as an
// errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Code returns the default numeric code for the kind.
func (k Kind) Code() int {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return -1
}

// Error is the structured error returned by the data model and steps.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Path    string
	// Supported lists acceptable type names for TypeMismatch and
	// UnsupportedType errors.
	Supported []string
	Err       error
}

// New creates an Error of the given kind with the kind's default code.
func New(kind Kind, path, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Code:    kind.Code(),
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	}
}

// Wrap creates an Error of the given kind that wraps err.
func Wrap(kind Kind, path string, err error) *Error {
	return &Error{
		Kind:    kind,
		Code:    kind.Code(),
		Message: err.Error(),
		Path:    path,
		Err:     err,
	}
}

// WithCode overrides the numeric code and returns the receiver.
func (e *Error) WithCode(code int) *Error {
	e.Code = code
	return e
}

// WithSupported attaches the list of acceptable type names.
func (e *Error) WithSupported(names []string) *Error {
	e.Supported = append([]string(nil), names...)
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Path != "" {
		fmt.Fprintf(&sb, " at %q", e.Path)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if len(e.Supported) > 0 {
		fmt.Fprintf(&sb, " (supported: %s)", strings.Join(e.Supported, ", "))
	}
	return sb.String()
}

// Is matches a Kind target against the error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// CodeOf returns the numeric code of err. Nil yields 0 and errors outside
// the taxonomy yield -1.
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return -1
}

// PathOf returns the path recorded on the first *Error in err's chain.
func PathOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Path
	}
	return ""
}

// Warning is a non-fatal diagnostic raised by a step.
type Warning struct {
	Code    int
	Message string
	Path    string
}

func (w Warning) String() string {
	if w.Path != "" {
		return fmt.Sprintf("%s (%d, %s)", w.Message, w.Code, w.Path)
	}
	return fmt.Sprintf("%s (%d)", w.Message, w.Code)
}
