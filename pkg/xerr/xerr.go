// Package xerr defines the error-kind taxonomy of §7. Errors are
// wrapped with fmt.Errorf("%w: ...") chains throughout the engine,
// matching the teacher's habit in pkg/storage and pkg/video/customformat
// -- no generic errors library appears anywhere in the corpus.
package xerr

import "fmt"

// Kind classifies an error per the §7 table.
type Kind string

// Error kinds, per §7.
const (
	InvalidArgument         Kind = "invalid_argument"
	UnsupportedSampleRate    Kind = "unsupported_sample_rate"
	StateMisuse              Kind = "state_misuse"
	IndexInvariantViolation  Kind = "index_invariant_violation"
	IOFailure                Kind = "io_failure"
	FormatLimit              Kind = "format_limit"
)

// Error is a typed error carrying a kind and contextual values.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Kind, e.Message, e.Context)
}

// New builds an *Error of the given kind.
func New(kind Kind, message string, context map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Context: context}
}

// Is allows errors.Is(err, xerr.InvalidArgument) style matching by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values usable with errors.Is to match on kind alone.
var (
	ErrInvalidArgument        = &Error{Kind: InvalidArgument}
	ErrUnsupportedSampleRate  = &Error{Kind: UnsupportedSampleRate}
	ErrStateMisuse            = &Error{Kind: StateMisuse}
	ErrIndexInvariantViolation = &Error{Kind: IndexInvariantViolation}
	ErrIOFailure              = &Error{Kind: IOFailure}
	ErrFormatLimit            = &Error{Kind: FormatLimit}
)
