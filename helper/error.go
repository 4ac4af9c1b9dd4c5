package helper

import "fmt"

// Error is an error annotated with the step that produced it.
// Nested errors build a trace like "add documents: embed: connection refused".
type Error struct {
	Original error
	Trace    string
}

// NewError wraps err with the given step. A nil err stays nil.
func NewError(trace string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Original: err,
		Trace:    trace,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Trace, e.Original)
}

func (e *Error) Unwrap() error {
	return e.Original
}
