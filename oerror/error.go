package oerror

import "fmt"

// LocomotionError is the error type returned by packages of this module for failures that do not wrap
// another error.
type LocomotionError struct {
	Err string
}

// New returns a LocomotionError with the message formatted from the arguments passed.
func New(format string, args ...any) *LocomotionError {
	if len(args) == 0 {
		return &LocomotionError{Err: format}
	}
	return &LocomotionError{Err: fmt.Sprintf(format, args...)}
}

func (e *LocomotionError) Error() string {
	return e.Err
}
