package hydro

import (
	"errors"
	"fmt"
)

// InputError reports arguments that the detector or fitter cannot work with.
type InputError struct {
	Op     string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Op, e.Reason)
}

// ConvergenceError reports an iteration cap reached before the step-size tolerance.
type ConvergenceError struct {
	Op         string
	Loop       string
	Iterations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: %s loop did not converge after %d iterations", e.Op, e.Loop, e.Iterations)
}

// CancelledError reports that the caller's context was done mid-computation.
type CancelledError struct {
	Op  string
	Err error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s: cancelled: %v", e.Op, e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

func inputErrorf(op, format string, args ...any) error {
	return &InputError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err is, or wraps, an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsConvergenceError reports whether err is, or wraps, a *ConvergenceError.
func IsConvergenceError(err error) bool {
	var ce *ConvergenceError
	return errors.As(err, &ce)
}

// IsCancelled reports whether err is, or wraps, a *CancelledError.
func IsCancelled(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce)
}
