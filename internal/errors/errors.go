package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the run exceeded its timeout.
	ExitErrorData     = 3   // Indicates the input dataset could not be loaded.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorFit      = 5   // Indicates the fit failed or did not converge.
	ExitErrorInput    = 6   // Indicates invalid interactive input.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ParseError reports a dataset that could not be read or parsed. Line is the
// 1-based line of the offending row, or 0 when the failure is not tied to a
// row (missing file, empty file).
type ParseError struct {
	// Source names the input, usually the file path.
	Source string
	// Line is the 1-based line number, 0 if not applicable.
	Line int
	// Cause is the underlying failure.
	Cause error
}

// Error returns the source-prefixed parse failure.
func (e ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e ParseError) Unwrap() error { return e.Cause }

// FitError encapsulates a failure of the model fit while preserving the
// original cause (validation, convergence or cancellation).
type FitError struct {
	// Cause is the underlying error that triggered this fit error.
	Cause error
}

// Error returns the error message from the underlying cause.
func (e FitError) Error() string { return "fit failed: " + e.Cause.Error() }

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
func (e FitError) Unwrap() error { return e.Cause }

// ConvergenceError reports that the solver stopped without satisfying any of
// its tolerances.
type ConvergenceError struct {
	// Iterations is the number of solver iterations performed.
	Iterations int
	// Reason describes why the solver gave up.
	Reason string
}

// Error returns a formatted message describing the convergence failure.
func (e ConvergenceError) Error() string {
	return fmt.Sprintf("solver did not converge after %d iterations: %s", e.Iterations, e.Reason)
}

// InputError represents interactive input that could not be used, such as a
// non-numeric sigma multiplier.
type InputError struct {
	// Input is the raw text that was rejected.
	Input string
	// Cause is the parse failure.
	Cause error
}

// Error returns a formatted message describing the rejected input.
func (e InputError) Error() string {
	return fmt.Sprintf("invalid input %q: %v", e.Input, e.Cause)
}

// Unwrap returns the underlying cause.
func (e InputError) Unwrap() error { return e.Cause }

// TimeoutError represents a run timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
