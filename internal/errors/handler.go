package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// ColorProvider supplies the escape sequences used to highlight error output.
// The CLI passes a theme-backed implementation; tests can pass NoColor.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

// NoColor is a ColorProvider that emits no escape sequences.
type NoColor struct{}

func (NoColor) Red() string    { return "" }
func (NoColor) Yellow() string { return "" }
func (NoColor) Reset() string  { return "" }

// ExitCode maps an error chain to the process exit code. The most specific
// class wins: a ValidationError inside a FitError is a fit failure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		configErr     ConfigError
		parseErr      ParseError
		fitErr        FitError
		convergeErr   ConvergenceError
		inputErr      InputError
		timeoutErr    TimeoutError
		validationErr ValidationError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeoutErr):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &configErr):
		return ExitErrorConfig
	case errors.As(err, &parseErr), errors.Is(err, fs.ErrNotExist):
		return ExitErrorData
	case errors.As(err, &fitErr), errors.As(err, &convergeErr):
		return ExitErrorFit
	case errors.As(err, &inputErr):
		return ExitErrorInput
	case errors.As(err, &validationErr):
		return ExitErrorConfig
	default:
		return ExitErrorGeneric
	}
}

// HandleError prints a one-line diagnostic for err and returns the exit
// code that matches its class.
func HandleError(err error, out io.Writer, colors ColorProvider) int {
	code := ExitCode(err)
	if code == ExitSuccess {
		return code
	}

	switch code {
	case ExitErrorTimeout:
		fmt.Fprintf(out, "%sRun timed out: %v%s\n", colors.Yellow(), err, colors.Reset())
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sRun canceled.%s\n", colors.Yellow(), colors.Reset())
	default:
		fmt.Fprintf(out, "%sError: %v%s\n", colors.Red(), err, colors.Reset())
	}
	return code
}
