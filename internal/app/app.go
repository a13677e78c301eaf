package app

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/logfit/internal/cli"
	"github.com/agbru/logfit/internal/confidence"
	"github.com/agbru/logfit/internal/config"
	apperrors "github.com/agbru/logfit/internal/errors"
	"github.com/agbru/logfit/internal/model"
	"github.com/agbru/logfit/internal/ui"
)

// Application represents the logfit application instance.
type Application struct {
	Config    config.AppConfig
	Model     model.Logistic
	ErrWriter io.Writer

	input  io.Reader
	sigma  confidence.Provider
	tracer trace.Tracer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithInput sets the reader the sigma prompt reads from. Defaults to stdin.
func WithInput(r io.Reader) AppOption {
	return func(a *Application) { a.input = r }
}

// WithConfidenceProvider replaces the sigma prompt, taking precedence over
// --sigma and --tui.
func WithConfidenceProvider(p confidence.Provider) AppOption {
	return func(a *Application) { a.sigma = p }
}

// WithTracer sets the tracer of the pipeline spans. Defaults to the global
// OpenTelemetry tracer.
func WithTracer(t trace.Tracer) AppOption {
	return func(a *Application) { a.tracer = t }
}

// WithModel replaces the default logistic model.
func WithModel(m model.Logistic) AppOption {
	return func(a *Application) { a.Model = m }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter, Model: model.Default(), input: os.Stdin}
	for _, opt := range opts {
		opt(app)
	}

	programName := "logfit"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	app.Config = cfg
	return app, nil
}

// Run executes the analysis and returns the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.InitTheme(a.Config.NoColor)
	switch {
	case a.Config.Quiet:
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case a.Config.Verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Signals cancel the whole run; the timeout is applied by the pipeline
	// to the solver and the exports only, never to the sigma prompt.
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if err := a.runFit(ctx, out); err != nil {
		return apperrors.HandleError(err, a.ErrWriter, cli.CLIColorProvider{})
	}
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
