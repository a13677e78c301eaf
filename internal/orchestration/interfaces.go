package orchestration

import (
	"context"

	"github.com/agbru/logfit/internal/fit"
)

// Fitter solves the least-squares problem for one dataset. *fit.Fitter is
// the production implementation.
type Fitter interface {
	Fit(ctx context.Context, x, y []float64) (fit.Result, error)
}

var _ Fitter = (*fit.Fitter)(nil)

// FitReporter defines the interface for displaying solver progress.
// This interface decouples the orchestration layer from the presentation
// layer: the CLI shows a spinner, quiet mode shows nothing.
type FitReporter interface {
	// FitStarted is called once before the solver runs.
	FitStarted(samples int)
	// FitIteration is called after every accepted solver step.
	FitIteration(iteration int, cost float64)
	// FitFinished is called once with the solver outcome.
	FitFinished(err error)
}

// NullFitReporter is a no-op implementation of FitReporter.
// Useful for quiet mode or testing.
type NullFitReporter struct{}

// FitStarted does nothing.
func (NullFitReporter) FitStarted(int) {}

// FitIteration does nothing.
func (NullFitReporter) FitIteration(int, float64) {}

// FitFinished does nothing.
func (NullFitReporter) FitFinished(error) {}

// Exporter writes one artifact of a finished analysis (chart, report file,
// metrics). Exporters run concurrently and must treat the analysis as
// read-only.
type Exporter interface {
	Name() string
	Export(ctx context.Context, a Analysis) error
}

// ExporterFunc is a function adapter that implements Exporter.
type ExporterFunc struct {
	ExportName string
	Fn         func(ctx context.Context, a Analysis) error
}

// Name returns the exporter name used in logs and spans.
func (f ExporterFunc) Name() string { return f.ExportName }

// Export calls the underlying function.
func (f ExporterFunc) Export(ctx context.Context, a Analysis) error { return f.Fn(ctx, a) }
