package orchestration

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/logfit/internal/confidence"
	"github.com/agbru/logfit/internal/dataset"
	apperrors "github.com/agbru/logfit/internal/errors"
	"github.com/agbru/logfit/internal/fit"
	"github.com/agbru/logfit/internal/logging"
	"github.com/agbru/logfit/internal/model"
	"github.com/agbru/logfit/internal/stats"
)

// TracerName is the instrumentation scope of the pipeline spans.
const TracerName = "github.com/agbru/logfit"

// Analysis is the complete, read-only outcome of one run.
type Analysis struct {
	Dataset dataset.Dataset
	Model   model.Logistic
	Fit     fit.Result
	Stats   stats.Statistics
	Band    confidence.Band
	Sigma   float64

	// FitDuration is the wall time spent in the solver.
	FitDuration time.Duration
	// Generated is when the analysis finished.
	Generated time.Time
}

// Pipeline runs the analysis stages in order: load, fit, sigma, band,
// statistics.
type Pipeline struct {
	model    model.Logistic
	fitter   Fitter
	sigma    confidence.Provider
	reporter FitReporter
	logger   logging.Logger
	tracer   trace.Tracer
	chi2Mode stats.ChiSquaredMode
	grid     []float64
	timeout  time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReporter sets the solver progress reporter.
func WithReporter(r FitReporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithTracer sets the tracer used for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithChiSquaredMode selects the χ² accumulation.
func WithChiSquaredMode(m stats.ChiSquaredMode) Option {
	return func(p *Pipeline) { p.chi2Mode = m }
}

// WithGrid overrides the x grid of the confidence band.
func WithGrid(grid []float64) Option {
	return func(p *Pipeline) { p.grid = grid }
}

// WithTimeout bounds the solver and the exports, each separately. The sigma
// provider is never bounded: it waits for the operator and only stops on
// cancellation. Zero or negative means no limit.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// NewPipeline returns a pipeline fitting m with fitter and asking sigma for
// the band multiplier. By default it reports nothing, logs nothing and uses
// the global OpenTelemetry tracer.
func NewPipeline(m model.Logistic, fitter Fitter, sigma confidence.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		model:    m,
		fitter:   fitter,
		sigma:    sigma,
		reporter: NullFitReporter{},
		logger:   logging.Nop(),
		tracer:   otel.Tracer(TracerName),
		chi2Mode: stats.ChiSquaredSum,
	}
	for _, o := range opts {
		o(p)
	}
	if p.grid == nil {
		p.grid = confidence.DefaultGrid()
	}
	return p
}

// Run loads the dataset at path and analyzes it.
func (p *Pipeline) Run(ctx context.Context, path string) (Analysis, error) {
	ds, err := p.Load(ctx, path)
	if err != nil {
		return Analysis{}, err
	}
	return p.Analyze(ctx, ds)
}

// Load reads the dataset at path.
func (p *Pipeline) Load(ctx context.Context, path string) (dataset.Dataset, error) {
	_, span := p.tracer.Start(ctx, "dataset.load", trace.WithAttributes(attribute.String("path", path)))
	ds, err := dataset.Load(path)
	endSpan(span, err)
	if err != nil {
		return dataset.Dataset{}, err
	}

	span.SetAttributes(attribute.Int("samples", ds.Len()))
	p.logger.Info("dataset loaded",
		logging.String("source", ds.Source),
		logging.Int("samples", ds.Len()),
		logging.Uint64("fingerprint", ds.Fingerprint),
	)
	return ds, nil
}

// Analyze fits ds, asks for the sigma multiplier, builds the band and
// computes the statistics.
func (p *Pipeline) Analyze(ctx context.Context, ds dataset.Dataset) (Analysis, error) {
	a := Analysis{Dataset: ds, Model: p.model}

	res, elapsed, err := p.solve(ctx, ds)
	if err != nil {
		return Analysis{}, err
	}
	a.Fit, a.FitDuration = res, elapsed

	sigmaCtx, span := p.tracer.Start(ctx, "confidence.sigma")
	sigma, err := p.sigma.Sigma(sigmaCtx)
	endSpan(span, err)
	if err != nil {
		return Analysis{}, err
	}
	a.Sigma = sigma
	p.logger.Debug("sigma multiplier selected", logging.Float64("sigma", sigma))

	_, span = p.tracer.Start(ctx, "confidence.band", trace.WithAttributes(
		attribute.Float64("sigma", sigma),
		attribute.Int("points", len(p.grid)),
	))
	a.Band, err = confidence.Build(p.model, res.Params, res.StdErr, sigma, p.grid)
	endSpan(span, err)
	if err != nil {
		return Analysis{}, apperrors.WrapError(err, "confidence band")
	}

	_, span = p.tracer.Start(ctx, "stats.compute", trace.WithAttributes(
		attribute.String("chi2_mode", p.chi2Mode.String()),
	))
	a.Stats, err = stats.Compute(stats.Input{
		Y:         ds.Y(),
		Fitted:    res.Fitted,
		ErrY:      ds.ErrY(),
		NumParams: model.NumParams,
		Mode:      p.chi2Mode,
	})
	endSpan(span, err)
	if err != nil {
		return Analysis{}, apperrors.WrapError(err, "statistics")
	}
	p.logger.Debug("statistics computed",
		logging.Float64("r_squared", a.Stats.RSquared),
		logging.Float64("chi_squared", a.Stats.ChiSquared),
		logging.Float64("p_value", a.Stats.PValue),
	)

	a.Generated = time.Now()
	return a, nil
}

func (p *Pipeline) solve(ctx context.Context, ds dataset.Dataset) (fit.Result, time.Duration, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "fit.solve", trace.WithAttributes(attribute.Int("samples", ds.Len())))

	p.reporter.FitStarted(ds.Len())
	start := time.Now()
	res, err := p.fitter.Fit(ctx, ds.X(), ds.Y())
	elapsed := time.Since(start)
	p.reporter.FitFinished(err)

	if err == nil {
		span.SetAttributes(
			attribute.Int("iterations", res.Iterations),
			attribute.Int("evaluations", res.Evaluations),
			attribute.String("status", res.Status.String()),
		)
	}
	endSpan(span, err)
	if err != nil {
		p.logger.Error("fit failed", err, logging.Int("samples", ds.Len()))
		return fit.Result{}, elapsed, err
	}

	p.logger.Info("fit converged",
		logging.Float64("N_0", res.Params.N0),
		logging.Float64("r", res.Params.R),
		logging.Int("iterations", res.Iterations),
		logging.String("status", res.Status.String()),
		logging.String("duration", elapsed.String()),
	)
	return res, elapsed, nil
}

// bounded derives a context carrying the pipeline timeout, if any.
func (p *Pipeline) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
