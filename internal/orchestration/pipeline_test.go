package orchestration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/agbru/logfit/internal/confidence"
	"github.com/agbru/logfit/internal/confidence/mocks"
	apperrors "github.com/agbru/logfit/internal/errors"
	"github.com/agbru/logfit/internal/fit"
	"github.com/agbru/logfit/internal/model"
	"github.com/agbru/logfit/internal/stats"
)

// writeDataset writes noise-free observations of the default model to a
// temporary file and returns its path.
func writeDataset(t *testing.T, p model.Params) string {
	t.Helper()
	m := model.Default()
	var b strings.Builder
	for x := 0.0; x <= 50; x += 5 {
		fmt.Fprintf(&b, "%g\t%.12g\t0.5\t1\n", x, m.Eval(x, p))
	}
	path := filepath.Join(t.TempDir(), "data.tsv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// recordingReporter captures the FitReporter calls.
type recordingReporter struct {
	mu       sync.Mutex
	started  int
	finished []error
}

func (r *recordingReporter) FitStarted(samples int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = samples
}

func (r *recordingReporter) FitIteration(int, float64) {}

func (r *recordingReporter) FitFinished(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, err)
}

// fitterFunc adapts a function to the Fitter interface.
type fitterFunc func(ctx context.Context, x, y []float64) (fit.Result, error)

func (f fitterFunc) Fit(ctx context.Context, x, y []float64) (fit.Result, error) { return f(ctx, x, y) }

func newTestPipeline(fitter Fitter, sigma confidence.Provider, opts ...Option) *Pipeline {
	base := []Option{WithTracer(noop.NewTracerProvider().Tracer("test"))}
	return NewPipeline(model.Default(), fitter, sigma, append(base, opts...)...)
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Sigma(gomock.Any()).Return(2.0, nil).Times(1)

	truth := model.Params{N0: 5, R: 0.2}
	path := writeDataset(t, truth)
	reporter := &recordingReporter{}

	p := newTestPipeline(fit.NewFitter(model.Default(), fit.Options{}), provider, WithReporter(reporter))
	a, err := p.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if a.Dataset.Len() != 11 || a.Dataset.Source != path {
		t.Errorf("Dataset = %d samples from %q", a.Dataset.Len(), a.Dataset.Source)
	}
	if diff := a.Fit.Params.N0 - truth.N0; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("N0 = %g, want %g", a.Fit.Params.N0, truth.N0)
	}
	if a.Sigma != 2 || a.Band.Sigma != 2 {
		t.Errorf("Sigma = %g, band sigma = %g; want 2", a.Sigma, a.Band.Sigma)
	}
	if len(a.Band.Grid) != confidence.GridPoints {
		t.Errorf("band grid has %d points, want %d", len(a.Band.Grid), confidence.GridPoints)
	}
	if a.Stats.N != 11 || a.Stats.NDF != 9 || a.Stats.Mode != stats.ChiSquaredSum {
		t.Errorf("Stats = %+v", a.Stats)
	}
	if a.Stats.RSquared < 0.999999 {
		t.Errorf("RSquared = %g, want ~1", a.Stats.RSquared)
	}
	if a.Generated.IsZero() || a.FitDuration <= 0 {
		t.Errorf("Generated = %v, FitDuration = %v", a.Generated, a.FitDuration)
	}
	if reporter.started != 11 || len(reporter.finished) != 1 || reporter.finished[0] != nil {
		t.Errorf("reporter saw started=%d finished=%v", reporter.started, reporter.finished)
	}
}

func TestPipeline_Options(t *testing.T) {
	t.Parallel()
	grid := []float64{0, 10, 20}
	path := writeDataset(t, model.Params{N0: 5, R: 0.2})

	p := newTestPipeline(fit.NewFitter(model.Default(), fit.Options{}), confidence.Fixed(1),
		WithGrid(grid), WithChiSquaredMode(stats.ChiSquaredLast))
	a, err := p.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(a.Band.Grid) != len(grid) {
		t.Errorf("band grid has %d points, want %d", len(a.Band.Grid), len(grid))
	}
	if a.Stats.Mode != stats.ChiSquaredLast {
		t.Errorf("Mode = %v, want last", a.Stats.Mode)
	}
}

func TestPipeline_TimeoutBoundsFitNotSigma(t *testing.T) {
	t.Parallel()
	const limit = 100 * time.Millisecond
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Sigma(gomock.Any()).DoAndReturn(func(ctx context.Context) (float64, error) {
		if _, ok := ctx.Deadline(); ok {
			t.Error("sigma context carries a deadline")
		}
		// Answer well after the limit.
		time.Sleep(3 * limit)
		return 1.5, nil
	}).Times(1)

	inner := fit.NewFitter(model.Default(), fit.Options{})
	fitter := fitterFunc(func(ctx context.Context, x, y []float64) (fit.Result, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("fit context has no deadline")
		}
		return inner.Fit(ctx, x, y)
	})
	exporter := ExporterFunc{ExportName: "check", Fn: func(ctx context.Context, _ Analysis) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("export context has no deadline")
		}
		return nil
	}}

	p := newTestPipeline(fitter, provider, WithTimeout(limit))
	a, err := p.Run(context.Background(), writeDataset(t, model.Params{N0: 5, R: 0.2}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if a.Sigma != 1.5 {
		t.Errorf("Sigma = %g, want 1.5", a.Sigma)
	}
	if _, err := p.Export(context.Background(), a, exporter); err != nil {
		t.Errorf("Export returned error: %v", err)
	}
}

func TestPipeline_FitTimeout(t *testing.T) {
	t.Parallel()
	blocking := fitterFunc(func(ctx context.Context, _, _ []float64) (fit.Result, error) {
		<-ctx.Done()
		return fit.Result{}, apperrors.FitError{Cause: ctx.Err()}
	})

	p := newTestPipeline(blocking, confidence.Fixed(1), WithTimeout(10*time.Millisecond))
	_, err := p.Run(context.Background(), writeDataset(t, model.Params{N0: 5, R: 0.2}))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if code := apperrors.ExitCode(err); code != apperrors.ExitErrorTimeout {
		t.Errorf("ExitCode = %d, want %d", code, apperrors.ExitErrorTimeout)
	}
}

func TestPipeline_Errors(t *testing.T) {
	t.Parallel()
	fitErr := apperrors.FitError{Cause: errors.New("singular")}

	tests := []struct {
		name     string
		path     func(t *testing.T) string
		fitter   Fitter
		sigma    func(ctrl *gomock.Controller) confidence.Provider
		wantCode int
	}{
		{
			name:   "missing file",
			path:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.tsv") },
			fitter: fit.NewFitter(model.Default(), fit.Options{}),
			sigma: func(ctrl *gomock.Controller) confidence.Provider {
				return mocks.NewMockProvider(ctrl)
			},
			wantCode: apperrors.ExitErrorData,
		},
		{
			name: "fit failure skips the prompt",
			path: func(t *testing.T) string { return writeDataset(t, model.Params{N0: 5, R: 0.2}) },
			fitter: fitterFunc(func(context.Context, []float64, []float64) (fit.Result, error) {
				return fit.Result{}, fitErr
			}),
			sigma: func(ctrl *gomock.Controller) confidence.Provider {
				return mocks.NewMockProvider(ctrl)
			},
			wantCode: apperrors.ExitErrorFit,
		},
		{
			name:   "invalid sigma",
			path:   func(t *testing.T) string { return writeDataset(t, model.Params{N0: 5, R: 0.2}) },
			fitter: fit.NewFitter(model.Default(), fit.Options{}),
			sigma: func(ctrl *gomock.Controller) confidence.Provider {
				m := mocks.NewMockProvider(ctrl)
				m.EXPECT().Sigma(gomock.Any()).Return(0.0, apperrors.InputError{Input: "abc"})
				return m
			},
			wantCode: apperrors.ExitErrorInput,
		},
		{
			name:   "canceled prompt",
			path:   func(t *testing.T) string { return writeDataset(t, model.Params{N0: 5, R: 0.2}) },
			fitter: fit.NewFitter(model.Default(), fit.Options{}),
			sigma: func(ctrl *gomock.Controller) confidence.Provider {
				m := mocks.NewMockProvider(ctrl)
				m.EXPECT().Sigma(gomock.Any()).Return(0.0, context.Canceled)
				return m
			},
			wantCode: apperrors.ExitErrorCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			p := newTestPipeline(tt.fitter, tt.sigma(ctrl))

			_, err := p.Run(context.Background(), tt.path(t))
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := apperrors.ExitCode(err); code != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d (err: %v)", code, tt.wantCode, err)
			}
		})
	}
}

func TestPipeline_ReporterSeesFitFailure(t *testing.T) {
	t.Parallel()
	reporter := &recordingReporter{}
	boom := errors.New("boom")
	p := newTestPipeline(fitterFunc(func(context.Context, []float64, []float64) (fit.Result, error) {
		return fit.Result{}, boom
	}), confidence.Fixed(2), WithReporter(reporter))

	_, err := p.Run(context.Background(), writeDataset(t, model.Params{N0: 5, R: 0.2}))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(reporter.finished) != 1 || !errors.Is(reporter.finished[0], boom) {
		t.Errorf("FitFinished calls = %v", reporter.finished)
	}
}

func TestPipeline_Export(t *testing.T) {
	t.Parallel()
	p := newTestPipeline(fit.NewFitter(model.Default(), fit.Options{}), confidence.Fixed(2))
	a := Analysis{Sigma: 2}
	boom := errors.New("disk full")

	var mu sync.Mutex
	seen := map[string]float64{}
	record := func(name string, err error) Exporter {
		return ExporterFunc{ExportName: name, Fn: func(_ context.Context, a Analysis) error {
			mu.Lock()
			defer mu.Unlock()
			seen[name] = a.Sigma
			return err
		}}
	}

	results, err := p.Export(context.Background(), a, record("png", nil), record("json", boom), record("metrics", nil))
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "export json") {
		t.Errorf("err = %v, want wrapped disk full", err)
	}
	if len(seen) != 3 {
		t.Errorf("exporters run = %v, want all three", seen)
	}
	if len(results) != 3 || results[0].Name != "png" || results[1].Err == nil || results[2].Err != nil {
		t.Errorf("results = %+v", results)
	}
}

func TestPipeline_ExportNone(t *testing.T) {
	t.Parallel()
	p := newTestPipeline(nil, nil)
	results, err := p.Export(context.Background(), Analysis{})
	if err != nil || len(results) != 0 {
		t.Errorf("Export() = %v, %v", results, err)
	}
}

func TestNullFitReporter(t *testing.T) {
	t.Parallel()
	var r FitReporter = NullFitReporter{}
	r.FitStarted(3)
	r.FitIteration(1, 0.5)
	r.FitFinished(nil)
}
