package app

import (
	"context"
	"io"

	"github.com/agbru/logfit/internal/cli"
	"github.com/agbru/logfit/internal/confidence"
	"github.com/agbru/logfit/internal/fit"
	"github.com/agbru/logfit/internal/logging"
	"github.com/agbru/logfit/internal/metrics"
	"github.com/agbru/logfit/internal/model"
	"github.com/agbru/logfit/internal/orchestration"
	"github.com/agbru/logfit/internal/plot"
	"github.com/agbru/logfit/internal/tui"
)

// Artifact names, used for exporter spans and the saved-file messages.
const (
	artifactChart   = "chart"
	artifactReport  = "report"
	artifactMetrics = "metrics"
)

// runFit runs the analysis, prints the report, writes the artifacts and
// optionally opens the chart viewer.
func (a *Application) runFit(ctx context.Context, out io.Writer) error {
	cfg := a.Config

	// Choose progress reporter based on quiet mode
	var reporter orchestration.FitReporter = orchestration.NullFitReporter{}
	if !cfg.Quiet {
		reporter = cli.NewSpinnerFitReporter(a.ErrWriter)
	}

	fitter := fit.NewFitter(a.Model, cfg.ToSolverOptions()).
		WithObserver(func(iteration int, _ model.Params, cost float64) {
			reporter.FitIteration(iteration, cost)
		})

	opts := []orchestration.Option{
		orchestration.WithReporter(reporter),
		orchestration.WithLogger(logging.NewLogger(a.ErrWriter, "logfit")),
		orchestration.WithChiSquaredMode(cfg.ChiSquaredMode()),
		orchestration.WithTimeout(cfg.Timeout),
	}
	if a.tracer != nil {
		opts = append(opts, orchestration.WithTracer(a.tracer))
	}
	pipeline := orchestration.NewPipeline(a.Model, fitter, a.sigmaProvider(out), opts...)

	analysis, err := pipeline.Run(ctx, cfg.DataFile)
	if err != nil {
		return err
	}

	report := cli.NewReport(analysis)
	if cfg.Quiet {
		cli.DisplayQuietReport(out, report)
	} else {
		cli.DisplayReport(out, report)
		if cfg.Verbose {
			cli.DisplaySolverSummary(out, report)
		}
	}

	results, err := pipeline.Export(ctx, analysis, a.exporters(report)...)
	if !cfg.Quiet {
		for _, res := range results {
			if res.Err == nil {
				cli.DisplayArtifact(out, res.Name, a.artifactPath(res.Name))
			}
		}
	}
	if err != nil {
		return err
	}

	if cfg.Show {
		return a.runViewer(ctx, analysis)
	}
	return nil
}

// sigmaProvider picks where the band multiplier comes from: an injected
// provider, the --sigma value, the bubbletea prompt or the plain prompt.
func (a *Application) sigmaProvider(out io.Writer) confidence.Provider {
	promptOut := out
	if a.Config.Quiet {
		promptOut = a.ErrWriter
	}

	switch {
	case a.sigma != nil:
		return a.sigma
	case a.Config.SigmaSet:
		return confidence.Fixed(a.Config.Sigma)
	case a.Config.TUI:
		return tui.NewSigmaPrompt(a.input, promptOut)
	default:
		return confidence.NewPrompt(a.input, promptOut)
	}
}

// exporters returns the artifact writers enabled by the configuration.
func (a *Application) exporters(report cli.Report) []orchestration.Exporter {
	var exporters []orchestration.Exporter

	if path := a.Config.PlotFile; path != "" {
		exporters = append(exporters, orchestration.ExporterFunc{
			ExportName: artifactChart,
			Fn: func(_ context.Context, an orchestration.Analysis) error {
				return plot.WritePNG(path, plot.NewFigure(an.Dataset.Samples(), an.Band))
			},
		})
	}
	if path := a.Config.OutputFile; path != "" {
		exporters = append(exporters, orchestration.ExporterFunc{
			ExportName: artifactReport,
			Fn: func(context.Context, orchestration.Analysis) error {
				return cli.WriteReportToFile(report, path)
			},
		})
	}
	if path := a.Config.MetricsFile; path != "" {
		exporters = append(exporters, orchestration.ExporterFunc{
			ExportName: artifactMetrics,
			Fn: func(_ context.Context, an orchestration.Analysis) error {
				collector := metrics.NewFitCollector()
				collector.Observe(an)
				return collector.WriteTextfile(path)
			},
		})
	}
	return exporters
}

func (a *Application) artifactPath(name string) string {
	switch name {
	case artifactChart:
		return a.Config.PlotFile
	case artifactReport:
		return a.Config.OutputFile
	case artifactMetrics:
		return a.Config.MetricsFile
	}
	return ""
}

// runViewer opens the terminal chart viewer on the finished analysis.
func (a *Application) runViewer(ctx context.Context, an orchestration.Analysis) error {
	fig := plot.NewFigure(an.Dataset.Samples(), an.Band)
	rebuild := func(sigma float64) (confidence.Band, error) {
		return an.Band.Rebuild(an.Model, an.Fit.StdErr, sigma)
	}
	_, err := tui.RunViewer(ctx, fig, an.Sigma, rebuild)
	return err
}
