package orchestration

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/logfit/internal/logging"
)

// ExportResult records the outcome of a single exporter.
type ExportResult struct {
	// Name is the exporter name.
	Name string
	// Duration is the time taken by the export.
	Duration time.Duration
	// Err contains any error returned by the exporter.
	Err error
}

// Export runs the exporters concurrently on a.
//
// Every exporter runs to completion even when another one fails; the
// per-exporter outcomes are returned in the order of exporters, together
// with the first failure wrapped with the exporter name.
//
// Parameters:
//   - ctx: The context for cancellation. The pipeline timeout applies on top.
//   - a: The finished analysis. Exporters must not modify it.
//   - exporters: The artifacts to write.
//
// Returns:
//   - []ExportResult: One entry per exporter.
//   - error: The first exporter failure, or nil.
func (p *Pipeline) Export(ctx context.Context, a Analysis, exporters ...Exporter) ([]ExportResult, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()

	var g errgroup.Group
	results := make([]ExportResult, len(exporters))

	for i, exp := range exporters {
		idx, exporter := i, exp
		g.Go(func() error {
			spanCtx, span := p.tracer.Start(ctx, "export."+exporter.Name(),
				trace.WithAttributes(attribute.String("exporter", exporter.Name())))

			start := time.Now()
			err := exporter.Export(spanCtx, a)
			results[idx] = ExportResult{Name: exporter.Name(), Duration: time.Since(start), Err: err}
			endSpan(span, err)

			if err != nil {
				p.logger.Error("export failed", err, logging.String("exporter", exporter.Name()))
				return fmt.Errorf("export %s: %w", exporter.Name(), err)
			}
			p.logger.Debug("export finished",
				logging.String("exporter", exporter.Name()),
				logging.String("duration", results[idx].Duration.String()),
			)
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
