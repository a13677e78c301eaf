package plot

import (
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// PNG canvas size in pixels.
const (
	PNGWidth  = 1024
	PNGHeight = 640
)

// Legend labels of the named series.
const (
	DataLabel = "Experimental data"
	FitLabel  = "Best fit function"
	BandLabel = "Confidence band"
)

var (
	dataColor = drawing.ColorFromHex("1f77b4")
	fitColor  = drawing.ColorFromHex("ff7f0e")
	bandColor = drawing.ColorFromHex("0000ff").WithAlpha(26)
)

// RenderPNG draws fig as a PNG image on w: the band shaded between its
// envelopes, the fitted curve, the samples with their error bars and a
// legend naming the data, the fit and the band.
func RenderPNG(w io.Writer, fig Figure) error {
	if err := newChart(fig).Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// newChart lays out the go-chart description of fig.
func newChart(fig Figure) *chart.Chart {
	b := fig.Bounds()

	var series []chart.Series
	if len(fig.Band.Grid) > 0 {
		// The upper envelope is filled down to the axis, then the area
		// under the lower envelope is painted back to the background.
		series = append(series,
			chart.ContinuousSeries{
				Name:    BandLabel,
				XValues: fig.Band.Grid,
				YValues: fig.Band.Upper,
				Style:   chart.Style{StrokeColor: bandColor, StrokeWidth: 1, FillColor: bandColor},
			},
			chart.ContinuousSeries{
				XValues: fig.Band.Grid,
				YValues: fig.Band.Lower,
				Style:   chart.Style{StrokeColor: bandColor, StrokeWidth: 1, FillColor: drawing.ColorWhite},
			},
			chart.ContinuousSeries{
				Name:    FitLabel,
				XValues: fig.Band.Grid,
				YValues: fig.Band.Fitted,
				Style:   chart.Style{StrokeColor: fitColor, StrokeWidth: 2},
			},
		)
	}
	series = append(series, errorBars(fig)...)

	if len(fig.Samples) > 0 {
		xs := make([]float64, len(fig.Samples))
		ys := make([]float64, len(fig.Samples))
		for i, s := range fig.Samples {
			xs[i], ys[i] = s.X, s.Y
		}
		series = append(series, chart.ContinuousSeries{
			Name:    DataLabel,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 4, DotColor: dataColor},
		})
	}

	graph := &chart.Chart{
		Title:      fig.Title,
		Width:      PNGWidth,
		Height:     PNGHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  fig.XLabel,
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: b.XMin, Max: b.XMax},
		},
		YAxis: chart.YAxis{
			Name:  fig.YLabel,
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: b.YMin, Max: b.YMax},
		},
		Series: series,
	}
	// Unnamed series (error bars, lower envelope) get no legend entry.
	graph.Elements = []chart.Renderable{chart.Legend(graph)}
	return graph
}

// errorBars returns one two-point segment per non-zero uncertainty.
func errorBars(fig Figure) []chart.Series {
	style := chart.Style{StrokeColor: dataColor, StrokeWidth: 1}
	var bars []chart.Series
	for _, s := range fig.Samples {
		if s.ErrY > 0 {
			bars = append(bars, chart.ContinuousSeries{
				XValues: []float64{s.X, s.X},
				YValues: []float64{s.Y - s.ErrY, s.Y + s.ErrY},
				Style:   style,
			})
		}
		if s.ErrX > 0 {
			bars = append(bars, chart.ContinuousSeries{
				XValues: []float64{s.X - s.ErrX, s.X + s.ErrX},
				YValues: []float64{s.Y, s.Y},
				Style:   style,
			})
		}
	}
	return bars
}

// WritePNG renders fig into the file at path, replacing it.
func WritePNG(path string, fig Figure) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return RenderPNG(f, fig)
}
