// Package plot renders a fitted logistic curve, its confidence band and the
// observations, either as a PNG image or on a braille terminal canvas.
package plot

import (
	"fmt"
	"math"

	"github.com/agbru/logfit/internal/confidence"
	"github.com/agbru/logfit/internal/dataset"
)

// Default axis labels.
const (
	DefaultXLabel = "Temperature (°C)"
	DefaultYLabel = "Mortality rate (individual/day)"
)

// Figure is everything drawn on one chart.
type Figure struct {
	Title   string
	XLabel  string
	YLabel  string
	Samples []dataset.Sample
	Band    confidence.Band
}

// NewFigure returns a Figure with the default labels and a title naming the
// band width.
func NewFigure(samples []dataset.Sample, band confidence.Band) Figure {
	fig := Figure{
		XLabel:  DefaultXLabel,
		YLabel:  DefaultYLabel,
		Samples: samples,
	}
	return fig.WithBand(band)
}

// WithBand returns a copy of f drawing band instead, with the title updated.
func (f Figure) WithBand(band confidence.Band) Figure {
	f.Band = band
	f.Title = fmt.Sprintf("Logistic fit, %g sigma confidence band", band.Sigma)
	return f
}

// Bounds is the data window of a figure.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Bounds returns the smallest window holding the band, the samples and their
// error bars, with a small vertical margin.
func (f Figure) Bounds() Bounds {
	b := Bounds{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
	}
	extend := func(x, y float64) {
		b.XMin, b.XMax = math.Min(b.XMin, x), math.Max(b.XMax, x)
		b.YMin, b.YMax = math.Min(b.YMin, y), math.Max(b.YMax, y)
	}

	for i, x := range f.Band.Grid {
		extend(x, f.Band.Lower[i])
		extend(x, f.Band.Upper[i])
	}
	for _, s := range f.Samples {
		extend(s.X-s.ErrX, s.Y-s.ErrY)
		extend(s.X+s.ErrX, s.Y+s.ErrY)
	}

	if math.IsInf(b.XMin, 1) {
		return Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 1}
	}
	if b.XMax == b.XMin {
		b.XMin, b.XMax = b.XMin-1, b.XMax+1
	}
	margin := (b.YMax - b.YMin) * 0.05
	if margin == 0 {
		margin = 1
	}
	b.YMin -= margin
	b.YMax += margin
	return b
}
