// Package confidence builds the confidence band drawn around the fitted
// curve and isolates the sigma multiplier behind a Provider.
//
// The band is the pair of curves obtained by moving both parameters by
// ±sigma standard errors. Each moved parameter is projected into the model's
// box so the curves stay defined; since the model grows with both N₀ and r
// for x ≥ 0, the upper curve never falls below the fitted one and the lower
// curve never rises above it.
package confidence

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	apperrors "github.com/agbru/logfit/internal/errors"
	"github.com/agbru/logfit/internal/model"
)

// Grid settings of the plotted curves.
const (
	GridPoints = 2000
	GridMin    = 0.0
	GridMax    = 50.0
)

// Band holds the fitted curve and its envelopes on a common grid.
type Band struct {
	Grid   []float64
	Fitted []float64
	Upper  []float64
	Lower  []float64

	Sigma       float64
	Params      model.Params
	UpperParams model.Params
	LowerParams model.Params
}

// DefaultGrid returns GridPoints evenly spaced values over [GridMin, GridMax].
func DefaultGrid() []float64 {
	return floats.Span(make([]float64, GridPoints), GridMin, GridMax)
}

// Build evaluates the fitted curve and the ±sigma envelopes of m at every
// grid point.
func Build(m model.Logistic, p model.Params, stderr [model.NumParams]float64, sigma float64, grid []float64) (Band, error) {
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma < 0 {
		return Band{}, apperrors.ValidationError{
			Field:   "sigma",
			Message: fmt.Sprintf("must be a finite non-negative number, got %g", sigma),
		}
	}
	for i, e := range stderr {
		if math.IsNaN(e) {
			return Band{}, apperrors.ValidationError{
				Field:   model.ParamNames[i],
				Message: "standard error is NaN",
			}
		}
	}

	upper := m.Clamp(model.Params{N0: p.N0 + sigma*stderr[0], R: p.R + sigma*stderr[1]})
	lower := m.Clamp(model.Params{N0: p.N0 - sigma*stderr[0], R: p.R - sigma*stderr[1]})

	band := Band{
		Grid:        append([]float64(nil), grid...),
		Fitted:      m.EvalAll(grid, p),
		Upper:       m.EvalAll(grid, upper),
		Lower:       m.EvalAll(grid, lower),
		Sigma:       sigma,
		Params:      p,
		UpperParams: upper,
		LowerParams: lower,
	}

	// Rounding can invert curves that are equal in exact arithmetic.
	for i := range band.Grid {
		band.Upper[i] = math.Max(band.Upper[i], band.Fitted[i])
		band.Lower[i] = math.Min(band.Lower[i], band.Fitted[i])
	}
	return band, nil
}

// Rebuild returns a band for the same fit with a different multiplier.
func (b Band) Rebuild(m model.Logistic, stderr [model.NumParams]float64, sigma float64) (Band, error) {
	return Build(m, b.Params, stderr, sigma, b.Grid)
}

// Width returns the largest vertical distance between the envelopes.
func (b Band) Width() float64 {
	w := 0.0
	for i := range b.Upper {
		w = math.Max(w, b.Upper[i]-b.Lower[i])
	}
	return w
}
