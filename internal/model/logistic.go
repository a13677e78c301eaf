// Package model defines the bounded logistic growth curve fitted by logfit:
//
//	f(x; N₀, r) = k·N₀ / (N₀ + (k − N₀)·e^(−r·x))
//
// with a fixed carrying capacity k. N₀ is the value of the curve at x = 0 and
// r its growth rate.
package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// Capacity is the fixed carrying capacity k.
	Capacity = 100.0

	// NumParams is the number of free parameters (N₀, r).
	NumParams = 2
)

// ParamNames labels the parameter vector in report order.
var ParamNames = [NumParams]string{"N_0", "r"}

// Params is a point in parameter space.
type Params struct {
	N0 float64
	R  float64
}

// Vector returns the parameters as a slice ordered like ParamNames.
func (p Params) Vector() []float64 {
	return []float64{p.N0, p.R}
}

// At returns the i-th parameter in ParamNames order.
func (p Params) At(i int) float64 {
	switch i {
	case 0:
		return p.N0
	case 1:
		return p.R
	}
	panic(fmt.Sprintf("model: parameter index %d out of range", i))
}

// ParamsFromVector builds Params from a slice ordered like ParamNames.
func ParamsFromVector(v []float64) Params {
	return Params{N0: v[0], R: v[1]}
}

// String renders the parameters for logs.
func (p Params) String() string {
	return fmt.Sprintf("N_0=%g r=%g", p.N0, p.R)
}

// Logistic is the fixed-form logistic model with its box constraints and
// initial guess.
type Logistic struct {
	K       float64
	Lower   Params
	Upper   Params
	Initial Params
}

// Default returns the model used by logfit: k = 100, N₀ ∈ [0, 85],
// r ∈ [1e-5, 10], starting from (0, 0.1).
func Default() Logistic {
	return Logistic{
		K:       Capacity,
		Lower:   Params{N0: 0, R: 0.00001},
		Upper:   Params{N0: 85, R: 10},
		Initial: Params{N0: 0, R: 0.1},
	}
}

// Formula is the human readable model expression used in reports.
func (m Logistic) Formula() string {
	return "(k * N_0)/(N_0 + (k-N_0)*exp(-r*x))"
}

// Eval returns f(x; p).
func (m Logistic) Eval(x float64, p Params) float64 {
	if p.N0 == 0 {
		return 0
	}
	e := math.Exp(-p.R * x)
	return m.K * p.N0 / (p.N0 + (m.K-p.N0)*e)
}

// EvalAll evaluates the model at every x.
func (m Logistic) EvalAll(xs []float64, p Params) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = m.Eval(x, p)
	}
	return out
}

// Gradient returns the partial derivatives ∂f/∂N₀ and ∂f/∂r at x:
//
//	∂f/∂N₀ = k²·E / D²
//	∂f/∂r  = k·N₀·(k − N₀)·x·E / D²
//
// where E = e^(−r·x) and D = N₀ + (k − N₀)·E.
func (m Logistic) Gradient(x float64, p Params) (dN0, dR float64) {
	e := math.Exp(-p.R * x)
	d := p.N0 + (m.K-p.N0)*e
	if d == 0 {
		// N₀ = 0 with E underflowed: the N₀ derivative tends to e^(r·x).
		return math.Exp(p.R * x), 0
	}
	d2 := d * d
	dN0 = m.K * m.K * e / d2
	dR = m.K * p.N0 * (m.K - p.N0) * x * e / d2
	return dN0, dR
}

// Jacobian returns the len(xs)×2 matrix of partial derivatives, one row per
// x, columns ordered like ParamNames.
func (m Logistic) Jacobian(xs []float64, p Params) *mat.Dense {
	jac := mat.NewDense(len(xs), NumParams, nil)
	for i, x := range xs {
		dN0, dR := m.Gradient(x, p)
		jac.Set(i, 0, dN0)
		jac.Set(i, 1, dR)
	}
	return jac
}

// Clamp projects p into the model's box.
func (m Logistic) Clamp(p Params) Params {
	return Params{
		N0: clamp(p.N0, m.Lower.N0, m.Upper.N0),
		R:  clamp(p.R, m.Lower.R, m.Upper.R),
	}
}

// InBounds reports whether p lies inside the box (inclusive).
func (m Logistic) InBounds(p Params) bool {
	return p.N0 >= m.Lower.N0 && p.N0 <= m.Upper.N0 &&
		p.R >= m.Lower.R && p.R <= m.Upper.R
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
