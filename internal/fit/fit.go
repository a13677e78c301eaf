// Package fit solves the box-constrained nonlinear least-squares problem of
// the logistic model with a projected Levenberg-Marquardt iteration and
// estimates the parameter covariance at the optimum.
package fit

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	apperrors "github.com/agbru/logfit/internal/errors"
	"github.com/agbru/logfit/internal/model"
)

// Default solver settings, applied to every zero field of Options.
const (
	DefaultMaxIterations = 200
	DefaultFTol          = 1e-10
	DefaultXTol          = 1e-10
	DefaultGTol          = 1e-12
)

const (
	// maxRetries bounds the damping increases tried within one iteration.
	maxRetries = 64
	minLambda  = 1e-15
)

// Options configures the solver. A zero value for any field selects its
// default.
type Options struct {
	// MaxIterations is the number of outer iterations before giving up.
	MaxIterations int
	// FTol stops the solver when an accepted step lowers the cost by less
	// than FTol relative to the previous cost.
	FTol float64
	// XTol stops the solver when the step norm falls below XTol·(XTol+‖p‖).
	XTol float64
	// GTol stops the solver when the ∞-norm of the projected gradient falls
	// below GTol.
	GTol float64
}

// DefaultOptions returns the solver defaults.
func DefaultOptions() Options {
	return Options{
		MaxIterations: DefaultMaxIterations,
		FTol:          DefaultFTol,
		XTol:          DefaultXTol,
		GTol:          DefaultGTol,
	}
}

// WithDefaults returns a copy of o with every zero field replaced by its
// default.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.FTol <= 0 {
		o.FTol = d.FTol
	}
	if o.XTol <= 0 {
		o.XTol = d.XTol
	}
	if o.GTol <= 0 {
		o.GTol = d.GTol
	}
	return o
}

// Status records which stopping test ended a successful solve.
type Status int

const (
	// StatusGradient means the projected gradient vanished.
	StatusGradient Status = iota
	// StatusCost means the relative cost decrease fell below FTol.
	StatusCost
	// StatusStep means the step length fell below XTol.
	StatusStep
)

// String returns the short name used in reports.
func (s Status) String() string {
	switch s {
	case StatusGradient:
		return "gtol"
	case StatusCost:
		return "ftol"
	case StatusStep:
		return "xtol"
	default:
		return "unknown"
	}
}

// Result is the outcome of a successful fit.
type Result struct {
	Params model.Params
	// Covariance is the 2×2 parameter covariance, ordered like
	// model.ParamNames.
	Covariance *mat.SymDense
	// StdErr is sqrt(diag(Covariance)).
	StdErr [model.NumParams]float64
	// Fitted holds the model evaluated at every x.
	Fitted []float64
	// Cost is ½·Σ(y − f)² at the optimum.
	Cost        float64
	Iterations  int
	Evaluations int
	Status      Status
}

// IterationObserver is notified after every accepted step.
type IterationObserver func(iteration int, p model.Params, cost float64)

// Fitter fits a logistic model to observations.
type Fitter struct {
	model    model.Logistic
	opts     Options
	observer IterationObserver
}

// NewFitter returns a Fitter for m. Zero fields of opts select defaults.
func NewFitter(m model.Logistic, opts Options) *Fitter {
	return &Fitter{model: m, opts: opts.WithDefaults()}
}

// WithObserver registers obs to be called after every accepted step and
// returns f.
func (f *Fitter) WithObserver(obs IterationObserver) *Fitter {
	f.observer = obs
	return f
}

// Options returns the effective solver options.
func (f *Fitter) Options() Options { return f.opts }

// Model returns the model being fitted.
func (f *Fitter) Model() model.Logistic { return f.model }

// Fit minimises Σ(y_i − f(x_i))² over the model's box, starting from the
// model's initial guess. Errors are returned as apperrors.FitError wrapping
// a ValidationError, a ConvergenceError or the context error.
func (f *Fitter) Fit(ctx context.Context, x, y []float64) (Result, error) {
	if err := validate(x, y); err != nil {
		return Result{}, apperrors.FitError{Cause: err}
	}

	p, iterations, evaluations, status, err := f.solve(ctx, x, y)
	if err != nil {
		return Result{}, apperrors.FitError{Cause: err}
	}

	fitted := f.model.EvalAll(x, p)
	ssRes := sumSquaredResiduals(y, fitted)
	cov := covariance(f.model.Jacobian(x, p), ssRes, len(x))

	res := Result{
		Params:      p,
		Covariance:  cov,
		Fitted:      fitted,
		Cost:        ssRes / 2,
		Iterations:  iterations,
		Evaluations: evaluations,
		Status:      status,
	}
	for i := range model.NumParams {
		res.StdErr[i] = math.Sqrt(cov.At(i, i))
	}
	return res, nil
}

func validate(x, y []float64) error {
	if len(x) != len(y) {
		return apperrors.ValidationError{
			Field:   "y",
			Message: fmt.Sprintf("length %d does not match x length %d", len(y), len(x)),
		}
	}
	if len(x) <= model.NumParams {
		return apperrors.ValidationError{
			Field:   "x",
			Message: fmt.Sprintf("need more than %d samples to fit %d parameters, got %d", model.NumParams, model.NumParams, len(x)),
		}
	}
	for i := range x {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			return apperrors.ValidationError{
				Field:   "x",
				Message: fmt.Sprintf("sample %d is not finite (%g, %g)", i, x[i], y[i]),
			}
		}
	}
	return nil
}

// solve runs the projected Levenberg-Marquardt loop. Parameters sitting on a
// bound whose gradient points out of the box are frozen for the step; the
// trial point is projected back into the box.
func (f *Fitter) solve(ctx context.Context, x, y []float64) (model.Params, int, int, Status, error) {
	m := f.model
	opts := f.opts

	p := m.Clamp(m.Initial)
	cost := sumSquaredResiduals(y, m.EvalAll(x, p)) / 2
	evaluations := 1
	if !isFinite(cost) {
		return p, 0, evaluations, 0, apperrors.ConvergenceError{Reason: "initial cost is not finite"}
	}

	lambda := 1e-3
	scale := [model.NumParams]float64{}

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return p, iter - 1, evaluations, 0, err
		}

		jac := m.Jacobian(x, p)
		resid := mat.NewVecDense(len(x), residuals(m.EvalAll(x, p), y))

		// Gradient of ½‖f − y‖² and the Gauss-Newton matrix JᵀJ.
		var grad mat.VecDense
		grad.MulVec(jac.T(), resid)
		var jtj mat.SymDense
		jtj.SymOuterK(1, jac.T())

		free := freeParams(m, p, &grad)
		if projectedGradientNorm(&grad, free) <= opts.GTol {
			return p, iter, evaluations, StatusGradient, nil
		}

		for i := range model.NumParams {
			scale[i] = math.Max(scale[i], jtj.At(i, i))
		}

		accepted := false
		for range maxRetries {
			step, ok := dampedStep(&jtj, &grad, free, scale, lambda)
			if !ok {
				lambda *= 10
				continue
			}

			trial := m.Clamp(model.Params{N0: p.N0 + step[0], R: p.R + step[1]})
			taken := []float64{trial.N0 - p.N0, trial.R - p.R}
			stepNorm := floats.Norm(taken, 2)

			trialCost := sumSquaredResiduals(y, m.EvalAll(x, trial)) / 2
			evaluations++

			if isFinite(trialCost) && trialCost < cost {
				decrease := cost - trialCost
				p, cost = trial, trialCost
				lambda = math.Max(lambda/10, minLambda)
				if f.observer != nil {
					f.observer(iter, p, cost)
				}
				if stepNorm <= opts.XTol*(opts.XTol+floats.Norm(p.Vector(), 2)) {
					return p, iter, evaluations, StatusStep, nil
				}
				if decrease <= opts.FTol*(cost+decrease) {
					return p, iter, evaluations, StatusCost, nil
				}
				accepted = true
				break
			}

			if stepNorm <= opts.XTol*(opts.XTol+floats.Norm(p.Vector(), 2)) {
				return p, iter, evaluations, StatusStep, nil
			}
			lambda *= 10
		}

		if !accepted {
			return p, iter, evaluations, 0, apperrors.ConvergenceError{
				Iterations: iter,
				Reason:     "no damping reduced the cost",
			}
		}
	}

	return p, opts.MaxIterations, evaluations, 0, apperrors.ConvergenceError{
		Iterations: opts.MaxIterations,
		Reason:     "iteration limit reached",
	}
}

// freeParams marks the parameters allowed to move: a parameter on its lower
// bound with a positive gradient, or on its upper bound with a negative one,
// is frozen.
func freeParams(m model.Logistic, p model.Params, grad *mat.VecDense) [model.NumParams]bool {
	lower, upper, val := m.Lower.Vector(), m.Upper.Vector(), p.Vector()
	var free [model.NumParams]bool
	for i := range model.NumParams {
		g := grad.AtVec(i)
		switch {
		case val[i] <= lower[i] && g > 0:
		case val[i] >= upper[i] && g < 0:
		default:
			free[i] = true
		}
	}
	return free
}

func projectedGradientNorm(grad *mat.VecDense, free [model.NumParams]bool) float64 {
	norm := 0.0
	for i := range model.NumParams {
		if free[i] {
			norm = math.Max(norm, math.Abs(grad.AtVec(i)))
		}
	}
	return norm
}

// dampedStep solves (JᵀJ + λ·diag(scale))·δ = −g over the free parameters.
// Frozen parameters get a zero step.
func dampedStep(jtj *mat.SymDense, grad *mat.VecDense, free [model.NumParams]bool, scale [model.NumParams]float64, lambda float64) ([]float64, bool) {
	sys := mat.NewSymDense(model.NumParams, nil)
	rhs := mat.NewVecDense(model.NumParams, nil)
	for i := range model.NumParams {
		if !free[i] {
			sys.SetSym(i, i, 1)
			continue
		}
		d := scale[i]
		if d == 0 {
			d = 1
		}
		sys.SetSym(i, i, jtj.At(i, i)+lambda*d)
		rhs.SetVec(i, -grad.AtVec(i))
		for j := i + 1; j < model.NumParams; j++ {
			if free[j] {
				sys.SetSym(i, j, jtj.At(i, j))
			}
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(sys) {
		return nil, false
	}
	var step mat.VecDense
	if err := chol.SolveVecTo(&step, rhs); err != nil {
		return nil, false
	}
	out := []float64{step.AtVec(0), step.AtVec(1)}
	if !floats.HasNaN(out) && isFinite(out[0]) && isFinite(out[1]) {
		return out, true
	}
	return nil, false
}

// covariance returns pinv(JᵀJ)·SS_res/(n − p), computed from the thin SVD of
// J with singular values below eps·max(n, p)·s₀ discarded.
func covariance(jac *mat.Dense, ssRes float64, n int) *mat.SymDense {
	cov := mat.NewSymDense(model.NumParams, nil)

	var svd mat.SVD
	if !svd.Factorize(jac, mat.SVDThin) {
		for i := range model.NumParams {
			for j := i; j < model.NumParams; j++ {
				cov.SetSym(i, j, math.Inf(1))
			}
		}
		return cov
	}
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	threshold := eps * float64(max(n, model.NumParams)) * values[0]
	dof := float64(n - model.NumParams)
	for i := range model.NumParams {
		for j := i; j < model.NumParams; j++ {
			sum := 0.0
			for k, s := range values {
				if s <= threshold {
					continue
				}
				sum += v.At(i, k) * v.At(j, k) / (s * s)
			}
			cov.SetSym(i, j, sum*ssRes/dof)
		}
	}
	return cov
}

const eps = 2.220446049250313e-16

func residuals(fitted, y []float64) []float64 {
	out := make([]float64, len(y))
	floats.SubTo(out, fitted, y)
	return out
}

func sumSquaredResiduals(y, fitted []float64) float64 {
	sum := 0.0
	for i := range y {
		d := y[i] - fitted[i]
		sum += d * d
	}
	return sum
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
