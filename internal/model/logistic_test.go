package model

import (
	"math"
	"testing"
)

func TestLogistic_Eval(t *testing.T) {
	t.Parallel()
	m := Default()

	tests := []struct {
		name string
		x    float64
		p    Params
		want float64
	}{
		{"value at origin is N_0", 0, Params{N0: 12.5, R: 0.3}, 12.5},
		{"zero N_0 stays zero", 30, Params{N0: 0, R: 0.3}, 0},
		{"saturates at capacity", 1e4, Params{N0: 5, R: 1}, Capacity},
		{"midpoint", math.Log(19) / 0.2, Params{N0: 5, R: 0.2}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := m.Eval(tt.x, tt.p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Eval(%g, %v) = %g, want %g", tt.x, tt.p, got, tt.want)
			}
		})
	}
}

func TestLogistic_EvalAll(t *testing.T) {
	t.Parallel()
	m := Default()
	p := Params{N0: 3, R: 0.15}
	xs := []float64{0, 10, 20}

	got := m.EvalAll(xs, p)
	if len(got) != len(xs) {
		t.Fatalf("EvalAll returned %d values, want %d", len(got), len(xs))
	}
	for i, x := range xs {
		if got[i] != m.Eval(x, p) {
			t.Errorf("EvalAll[%d] = %g, want %g", i, got[i], m.Eval(x, p))
		}
	}
}

// TestLogistic_Gradient compares the analytic derivatives with central
// finite differences.
func TestLogistic_Gradient(t *testing.T) {
	t.Parallel()
	m := Default()
	const h = 1e-6

	points := []struct {
		x float64
		p Params
	}{
		{0, Params{N0: 5, R: 0.2}},
		{10, Params{N0: 5, R: 0.2}},
		{25, Params{N0: 40, R: 0.05}},
		{40, Params{N0: 1, R: 0.3}},
	}

	for _, pt := range points {
		dN0, dR := m.Gradient(pt.x, pt.p)

		numN0 := (m.Eval(pt.x, Params{N0: pt.p.N0 + h, R: pt.p.R}) -
			m.Eval(pt.x, Params{N0: pt.p.N0 - h, R: pt.p.R})) / (2 * h)
		numR := (m.Eval(pt.x, Params{N0: pt.p.N0, R: pt.p.R + h}) -
			m.Eval(pt.x, Params{N0: pt.p.N0, R: pt.p.R - h})) / (2 * h)

		if math.Abs(dN0-numN0) > 1e-4*math.Max(1, math.Abs(numN0)) {
			t.Errorf("dN0 at x=%g %v: analytic %g, numeric %g", pt.x, pt.p, dN0, numN0)
		}
		if math.Abs(dR-numR) > 1e-4*math.Max(1, math.Abs(numR)) {
			t.Errorf("dR at x=%g %v: analytic %g, numeric %g", pt.x, pt.p, dR, numR)
		}
	}
}

func TestLogistic_GradientAtZeroN0(t *testing.T) {
	t.Parallel()
	m := Default()

	dN0, dR := m.Gradient(10, Params{N0: 0, R: 0.1})
	if math.Abs(dN0-math.Exp(1)) > 1e-12 {
		t.Errorf("dN0 = %g, want e^(r·x) = %g", dN0, math.Exp(1))
	}
	if dR != 0 {
		t.Errorf("dR = %g, want 0", dR)
	}

	// E underflows to zero: the derivative must stay finite.
	dN0, dR = m.Gradient(50, Params{N0: 0, R: 20})
	if math.IsNaN(dN0) || math.IsNaN(dR) {
		t.Errorf("gradient is NaN: %g, %g", dN0, dR)
	}
}

func TestLogistic_Clamp(t *testing.T) {
	t.Parallel()
	m := Default()

	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"inside unchanged", Params{N0: 10, R: 0.5}, Params{N0: 10, R: 0.5}},
		{"below lower", Params{N0: -3, R: 0}, Params{N0: 0, R: 0.00001}},
		{"above upper", Params{N0: 90, R: 12}, Params{N0: 85, R: 10}},
		{"NaN goes to lower", Params{N0: math.NaN(), R: math.NaN()}, Params{N0: 0, R: 0.00001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := m.Clamp(tt.in)
			if got != tt.want {
				t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if !m.InBounds(got) {
				t.Errorf("Clamp(%v) = %v is out of bounds", tt.in, got)
			}
		})
	}
}

func TestParams_Vector(t *testing.T) {
	t.Parallel()
	p := Params{N0: 4, R: 0.2}

	v := p.Vector()
	if len(v) != NumParams || v[0] != 4 || v[1] != 0.2 {
		t.Fatalf("Vector() = %v", v)
	}
	if ParamsFromVector(v) != p {
		t.Errorf("ParamsFromVector(%v) = %v, want %v", v, ParamsFromVector(v), p)
	}
	for i := range NumParams {
		if p.At(i) != v[i] {
			t.Errorf("At(%d) = %g, want %g", i, p.At(i), v[i])
		}
	}
}

func TestLogistic_Jacobian(t *testing.T) {
	t.Parallel()
	m := Default()
	p := Params{N0: 5, R: 0.2}
	xs := []float64{0, 5, 10}

	jac := m.Jacobian(xs, p)
	rows, cols := jac.Dims()
	if rows != len(xs) || cols != NumParams {
		t.Fatalf("Jacobian dims = %dx%d, want %dx%d", rows, cols, len(xs), NumParams)
	}
	for i, x := range xs {
		dN0, dR := m.Gradient(x, p)
		if jac.At(i, 0) != dN0 || jac.At(i, 1) != dR {
			t.Errorf("row %d = (%g, %g), want (%g, %g)", i, jac.At(i, 0), jac.At(i, 1), dN0, dR)
		}
	}
}
