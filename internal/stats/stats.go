// Package stats computes the goodness-of-fit statistics reported for a
// fitted model: R², χ², degrees of freedom, p-value, AIC and BIC.
package stats

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "github.com/agbru/logfit/internal/errors"
)

// ChiSquaredMode selects how χ² is accumulated.
type ChiSquaredMode int

const (
	// ChiSquaredSum accumulates resid²/err_y over every sample.
	ChiSquaredSum ChiSquaredMode = iota
	// ChiSquaredLast keeps only the term of the last sample, matching the
	// historical report output.
	ChiSquaredLast
)

// String returns the flag value of the mode.
func (m ChiSquaredMode) String() string {
	switch m {
	case ChiSquaredSum:
		return "sum"
	case ChiSquaredLast:
		return "last"
	default:
		return fmt.Sprintf("ChiSquaredMode(%d)", int(m))
	}
}

// ParseChiSquaredMode converts a flag value ("sum" or "last") to a mode.
func ParseChiSquaredMode(s string) (ChiSquaredMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum", "":
		return ChiSquaredSum, nil
	case "last":
		return ChiSquaredLast, nil
	default:
		return 0, apperrors.ValidationError{
			Field:   "chi2-mode",
			Message: fmt.Sprintf("unknown mode %q (want sum or last)", s),
		}
	}
}

// Input holds the observations and the model values to evaluate.
type Input struct {
	Y      []float64
	Fitted []float64
	ErrY   []float64
	// NumParams is the number of fitted parameters.
	NumParams int
	Mode      ChiSquaredMode
}

// Statistics is the goodness-of-fit summary of one fit.
type Statistics struct {
	RSquared   float64
	ChiSquared float64
	NDF        int
	PValue     float64
	AIC        float64
	BIC        float64

	SSRes float64
	SSTot float64
	N     int
	Mode  ChiSquaredMode
}

// Compute derives the statistics of in. It fails with a ValidationError when
// the slices differ in length, when there are not more samples than
// parameters, or when an err_y entering χ² is not positive.
func Compute(in Input) (Statistics, error) {
	n := len(in.Y)
	if len(in.Fitted) != n || len(in.ErrY) != n {
		return Statistics{}, apperrors.ValidationError{
			Field:   "fitted",
			Message: fmt.Sprintf("length mismatch: y=%d fitted=%d err_y=%d", n, len(in.Fitted), len(in.ErrY)),
		}
	}
	if n <= in.NumParams {
		return Statistics{}, apperrors.ValidationError{
			Field:   "y",
			Message: fmt.Sprintf("need more than %d samples, got %d", in.NumParams, n),
		}
	}

	resid := make([]float64, n)
	floats.SubTo(resid, in.Y, in.Fitted)
	ssRes := floats.Dot(resid, resid)

	mean := stat.Mean(in.Y, nil)
	ssTot := 0.0
	for _, y := range in.Y {
		ssTot += (y - mean) * (y - mean)
	}

	chi2, err := chiSquared(resid, in.ErrY, in.Mode)
	if err != nil {
		return Statistics{}, err
	}

	ndf := n - in.NumParams
	k := float64(in.NumParams + 1)
	logLik := math.Log(ssRes / float64(n))

	return Statistics{
		RSquared:   1 - ssRes/ssTot,
		ChiSquared: chi2,
		NDF:        ndf,
		PValue:     PValue(chi2, ndf),
		AIC:        2*k - 2*logLik,
		BIC:        k*math.Log(float64(n)) - 2*logLik,
		SSRes:      ssRes,
		SSTot:      ssTot,
		N:          n,
		Mode:       in.Mode,
	}, nil
}

func chiSquared(resid, errY []float64, mode ChiSquaredMode) (float64, error) {
	from := 0
	if mode == ChiSquaredLast {
		from = len(resid) - 1
	}

	sum := 0.0
	for i := from; i < len(resid); i++ {
		if !(errY[i] > 0) {
			return 0, apperrors.ValidationError{
				Field:   "err_y",
				Message: fmt.Sprintf("sample %d has non-positive uncertainty %g", i, errY[i]),
			}
		}
		sum += resid[i] * resid[i] / errY[i]
	}
	return sum, nil
}

// PValue returns the χ² cumulative distribution at chi2 with ndf degrees of
// freedom, i.e. 1 − survival.
func PValue(chi2 float64, ndf int) float64 {
	return distuv.ChiSquared{K: float64(ndf)}.CDF(chi2)
}
