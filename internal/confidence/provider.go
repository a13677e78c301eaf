//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

package confidence

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/agbru/logfit/internal/errors"
)

// PromptText is the question asked when no sigma multiplier is configured.
const PromptText = "How many sigma do you want to include in the confidence band? (2 sigma is 95%)"

// ErrNegativeSigma is returned for a negative sigma multiplier.
var ErrNegativeSigma = errors.New("sigma must not be negative")

// Provider supplies the sigma multiplier of the confidence band. It is the
// only interactive dependency of the analysis.
type Provider interface {
	// Sigma returns the multiplier applied to the parameter standard errors.
	Sigma(ctx context.Context) (float64, error)
}

// Fixed is a Provider returning a preconfigured value.
type Fixed float64

// Sigma returns the fixed value.
func (f Fixed) Sigma(context.Context) (float64, error) {
	return float64(f), nil
}

// ParseSigma converts user text to a sigma multiplier. The value must be a
// finite, non-negative number; anything else is an apperrors.InputError.
func ParseSigma(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, apperrors.InputError{Input: trimmed, Cause: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.InputError{Input: trimmed, Cause: errors.New("value is not finite")}
	}
	if v < 0 {
		return 0, apperrors.InputError{Input: trimmed, Cause: ErrNegativeSigma}
	}
	return v, nil
}

// Prompt asks for the multiplier on out and reads one line from in.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt returns a Prompt reading from in and writing the question to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

type readResult struct {
	line string
	err  error
}

// Sigma prints the question and parses the answer. The read is abandoned
// when ctx is done.
func (p *Prompt) Sigma(ctx context.Context) (float64, error) {
	if _, err := fmt.Fprintf(p.out, "%s:\n", PromptText); err != nil {
		return 0, err
	}

	ch := make(chan readResult, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.err != nil && !(errors.Is(res.err, io.EOF) && strings.TrimSpace(res.line) != "") {
			if errors.Is(res.err, io.EOF) {
				return 0, apperrors.InputError{Input: "", Cause: errors.New("no answer before end of input")}
			}
			return 0, res.err
		}
		return ParseSigma(res.line)
	}
}
