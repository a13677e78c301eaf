// Package dataset loads the four-column tab-separated input of logfit:
// x, y and their uncertainties, one sample per line, no header.
package dataset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	apperrors "github.com/agbru/logfit/internal/errors"
)

// Columns is the number of tab-separated fields per row.
const Columns = 4

// ColumnNames are the positional names of the input columns.
var ColumnNames = [Columns]string{"x", "y", "err_x", "err_y"}

// ErrNoSamples is returned when the input holds no data rows.
var ErrNoSamples = errors.New("no samples")

// Sample is one row of the input.
type Sample struct {
	X    float64
	Y    float64
	ErrX float64
	ErrY float64
}

// Dataset is the ordered, read-only collection of samples of one input.
type Dataset struct {
	samples []Sample

	// Source names where the samples were read from.
	Source string
	// Fingerprint is the xxhash64 digest of the raw input bytes.
	Fingerprint uint64
}

// New builds a Dataset from in-memory samples. The slice is copied.
func New(source string, samples []Sample) Dataset {
	s := make([]Sample, len(samples))
	copy(s, samples)
	return Dataset{samples: s, Source: source}
}

// Len returns the number of samples.
func (d Dataset) Len() int { return len(d.samples) }

// Samples returns a copy of the samples.
func (d Dataset) Samples() []Sample {
	s := make([]Sample, len(d.samples))
	copy(s, d.samples)
	return s
}

// X returns the x column.
func (d Dataset) X() []float64 { return d.column(func(s Sample) float64 { return s.X }) }

// Y returns the y column.
func (d Dataset) Y() []float64 { return d.column(func(s Sample) float64 { return s.Y }) }

// ErrX returns the x uncertainty column.
func (d Dataset) ErrX() []float64 { return d.column(func(s Sample) float64 { return s.ErrX }) }

// ErrY returns the y uncertainty column.
func (d Dataset) ErrY() []float64 { return d.column(func(s Sample) float64 { return s.ErrY }) }

func (d Dataset) column(get func(Sample) float64) []float64 {
	out := make([]float64, len(d.samples))
	for i, s := range d.samples {
		out[i] = get(s)
	}
	return out
}

// Load reads and parses the file at path.
func Load(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, apperrors.ParseError{Source: path, Cause: err}
	}
	return Parse(bytes.NewReader(raw), path)
}

// Parse reads samples from r. Blank lines are skipped; every other line must
// hold exactly four tab-separated finite numbers, err_x must not be negative
// and err_y must be positive. source is only used in error messages.
func Parse(r io.Reader, source string) (Dataset, error) {
	hasher := xxhash.New()
	scanner := bufio.NewScanner(io.TeeReader(r, hasher))

	var samples []Sample
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		s, err := parseRow(text)
		if err != nil {
			return Dataset{}, apperrors.ParseError{Source: source, Line: line, Cause: err}
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return Dataset{}, apperrors.ParseError{Source: source, Line: line, Cause: err}
	}
	if len(samples) == 0 {
		return Dataset{}, apperrors.ParseError{Source: source, Cause: ErrNoSamples}
	}

	return Dataset{samples: samples, Source: source, Fingerprint: hasher.Sum64()}, nil
}

func parseRow(text string) (Sample, error) {
	fields := strings.Split(text, "\t")
	if len(fields) != Columns {
		return Sample{}, fmt.Errorf("expected %d tab-separated columns, got %d", Columns, len(fields))
	}

	var v [Columns]float64
	for i, f := range fields {
		f = strings.TrimSpace(f)
		parsed, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("column %s: %q is not a number", ColumnNames[i], f)
		}
		if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return Sample{}, fmt.Errorf("column %s: %q is not finite", ColumnNames[i], f)
		}
		v[i] = parsed
	}
	if v[2] < 0 {
		return Sample{}, fmt.Errorf("column err_x: uncertainty must not be negative, got %g", v[2])
	}
	// err_y divides the χ² terms.
	if v[3] <= 0 {
		return Sample{}, fmt.Errorf("column err_y: uncertainty must be positive, got %g", v[3])
	}

	return Sample{X: v[0], Y: v[1], ErrX: v[2], ErrY: v[3]}, nil
}
