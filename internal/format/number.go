package format

import (
	"math"
	"strconv"
)

// FormatFixed formats v with exactly decimals digits after the point.
// Non-finite values are rendered as "nan", "inf" or "-inf".
func FormatFixed(v float64, decimals int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	// Avoid printing "-0.00000" for tiny negative values.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == 0 && s[0] == '-' {
		s = s[1:]
	}
	return s
}

// FormatScientific formats v in exponent notation with the given precision,
// as used for covariance entries.
func FormatScientific(v float64, precision int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'e', precision, 64)
}
