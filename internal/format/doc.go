// Package format holds the pure string formatting helpers shared by the
// report, the spinner and the logs: durations and fixed-precision numbers.
package format
