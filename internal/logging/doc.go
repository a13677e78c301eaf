// Package logging provides a unified logging interface for logfit.
// It abstracts the underlying logging implementation (zerolog by default),
// so the pipeline stages log structured fields without depending on a backend.
package logging
