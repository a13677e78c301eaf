// Package config handles the command-line and environment configuration of
// logfit.
package config

import (
	"flag"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	apperrors "github.com/agbru/logfit/internal/errors"
	"github.com/agbru/logfit/internal/stats"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "LOGFIT_"

// Defaults of the command-line flags.
const (
	DefaultDataFile = "data.txt"
	DefaultPlotFile = "logistic_fit.png"
	DefaultTimeout  = time.Minute
	DefaultChi2Mode = "sum"
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// DataFile is the tab-separated input dataset.
	DataFile string
	// Sigma is the confidence band multiplier; only meaningful when SigmaSet.
	Sigma float64
	// SigmaSet reports whether Sigma came from a flag or the environment.
	// When false the user is prompted.
	SigmaSet bool
	// Chi2Mode selects how χ² is accumulated ("sum" or "last").
	Chi2Mode string
	// PlotFile is the PNG chart destination; empty disables the chart.
	PlotFile string
	// OutputFile is the JSON report destination; empty disables it.
	OutputFile string
	// MetricsFile is the Prometheus textfile destination; empty disables it.
	MetricsFile string

	// Solver settings. Zero selects the solver default.
	MaxIterations int
	FTol          float64
	XTol          float64
	GTol          float64

	// Timeout bounds the solver and the artifact exports. The sigma prompt
	// and the chart viewer wait for the operator without a limit.
	Timeout time.Duration
	// TUI asks for sigma with the interactive text field.
	TUI bool
	// Show opens the terminal chart viewer after the report.
	Show bool
	// Quiet prints only the one-line result.
	Quiet bool
	// Verbose enables debug logs and the solver summary.
	Verbose bool
	// NoColor disables colored output.
	NoColor bool
}

// sigmaFlag is a flag.Value recording whether --sigma was given.
type sigmaFlag struct {
	cfg *AppConfig
}

func (s sigmaFlag) String() string {
	if s.cfg == nil || !s.cfg.SigmaSet {
		return ""
	}
	return strconv.FormatFloat(s.cfg.Sigma, 'g', -1, 64)
}

func (s sigmaFlag) Set(v string) error {
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid sigma %q", v)
	}
	s.cfg.Sigma = parsed
	s.cfg.SigmaSet = true
	return nil
}

// ParseConfig parses the command-line arguments, applies the LOGFIT_
// environment overrides for flags not given explicitly and validates the
// result.
//
// Parameters:
//   - programName: The name used in usage messages.
//   - args: The command-line arguments, without the program name.
//   - errorWriter: The writer for usage and parse errors.
//
// Returns:
//   - AppConfig: The validated configuration.
//   - error: flag.ErrHelp when help was requested, an
//     apperrors.ConfigError otherwise.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	fs.Usage = func() {
		fmt.Fprintf(errorWriter, "Usage: %s [options]\n\n", programName)
		fmt.Fprintln(errorWriter, "Fits a bounded logistic curve to a tab-separated dataset (x, y, err_x, err_y),")
		fmt.Fprintln(errorWriter, "prints the fit statistics and draws the confidence band.")
		fmt.Fprintf(errorWriter, "\nEvery option can also be set with a %s<NAME> environment variable.\n\nOptions:\n", EnvPrefix)
		fs.PrintDefaults()
	}

	config := AppConfig{}
	fs.StringVar(&config.DataFile, "data", DefaultDataFile, "Tab-separated dataset to fit.")
	fs.StringVar(&config.DataFile, "i", DefaultDataFile, "Dataset (shorthand).")
	fs.Var(sigmaFlag{&config}, "sigma", "Confidence band width in standard errors (prompted when omitted).")
	fs.StringVar(&config.Chi2Mode, "chi2-mode", DefaultChi2Mode, "Chi-squared accumulation: 'sum' or 'last'.")
	fs.StringVar(&config.PlotFile, "plot", DefaultPlotFile, "PNG chart destination (empty disables the chart).")
	fs.StringVar(&config.OutputFile, "output", "", "Write the report as JSON to this file.")
	fs.StringVar(&config.OutputFile, "o", "", "JSON report (shorthand).")
	fs.StringVar(&config.MetricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this file.")
	fs.IntVar(&config.MaxIterations, "max-iter", 0, "Maximum solver iterations (0 = default).")
	fs.Float64Var(&config.FTol, "ftol", 0, "Relative cost decrease tolerance (0 = default).")
	fs.Float64Var(&config.XTol, "xtol", 0, "Relative step tolerance (0 = default).")
	fs.Float64Var(&config.GTol, "gtol", 0, "Projected gradient tolerance (0 = default).")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum duration of the fit and of the exports (the prompt waits without limit).")
	fs.BoolVar(&config.TUI, "tui", false, "Ask for sigma with the interactive prompt.")
	fs.BoolVar(&config.Show, "show", false, "Open the terminal chart viewer after the report.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Print only 'N_0 err r err R2' on one line.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Verbose, "verbose", false, "Enable debug logs and the solver summary.")
	fs.BoolVar(&config.Verbose, "v", false, "Verbose mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output.")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return AppConfig{}, err
		}
		return AppConfig{}, apperrors.ConfigError{Message: err.Error()}
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %v", fs.Args())
	}

	applyEnvOverrides(&config, fs)
	config = ApplySolverDefaults(config)

	if err := config.Validate(); err != nil {
		return AppConfig{}, err
	}
	return config, nil
}

// Validate checks the semantic consistency of the configuration.
//
// Returns:
//   - error: An apperrors.ConfigError describing the first problem found.
func (c AppConfig) Validate() error {
	if c.DataFile == "" {
		return apperrors.NewConfigError("the dataset path must not be empty")
	}
	if c.SigmaSet && (math.IsNaN(c.Sigma) || math.IsInf(c.Sigma, 0) || c.Sigma < 0) {
		return apperrors.NewConfigError("sigma must be a finite, non-negative number, got %g", c.Sigma)
	}
	if _, err := stats.ParseChiSquaredMode(c.Chi2Mode); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if c.MaxIterations < 0 {
		return apperrors.NewConfigError("max-iter must not be negative, got %d", c.MaxIterations)
	}
	for _, tol := range []struct {
		name  string
		value float64
	}{{"ftol", c.FTol}, {"xtol", c.XTol}, {"gtol", c.GTol}} {
		if math.IsNaN(tol.value) || math.IsInf(tol.value, 0) || tol.value < 0 {
			return apperrors.NewConfigError("%s must be a finite, non-negative number, got %g", tol.name, tol.value)
		}
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout must be positive, got %s", c.Timeout)
	}
	if c.Quiet && c.Verbose {
		return apperrors.NewConfigError("--quiet and --verbose cannot be combined")
	}
	return nil
}

// ChiSquaredMode returns the parsed χ² accumulation mode. Invalid values,
// rejected by Validate, map to the default.
func (c AppConfig) ChiSquaredMode() stats.ChiSquaredMode {
	mode, err := stats.ParseChiSquaredMode(c.Chi2Mode)
	if err != nil {
		return stats.ChiSquaredSum
	}
	return mode
}
