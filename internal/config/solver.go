package config

import "github.com/agbru/logfit/internal/fit"

// Solver setting resolution chain (highest priority first):
//   1. CLI flags (--max-iter, --ftol, --xtol, --gtol)
//   2. Environment variables (LOGFIT_MAX_ITER, etc.)
//   3. Solver defaults in fit.DefaultOptions

// ApplySolverDefaults replaces every zero solver setting with the solver
// default, preserving the values given on the command line or in the
// environment.
func ApplySolverDefaults(cfg AppConfig) AppConfig {
	d := fit.DefaultOptions()
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = d.MaxIterations
	}
	if cfg.FTol == 0 {
		cfg.FTol = d.FTol
	}
	if cfg.XTol == 0 {
		cfg.XTol = d.XTol
	}
	if cfg.GTol == 0 {
		cfg.GTol = d.GTol
	}
	return cfg
}

// ToSolverOptions converts the configuration into fit.Options.
func (c AppConfig) ToSolverOptions() fit.Options {
	return fit.Options{
		MaxIterations: c.MaxIterations,
		FTol:          c.FTol,
		XTol:          c.XTol,
		GTol:          c.GTol,
	}.WithDefaults()
}
