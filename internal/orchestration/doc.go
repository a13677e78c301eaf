// Package orchestration runs the logfit analysis: it loads the dataset, fits
// the model, asks for the sigma multiplier, builds the confidence band and
// computes the statistics, then hands the finished Analysis to the artifact
// exporters, which run concurrently. It decouples the analysis from
// presentation via the FitReporter and Exporter interfaces.
package orchestration
