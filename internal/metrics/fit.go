// Package metrics exposes the outcome of a fit as Prometheus gauges and
// writes them in the node-exporter textfile format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/agbru/logfit/internal/model"
	"github.com/agbru/logfit/internal/orchestration"
)

// Namespace prefixes every metric name.
const Namespace = "logfit"

// FitCollector holds the gauges describing one analysis.
type FitCollector struct {
	registry *prometheus.Registry

	paramValue  *prometheus.GaugeVec
	paramStdErr *prometheus.GaugeVec
	rSquared    prometheus.Gauge
	chiSquared  prometheus.Gauge
	pValue      prometheus.Gauge
	aic         prometheus.Gauge
	bic         prometheus.Gauge
	ndf         prometheus.Gauge
	samples     prometheus.Gauge
	iterations  prometheus.Gauge
	duration    prometheus.Gauge
}

// NewFitCollector creates the fit gauges on a private registry together
// with the Go runtime collector.
func NewFitCollector() *FitCollector {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: Namespace, Name: name, Help: help})
	}

	c := &FitCollector{
		registry: prometheus.NewRegistry(),
		paramValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace, Name: "parameter_value", Help: "Fitted value of each model parameter.",
		}, []string{"param"}),
		paramStdErr: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace, Name: "parameter_stderr", Help: "Standard error of each model parameter.",
		}, []string{"param"}),
		rSquared:   gauge("r_squared", "Coefficient of determination of the fit."),
		chiSquared: gauge("chi_squared", "Chi-squared of the residuals weighted by the y uncertainties."),
		pValue:     gauge("p_value", "Chi-squared CDF at the observed chi-squared."),
		aic:        gauge("aic", "Akaike information criterion."),
		bic:        gauge("bic", "Bayesian information criterion."),
		ndf:        gauge("ndf", "Number of degrees of freedom."),
		samples:    gauge("samples", "Number of samples in the dataset."),
		iterations: gauge("solver_iterations", "Accepted solver iterations."),
		duration:   gauge("fit_duration_seconds", "Wall time spent in the solver."),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		c.paramValue, c.paramStdErr,
		c.rSquared, c.chiSquared, c.pValue, c.aic, c.bic, c.ndf,
		c.samples, c.iterations, c.duration,
	)
	return c
}

// Registry returns the registry holding the gauges.
func (c *FitCollector) Registry() *prometheus.Registry { return c.registry }

// Observe sets every gauge from a.
func (c *FitCollector) Observe(a orchestration.Analysis) {
	for i, label := range model.ParamNames {
		c.paramValue.WithLabelValues(label).Set(a.Fit.Params.At(i))
		c.paramStdErr.WithLabelValues(label).Set(a.Fit.StdErr[i])
	}
	c.rSquared.Set(a.Stats.RSquared)
	c.chiSquared.Set(a.Stats.ChiSquared)
	c.pValue.Set(a.Stats.PValue)
	c.aic.Set(a.Stats.AIC)
	c.bic.Set(a.Stats.BIC)
	c.ndf.Set(float64(a.Stats.NDF))
	c.samples.Set(float64(a.Dataset.Len()))
	c.iterations.Set(float64(a.Fit.Iterations))
	c.duration.Set(a.FitDuration.Seconds())
}

// WriteTextfile writes the gathered metrics to path atomically.
func (c *FitCollector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
