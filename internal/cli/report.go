package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/agbru/logfit/internal/format"
	"github.com/agbru/logfit/internal/model"
	"github.com/agbru/logfit/internal/orchestration"
	"github.com/agbru/logfit/internal/ui"
)

// Display precision of the report fields.
const (
	ParamDecimals  = 7
	StatDecimals   = 5
	PValueDecimals = 7
	CovPrecision   = 6
)

// Parameter is one fitted parameter with its standard error.
type Parameter struct {
	Name   string `json:"name"`
	Value  Float  `json:"value"`
	StdErr Float  `json:"stderr"`
}

// Statistics holds the goodness-of-fit figures of a report.
type Statistics struct {
	RSquared       Float  `json:"r_squared"`
	ChiSquared     Float  `json:"chi_squared"`
	ChiSquaredMode string `json:"chi_squared_mode"`
	NDF            int    `json:"ndf"`
	PValue         Float  `json:"p_value"`
	AIC            Float  `json:"aic"`
	BIC            Float  `json:"bic"`
}

// Solver summarizes the solver run.
type Solver struct {
	Iterations  int     `json:"iterations"`
	Evaluations int     `json:"evaluations"`
	Status      string  `json:"status"`
	DurationMS  float64 `json:"duration_ms"`
}

// Matrix is the parameter covariance matrix.
type Matrix [model.NumParams][model.NumParams]Float

// Report is the presentation view of an analysis. It is printed by
// DisplayReport and serialized as-is by WriteReportToFile.
type Report struct {
	Model       string      `json:"model"`
	Source      string      `json:"source"`
	Fingerprint string      `json:"fingerprint"`
	Samples     int         `json:"samples"`
	Parameters  []Parameter `json:"parameters"`
	Covariance  Matrix      `json:"covariance"`
	Statistics  Statistics  `json:"statistics"`
	Sigma       Float       `json:"sigma"`
	Solver      Solver      `json:"solver"`
	Generated   time.Time   `json:"generated"`

	duration time.Duration
}

// NewReport builds the report of a finished analysis.
func NewReport(a orchestration.Analysis) Report {
	r := Report{
		Model:       a.Model.Formula(),
		Source:      a.Dataset.Source,
		Fingerprint: fmt.Sprintf("%016x", a.Dataset.Fingerprint),
		Samples:     a.Dataset.Len(),
		Parameters:  make([]Parameter, 0, model.NumParams),
		Statistics: Statistics{
			RSquared:       Float(a.Stats.RSquared),
			ChiSquared:     Float(a.Stats.ChiSquared),
			ChiSquaredMode: a.Stats.Mode.String(),
			NDF:            a.Stats.NDF,
			PValue:         Float(a.Stats.PValue),
			AIC:            Float(a.Stats.AIC),
			BIC:            Float(a.Stats.BIC),
		},
		Sigma: Float(a.Sigma),
		Solver: Solver{
			Iterations:  a.Fit.Iterations,
			Evaluations: a.Fit.Evaluations,
			Status:      a.Fit.Status.String(),
			DurationMS:  float64(a.FitDuration.Microseconds()) / 1e3,
		},
		Generated: a.Generated,
		duration:  a.FitDuration,
	}

	for i, name := range model.ParamNames {
		r.Parameters = append(r.Parameters, Parameter{
			Name:   name,
			Value:  Float(a.Fit.Params.At(i)),
			StdErr: Float(a.Fit.StdErr[i]),
		})
	}
	if cov := a.Fit.Covariance; cov != nil {
		for i := range model.NumParams {
			for j := range model.NumParams {
				r.Covariance[i][j] = Float(cov.At(i, j))
			}
		}
	}
	return r
}

// DisplayReport prints the fit results in a fixed order: parameters with
// their errors, goodness-of-fit statistics, then the covariance matrix.
//
// Parameters:
//   - out: The output writer.
//   - r: The report to print.
func DisplayReport(out io.Writer, r Report) {
	fmt.Fprintf(out, "\n%sLogistic fit %s results:%s\n\n", ui.ColorBold(), r.Model, ui.ColorReset())

	for _, p := range r.Parameters {
		fmt.Fprintf(out, "%s%s%s = %s +/- %s\n",
			ui.ColorBlue(), p.Name, ui.ColorReset(),
			format.FormatFixed(float64(p.Value), ParamDecimals),
			format.FormatFixed(float64(p.StdErr), ParamDecimals))
	}

	s := r.Statistics
	fmt.Fprintf(out, "R-squared = %s\n", format.FormatFixed(float64(s.RSquared), StatDecimals))
	fmt.Fprintf(out, "Chi-squared = %s\n", format.FormatFixed(float64(s.ChiSquared), StatDecimals))
	fmt.Fprintf(out, "P-value = %s\n", format.FormatFixed(float64(s.PValue), PValueDecimals))
	fmt.Fprintf(out, "Number of degrees of freedom (NDF) = %d\n", s.NDF)
	fmt.Fprintf(out, "Akaike Information Criterion (AIC) = %s\n", format.FormatFixed(float64(s.AIC), StatDecimals))
	fmt.Fprintf(out, "Bayesian Information Criterion (BIC) = %s\n", format.FormatFixed(float64(s.BIC), StatDecimals))

	fmt.Fprintf(out, "\n%sCovariance matrix:%s\n\n", ui.ColorUnderline(), ui.ColorReset())
	DisplayCovariance(out, r.Covariance)
	fmt.Fprintln(out)
}

// DisplayCovariance prints the parameter covariance matrix with row and
// column labels.
func DisplayCovariance(out io.Writer, cov Matrix) {
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(model.ParamNames[:], "\t"))
	for i, name := range model.ParamNames {
		cells := make([]string, model.NumParams)
		for j := range cells {
			cells[j] = format.FormatScientific(float64(cov[i][j]), CovPrecision)
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", name, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

// FormatQuietReport formats a report for quiet mode output: one
// tab-separated line "N_0 err r err R2" suitable for scripting.
func FormatQuietReport(r Report) string {
	fields := make([]string, 0, 2*len(r.Parameters)+1)
	for _, p := range r.Parameters {
		fields = append(fields,
			format.FormatFixed(float64(p.Value), ParamDecimals),
			format.FormatFixed(float64(p.StdErr), ParamDecimals))
	}
	fields = append(fields, format.FormatFixed(float64(r.Statistics.RSquared), StatDecimals))
	return strings.Join(fields, "\t")
}

// DisplayQuietReport outputs a report in quiet mode (minimal output).
func DisplayQuietReport(out io.Writer, r Report) {
	fmt.Fprintln(out, FormatQuietReport(r))
}

// DisplaySolverSummary prints one line describing the solver run.
func DisplaySolverSummary(out io.Writer, r Report) {
	fmt.Fprintf(out, "Solver: %s%d%s iterations, %d evaluations, stopped on %s%s%s in %s%s%s (%d samples from %s).\n",
		ui.ColorGreen(), r.Solver.Iterations, ui.ColorReset(),
		r.Solver.Evaluations,
		ui.ColorYellow(), r.Solver.Status, ui.ColorReset(),
		ui.ColorOrange(), format.FormatExecutionDuration(r.duration), ui.ColorReset(),
		r.Samples, r.Source)
}

// DisplayArtifact reports that an artifact was written to path.
func DisplayArtifact(out io.Writer, kind, path string) {
	fmt.Fprintf(out, "%s✓ %s saved to: %s%s%s\n", ui.ColorGreen(), kind, ui.ColorBlue(), path, ui.ColorReset())
}
