//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/logfit/internal/orchestration"
	"github.com/agbru/logfit/internal/ui"
)

// SpinnerRefreshRate defines the refresh frequency of the fit spinner.
const SpinnerRefreshRate = 100 * time.Millisecond

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// It defines the essential controls for a spinner: starting, stopping, and
// updating its status message.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	//
	// Parameters:
	//   - suffix: The text string to display.
	UpdateSuffix(suffix string)
}

// realSpinner is a wrapper for the `spinner.Spinner` that implements the
// `Spinner` interface.
type realSpinner struct {
	s *spinner.Spinner
}

// Start begins the spinner animation.
func (rs *realSpinner) Start() {
	rs.s.Start()
}

// Stop halts the spinner animation.
func (rs *realSpinner) Stop() {
	rs.s.Stop()
}

// UpdateSuffix sets the text that is displayed after the spinner.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], SpinnerRefreshRate, options...)
	return &realSpinner{s}
}

// SpinnerFitReporter implements orchestration.FitReporter with a terminal
// spinner showing the solver iteration and cost.
type SpinnerFitReporter struct {
	out io.Writer

	mu      sync.Mutex
	spinner Spinner
	samples int
}

// Verify that SpinnerFitReporter implements orchestration.FitReporter.
var _ orchestration.FitReporter = (*SpinnerFitReporter)(nil)

// NewSpinnerFitReporter returns a reporter drawing on out.
func NewSpinnerFitReporter(out io.Writer) *SpinnerFitReporter {
	return &SpinnerFitReporter{out: out}
}

// FitStarted starts the spinner.
func (r *SpinnerFitReporter) FitStarted(samples int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = samples
	r.spinner = newSpinner(spinner.WithWriter(r.out))
	r.spinner.UpdateSuffix(fmt.Sprintf(" Fitting %d samples...", samples))
	r.spinner.Start()
}

// FitIteration updates the spinner text with the solver state.
func (r *SpinnerFitReporter) FitIteration(iteration int, cost float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spinner == nil {
		return
	}
	r.spinner.UpdateSuffix(fmt.Sprintf(" Fitting %d samples: iteration %s%d%s, cost %s%.6g%s",
		r.samples, ui.ColorYellow(), iteration, ui.ColorReset(), ui.ColorGreen(), cost, ui.ColorReset()))
}

// FitFinished stops the spinner.
func (r *SpinnerFitReporter) FitFinished(error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spinner == nil {
		return
	}
	r.spinner.Stop()
	r.spinner = nil
}
