package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/logfit/internal/plot"
	"github.com/agbru/logfit/internal/ui"
)

// Style variables for the viewer and the prompt.
// Initialized from the ui theme system via initTUIStyles().
var (
	panelStyle      lipgloss.Style
	titleStyle      lipgloss.Style
	axisStyle       lipgloss.Style
	bandStyle       lipgloss.Style
	fitStyle        lipgloss.Style
	dataStyle       lipgloss.Style
	footerKeyStyle  lipgloss.Style
	footerDescStyle lipgloss.Style
	errorStyle      lipgloss.Style
	promptStyle     lipgloss.Style
)

func init() {
	initTUIStyles()
}

// initTUIStyles rebuilds all TUI styles from the current ui theme.
// Called at package init and again before each program starts, after
// InitTheme has been invoked.
func initTUIStyles() {
	t := ui.GetCurrentTUITheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Foreground(t.Text)

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent)

	axisStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	bandStyle = lipgloss.NewStyle().
		Foreground(t.Band)

	fitStyle = lipgloss.NewStyle().
		Foreground(t.Fit)

	dataStyle = lipgloss.NewStyle().
		Foreground(t.Data).
		Bold(true)

	footerKeyStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	footerDescStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	errorStyle = lipgloss.NewStyle().
		Foreground(t.Error).
		Bold(true)

	promptStyle = lipgloss.NewStyle().
		Foreground(t.Text).
		Bold(true)
}

// paintLayer styles one run of canvas cells.
func paintLayer(l plot.Layer, s string) string {
	switch l {
	case plot.LayerBand:
		return bandStyle.Render(s)
	case plot.LayerFit:
		return fitStyle.Render(s)
	case plot.LayerData:
		return dataStyle.Render(s)
	default:
		return s
	}
}
