package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/logfit/internal/confidence"
	"github.com/agbru/logfit/internal/plot"
)

// SigmaStep is the change of the sigma multiplier per key press.
const SigmaStep = 0.5

// Layout constants of the viewer.
const (
	defaultWidth  = 80
	defaultHeight = 24
	yLabelWidth   = 9
	// title, x labels, x axis name, footer, and the two border lines.
	chromeHeight = 6
	minCanvas    = 4
)

// RebuildFunc recomputes the confidence band for a new sigma multiplier.
type RebuildFunc func(sigma float64) (confidence.Band, error)

// LayoutManager holds terminal dimensions and provides layout calculations.
type LayoutManager struct {
	width  int
	height int
}

// canvasSize returns the braille canvas size in characters.
func (l LayoutManager) canvasSize() (width, rows int) {
	width = max(l.width-yLabelWidth-2, minCanvas)
	rows = max(l.height-chromeHeight, minCanvas)
	return width, rows
}

// ViewerModel is the bubbletea model of the interactive chart.
type ViewerModel struct {
	fig     plot.Figure
	sigma   float64
	rebuild RebuildFunc
	keymap  KeyMap
	err     error

	LayoutManager
}

// NewViewerModel returns a viewer showing fig, drawn with the given sigma.
func NewViewerModel(fig plot.Figure, sigma float64, rebuild RebuildFunc) ViewerModel {
	return ViewerModel{
		fig:           fig,
		sigma:         sigma,
		rebuild:       rebuild,
		keymap:        DefaultKeyMap(),
		LayoutManager: LayoutManager{width: defaultWidth, height: defaultHeight},
	}
}

// Sigma returns the multiplier currently drawn.
func (m ViewerModel) Sigma() float64 { return m.sigma }

// Figure returns the figure currently drawn.
func (m ViewerModel) Figure() plot.Figure { return m.fig }

// Err returns the last rebuild failure, if any.
func (m ViewerModel) Err() error { return m.err }

// Init returns the initial commands.
func (m ViewerModel) Init() tea.Cmd { return nil }

// Update handles key presses and terminal resizes.
func (m ViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m ViewerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Increase):
		return m.setSigma(m.sigma + SigmaStep), nil
	case key.Matches(msg, m.keymap.Decrease):
		return m.setSigma(max(m.sigma-SigmaStep, 0)), nil
	}
	return m, nil
}

func (m ViewerModel) setSigma(sigma float64) ViewerModel {
	if sigma == m.sigma || m.rebuild == nil {
		return m
	}
	band, err := m.rebuild(sigma)
	if err != nil {
		m.err = err
		return m
	}
	m.err = nil
	m.sigma = sigma
	m.fig = m.fig.WithBand(band)
	return m
}

// View renders the chart with its axes and the key help.
func (m ViewerModel) View() string {
	width, rows := m.canvasSize()
	canvas := plot.Draw(m.fig, width, rows)
	bounds := m.fig.Bounds()

	var body strings.Builder
	for i, line := range canvas.Rows(paintLayer) {
		label := ""
		switch i {
		case 0:
			label = fmt.Sprintf("%.1f", bounds.YMax)
		case rows / 2:
			label = fmt.Sprintf("%.1f", (bounds.YMax+bounds.YMin)/2)
		case rows - 1:
			label = fmt.Sprintf("%.1f", bounds.YMin)
		}
		body.WriteString(axisStyle.Render(fmt.Sprintf("%*s ┤", yLabelWidth-2, label)))
		body.WriteString(line)
		if i < rows-1 {
			body.WriteByte('\n')
		}
	}

	left := fmt.Sprintf("%.1f", bounds.XMin)
	right := fmt.Sprintf("%.1f", bounds.XMax)
	gap := max(width-len(left)-len(right), 1)
	xLabels := strings.Repeat(" ", yLabelWidth) + left + strings.Repeat(" ", gap) + right
	xName := strings.Repeat(" ", yLabelWidth) + m.fig.XLabel

	chart := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.fig.Title)+axisStyle.Render("  y: "+m.fig.YLabel),
		body.String(),
		axisStyle.Render(xLabels),
		axisStyle.Render(xName),
	)

	return lipgloss.JoinVertical(lipgloss.Left, panelStyle.Render(chart), m.footer())
}

func (m ViewerModel) footer() string {
	parts := make([]string, 0, len(m.keymap.ShortHelp())+1)
	for _, b := range m.keymap.ShortHelp() {
		parts = append(parts, footerKeyStyle.Render(b.Help().Key)+" "+footerDescStyle.Render(b.Help().Desc))
	}
	line := strings.Join(parts, "  ")
	if m.err != nil {
		line += "  " + errorStyle.Render(m.err.Error())
	}
	return line
}

// RunViewer shows fig full screen until the user quits or ctx is done and
// returns the last sigma drawn. Extra options are passed to the program,
// which lets callers redirect its input and output.
func RunViewer(ctx context.Context, fig plot.Figure, sigma float64, rebuild RebuildFunc, opts ...tea.ProgramOption) (float64, error) {
	initTUIStyles()

	options := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(NewViewerModel(fig, sigma, rebuild), options...)

	final, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sigma, ctxErr
		}
		return sigma, fmt.Errorf("chart viewer: %w", err)
	}
	if vm, ok := final.(ViewerModel); ok {
		return vm.sigma, nil
	}
	return sigma, nil
}
