package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/logfit/internal/confidence"
)

// promptModel asks for the sigma multiplier in a single text field.
type promptModel struct {
	input     textinput.Model
	submitted bool
	canceled  bool
}

func newPromptModel() promptModel {
	ti := textinput.New()
	ti.Placeholder = "2"
	ti.CharLimit = 32
	ti.Width = 12
	ti.Prompt = "σ > "
	ti.Focus()
	return promptModel{input: ti}
}

func (m promptModel) Init() tea.Cmd { return textinput.Blink }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.submitted || m.canceled {
		return ""
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s\n",
		promptStyle.Render(confidence.PromptText),
		m.input.View(),
		footerDescStyle.Render("enter to confirm, esc to cancel"),
	)
}

// answer converts the final state of the prompt into a sigma value.
func (m promptModel) answer() (float64, error) {
	if m.canceled || !m.submitted {
		return 0, context.Canceled
	}
	return confidence.ParseSigma(m.input.Value())
}

// SigmaPrompt is a confidence.Provider asking for the multiplier with an
// interactive text field.
type SigmaPrompt struct {
	in  io.Reader
	out io.Writer
}

var _ confidence.Provider = (*SigmaPrompt)(nil)

// NewSigmaPrompt returns a prompt reading keys from in and drawing on out.
func NewSigmaPrompt(in io.Reader, out io.Writer) *SigmaPrompt {
	return &SigmaPrompt{in: in, out: out}
}

// Sigma runs the prompt until the user confirms or cancels. Cancelling with
// esc or ctrl+c returns context.Canceled; invalid text is an
// apperrors.InputError.
func (p *SigmaPrompt) Sigma(ctx context.Context) (float64, error) {
	initTUIStyles()

	prog := tea.NewProgram(newPromptModel(),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("sigma prompt: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok {
		return 0, fmt.Errorf("sigma prompt: unexpected model %T", final)
	}
	return m.answer()
}
