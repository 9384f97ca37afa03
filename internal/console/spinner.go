package console

import (
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// spinnerModel is the bubbletea model shown while a captured command runs.
type spinnerModel struct {
	spinner spinner.Model
	label   string
	final   string
	done    bool
}

// spinnerDoneMsg replaces the spinner with the task's final line.
type spinnerDoneMsg struct {
	final string
}

func newSpinnerModel(label string, theme Theme) *spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Spinner
	return &spinnerModel{spinner: s, label: label}
}

func (m *spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerDoneMsg:
		m.done = true
		m.final = msg.final
		return m, tea.Quit
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *spinnerModel) View() string {
	if m.done {
		return m.final + "\n"
	}
	return m.spinner.View() + " " + m.label
}

// liveSpinner runs one spinner program until stop is called.
type liveSpinner struct {
	program *tea.Program
	exited  chan struct{}
}

func startSpinner(out io.Writer, label string, theme Theme) *liveSpinner {
	p := tea.NewProgram(newSpinnerModel(label, theme),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s := &liveSpinner{program: p, exited: make(chan struct{})}
	go func() {
		defer close(s.exited)
		// A spinner that fails to render only loses decoration.
		_, _ = p.Run()
	}()
	return s
}

// stop renders final in place of the spinner and waits for the program
// to release the terminal.
func (s *liveSpinner) stop(final string) {
	s.program.Send(spinnerDoneMsg{final: final})
	<-s.exited
}
