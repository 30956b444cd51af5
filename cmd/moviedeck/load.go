package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// runWithSpinner runs load while a spinner ticks on stderr. Without a
// terminal on stderr it just runs load.
func runWithSpinner(ctx context.Context, label string, load func(context.Context) error) error {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return load(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newLoadModel(ctx, label, load), tea.WithOutput(os.Stderr))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("run spinner: %w", err)
	}

	lm, ok := m.(loadModel)
	if !ok {
		return fmt.Errorf("unexpected model type from tea program")
	}
	if !lm.done {
		return context.Canceled
	}
	return lm.err
}

// loadDoneMsg carries the load outcome back to the TUI.
type loadDoneMsg struct {
	err error
}

type loadModel struct {
	ctx     context.Context
	label   string
	load    func(context.Context) error
	spinner spinner.Model
	err     error
	done    bool
}

func newLoadModel(ctx context.Context, label string, load func(context.Context) error) loadModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return loadModel{
		ctx:     ctx,
		label:   label,
		load:    load,
		spinner: s,
	}
}

func (m loadModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

func (m loadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case loadDoneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loadModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + styleDim.Render(" "+m.label+"...") + "\n"
}

func (m loadModel) start() tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: m.load(m.ctx)}
	}
}
