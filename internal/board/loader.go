package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobber/internal/model"
)

const fetchTimeout = time.Minute

var errLoadCancelled = errors.New("cancelled")

type loadedMsg struct {
	apps []model.Application
	err  error
}

// loaderModel shows a spinner until the fetch reports back.
type loaderModel struct {
	label   string
	fetch   func(ctx context.Context) ([]model.Application, error)
	spinner spinner.Model
	apps    []model.Application
	err     error
	done    bool
}

func newLoaderModel(label string, fetch func(ctx context.Context) ([]model.Application, error)) loaderModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	return loaderModel{label: label, fetch: fetch, spinner: s}
}

func (m loaderModel) Init() tea.Cmd {
	fetch := m.fetch
	load := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		apps, err := fetch(ctx)
		return loadedMsg{apps: apps, err: err}
	}
	return tea.Batch(load, m.spinner.Tick)
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.apps, m.err, m.done = msg.apps, msg.err, true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err, m.done = errLoadCancelled, true
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s Loading %s...\n", m.spinner.View(), m.label)
}

// RunLoader fetches applications inline (no alt screen) behind a spinner.
func RunLoader(label string, fetch func(ctx context.Context) ([]model.Application, error)) ([]model.Application, error) {
	result, err := tea.NewProgram(newLoaderModel(label, fetch)).Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	return final.apps, final.err
}
