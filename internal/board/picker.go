package board

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobber/internal/lifecycle"
	"github.com/amishk599/jobber/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerRowStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// pickerModel chooses the next status for one application. Number keys pick
// directly; arrows plus enter also work.
type pickerModel struct {
	app      model.Application
	cursor   int
	selected model.Status // empty until chosen
	quit     bool
}

func newPickerModel(app model.Application) pickerModel {
	m := pickerModel{app: app}
	for i, s := range model.Statuses {
		if s == app.Status {
			m.cursor = i
		}
	}
	return m
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch k := key.String(); k {
	case "q", "esc", "ctrl+c":
		m.quit = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, len(model.Statuses)-1)
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, len(model.Statuses)-1)
	case "enter":
		m.selected = model.Statuses[m.cursor]
		return m, tea.Quit
	default:
		if st, ok := statusKeys[k]; ok {
			m.selected = st
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(fmt.Sprintf("%s at %s", m.app.Position, m.app.Company)))
	b.WriteByte('\n')

	for i, st := range model.Statuses {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		row := fmt.Sprintf("%s%d  %s", marker, i+1, statusBadge(st))
		if st == m.app.Status {
			row += noticeStyle.Render("  current")
		}
		b.WriteString(pickerRowStyle.Render(row))
		b.WriteByte('\n')
	}

	if st := model.Statuses[m.cursor]; st != m.app.Status {
		b.WriteString(pickerHintStyle.Render(lifecycle.Message(st)))
		b.WriteByte('\n')
	}
	b.WriteString(pickerHintStyle.Render("1-4 or ↑/↓ + enter to choose  q cancel"))
	return b.String()
}

// RunStatusPicker asks for app's next status. ok is false if the user cancelled.
func RunStatusPicker(app model.Application) (status model.Status, ok bool, err error) {
	result, err := tea.NewProgram(newPickerModel(app)).Run()
	if err != nil {
		return "", false, err
	}

	final := result.(pickerModel)
	if final.quit || final.selected == "" {
		return "", false, nil
	}
	return final.selected, true, nil
}
