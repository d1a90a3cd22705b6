package board

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobber/internal/lifecycle"
	"github.com/amishk599/jobber/internal/model"
)

// Lines per application in the list view (position + subtitle + blank separator).
const appItemHeight = 3

const actionTimeout = 30 * time.Second

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

// statusKeys maps the relabel keys to statuses, in lifecycle order.
var statusKeys = map[string]model.Status{
	"1": model.StatusApplied,
	"2": model.StatusInterview,
	"3": model.StatusOffer,
	"4": model.StatusRejected,
}

var statusColors = map[model.Status]lipgloss.Color{
	model.StatusApplied:   lipgloss.Color("39"),  // blue
	model.StatusInterview: lipgloss.Color("214"), // amber
	model.StatusOffer:     lipgloss.Color("42"),  // green
	model.StatusRejected:  lipgloss.Color("203"), // red
}

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	positionStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedPositionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Backend performs the board's mutations for the signed-in user.
type Backend interface {
	Transition(ctx context.Context, id string, to model.Status) (model.Application, error)
	Delete(ctx context.Context, id string) error
}

// transitionedMsg is sent when an async status change completes.
type transitionedMsg struct {
	app model.Application
	to  model.Status
	err error
}

// deletedMsg is sent when an async delete completes.
type deletedMsg struct {
	id  string
	err error
}

type boardModel struct {
	apps     []model.Application
	backend  Backend
	list     viewport.Model
	detail   viewport.Model
	cursor   int
	width    int
	height   int
	ready    bool
	view     viewState
	busy     bool
	notice   string
	errMsg   string
	deleting bool // waiting for delete confirmation
	openFn   func(url string)
}

func newBoardModel(apps []model.Application, backend Backend) boardModel {
	return boardModel{
		apps:    apps,
		backend: backend,
		openFn:  openURL,
	}
}

func (m boardModel) Init() tea.Cmd {
	return nil
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case transitionedMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("status change failed: %v", msg.err)
		} else {
			m.errMsg = ""
			m.notice = lifecycle.Message(msg.to)
			m.replace(msg.app)
		}
		m.recalcContent()
		return m, nil

	case deletedMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("delete failed: %v", msg.err)
		} else {
			m.errMsg = ""
			m.notice = "Application deleted."
			m.remove(msg.id)
			m.view = viewList
		}
		m.recalcContent()
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m boardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.deleting {
		m.deleting = false
		if key == "y" && !m.busy {
			if app, ok := m.selected(); ok {
				m.busy = true
				m.notice = "Deleting..."
				return m, m.deleteCmd(app.ID)
			}
		}
		m.notice = "Delete cancelled."
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		if m.view == viewDetail {
			m.view = viewList
			m.recalcContent()
		}
		return m, nil
	case "up", "k":
		if m.view == viewList {
			m.cursor = clamp(m.cursor-1, 0, max(len(m.apps)-1, 0))
			m.recalcContent()
			m.ensureCursorVisible()
			return m, nil
		}
	case "down", "j":
		if m.view == viewList {
			m.cursor = clamp(m.cursor+1, 0, max(len(m.apps)-1, 0))
			m.recalcContent()
			m.ensureCursorVisible()
			return m, nil
		}
	case "enter":
		if _, ok := m.selected(); ok {
			m.view = viewDetail
			m.recalcContent()
			m.detail.SetYOffset(0)
		}
		return m, nil
	case "o":
		if app, ok := m.selected(); ok && app.Link != "" {
			m.openFn(app.Link)
		}
		return m, nil
	case "d":
		if _, ok := m.selected(); ok && !m.busy {
			m.deleting = true
			m.notice = "Delete this application? y to confirm, any other key to cancel."
		}
		return m, nil
	case "1", "2", "3", "4":
		app, ok := m.selected()
		if !ok || m.busy {
			return m, nil
		}
		to := statusKeys[key]
		if app.Status == to {
			return m, nil
		}
		m.busy = true
		m.notice = "Updating status..."
		return m, m.transitionCmd(app.ID, to)
	}

	var cmd tea.Cmd
	if m.view == viewDetail {
		m.detail, cmd = m.detail.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m boardModel) transitionCmd(id string, to model.Status) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		app, err := backend.Transition(ctx, id, to)
		return transitionedMsg{app: app, to: to, err: err}
	}
}

func (m boardModel) deleteCmd(id string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return deletedMsg{id: id, err: backend.Delete(ctx, id)}
	}
}

func (m boardModel) selected() (model.Application, bool) {
	if len(m.apps) == 0 {
		return model.Application{}, false
	}
	return m.apps[m.cursor], true
}

func (m *boardModel) replace(app model.Application) {
	for i := range m.apps {
		if m.apps[i].ID == app.ID {
			m.apps[i] = app
			return
		}
	}
}

func (m *boardModel) remove(id string) {
	for i := range m.apps {
		if m.apps[i].ID == id {
			m.apps = append(m.apps[:i], m.apps[i+1:]...)
			break
		}
	}
	m.cursor = clamp(m.cursor, 0, max(len(m.apps)-1, 0))
}

func (m *boardModel) ensureCursorVisible() {
	top := m.cursor * appItemHeight
	bottom := top + appItemHeight - 1

	if top < m.list.YOffset {
		m.list.SetYOffset(top)
	} else if bottom >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(bottom - m.list.Height + 1)
	}
}

func (m *boardModel) recalcLayout() {
	// Header (1 line) + border top/bottom (2) + notice (1) + status bar (1) = 5 lines overhead.
	w := max(m.width-4, 20)
	h := max(m.height-5, 5)

	if !m.ready {
		m.list = viewport.New(w, h)
		m.detail = viewport.New(w, h)
		m.ready = true
	} else {
		m.list.Width, m.list.Height = w, h
		m.detail.Width, m.detail.Height = w, h
	}
	m.recalcContent()
}

func (m *boardModel) recalcContent() {
	if !m.ready {
		return
	}
	m.list.SetContent(renderApps(m.apps, m.cursor))
	if app, ok := m.selected(); ok {
		m.detail.SetContent(renderDetail(app, max(m.width-8, 20)))
	}
}

func (m boardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var header, body, keys string
	if m.view == viewDetail {
		header = detailTitleStyle.Render("Application")
		body = borderStyle.Width(m.width - 2).Render(m.detail.View())
		keys = " 1-4 set status  o open link  d delete  esc back  ↑/↓ scroll  q quit"
	} else {
		header = headerStyle.Render(fmt.Sprintf("Applications (%d)", len(m.apps)))
		body = borderStyle.Width(m.width - 2).Render(m.list.View())
		keys = " ↑/↓ cursor  enter detail  1 applied  2 interview  3 offer  4 rejected  o open  d delete  q quit"
	}

	notice := noticeStyle.Render(" " + m.notice)
	if m.errMsg != "" {
		notice = errorStyle.Render(" ⚠ " + m.errMsg)
	}
	statusBar := statusBarStyle.Width(m.width).Render(keys)

	return header + "\n" + body + "\n" + notice + "\n" + statusBar
}

func statusBadge(s model.Status) string {
	return lipgloss.NewStyle().Foreground(statusColors[s]).Render(string(s))
}

func renderApps(apps []model.Application, cursor int) string {
	if len(apps) == 0 {
		return "  (no applications yet)"
	}

	var b strings.Builder
	for i, a := range apps {
		posSt, subSt, prefix := positionStyle, subtitleStyle, "  "
		if i == cursor {
			posSt, subSt, prefix = selectedPositionStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(posSt.Render(a.Position))
		b.WriteString("  ")
		b.WriteString(statusBadge(a.Status))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subSt.Render(subtitle(a)))
		b.WriteByte('\n')

		if i < len(apps)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func subtitle(a model.Application) string {
	parts := []string{a.Company}
	if a.Location != "" {
		parts = append(parts, a.Location)
	}
	if !a.Date.IsZero() {
		parts = append(parts, a.Date.Format("2006-01-02"))
	}
	return strings.Join(parts, " · ")
}

func renderDetail(a model.Application, wrapWidth int) string {
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Position", a.Position)
	addField("Company", a.Company)
	addField("Location", a.Location)
	b.WriteString(detailLabelStyle.Render("Status"))
	b.WriteString(statusBadge(a.Status))
	b.WriteByte('\n')
	if !a.Date.IsZero() {
		addField("Applied", a.Date.Local().Format("2006-01-02"))
	}
	if !a.UpdatedAt.IsZero() {
		addField("Updated", a.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	addField("Link", a.Link)
	addField("ID", a.ID)

	if a.Notes != "" {
		b.WriteByte('\n')
		label := "── Notes "
		b.WriteString(dividerStyle.Render(label+strings.Repeat("─", max(wrapWidth-len(label), 3))) + "\n\n")
		b.WriteString(wordWrap(a.Notes, wrapWidth) + "\n")
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the full-screen application board.
func Run(apps []model.Application, backend Backend) error {
	p := tea.NewProgram(newBoardModel(apps, backend), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
