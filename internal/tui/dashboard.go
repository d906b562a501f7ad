// Package tui implements the live session dashboard: every seance session,
// its backend, kind, and freshly detected state, refreshed on a timer.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/groblegark/seance/internal/style"
)

// Row is one session line in the dashboard.
type Row struct {
	Name     string
	Tool     string
	Kind     string
	State    string
	Attached bool
}

// Lister produces the current rows; the CLI wires it to the session
// manager plus a state probe per session.
type Lister func() ([]Row, error)

// DefaultRefresh is the dashboard's refresh cadence.
const DefaultRefresh = 2 * time.Second

type tickMsg time.Time

type rowsMsg struct {
	rows []Row
	err  error
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	list     Lister
	refresh  time.Duration
	table    table.Model
	lastErr  error
	quitting bool
}

// New creates a dashboard model.
func New(list Lister, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	columns := []table.Column{
		{Title: "SESSION", Width: 44},
		{Title: "TOOL", Width: 8},
		{Title: "KIND", Width: 11},
		{Title: "STATE", Width: 14},
		{Title: "ATTACHED", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	s.Selected = s.Selected.Bold(true)
	t.SetStyles(s)
	return Model{list: list, refresh: refresh, table: t}
}

// Init starts the first load and the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) load() tea.Msg {
	rows, err := m.list()
	return rowsMsg{rows: rows, err: err}
}

// Update handles refresh ticks, loaded rows, and keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.load
		}

	case tickMsg:
		return m, tea.Batch(m.load, m.tick())

	case rowsMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.table.SetRows(toTableRows(msg.rows))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	out := style.Title.Render("seance sessions") + "\n\n" + m.table.View() + "\n"
	if m.lastErr != nil {
		out += style.Error.Render("error: "+m.lastErr.Error()) + "\n"
	}
	out += style.Muted.Render("r refresh · q quit")
	return out
}

func toTableRows(rows []Row) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		attached := ""
		if r.Attached {
			attached = "yes"
		}
		out = append(out, table.Row{
			r.Name,
			r.Tool,
			r.Kind,
			style.State(r.State).Render(r.State),
			attached,
		})
	}
	return out
}
