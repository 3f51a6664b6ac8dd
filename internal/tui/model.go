// Package tui is a read-only terminal viewer for a learner's roadmap.
package tui

import (
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/roadmap"
	"github.com/abhisek/ailp/internal/ui/components"
)

// Model is the root Bubble Tea model of the roadmap viewer.
type Model struct {
	graph *conceptgraph.Graph
	rm    roadmap.Roadmap
	title string

	rows   []roadmap.Entry // rm.Concepts after filtering
	cursor int
	scroll int

	filter components.TextInput
	detail bool

	width  int
	height int
}

// New creates a viewer over rm. The cursor starts on the recommended
// concept.
func New(g *conceptgraph.Graph, rm roadmap.Roadmap, title string) Model {
	m := Model{
		graph:  g,
		rm:     rm,
		title:  title,
		filter: components.NewTextInput("/ ", "filter by name, level or status", 40),
	}
	m.applyFilter()
	if next := rm.Next(); next != "" {
		m.moveTo(next)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.filter.Focused() {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(len(m.rows)-1, 0)
		case "enter", "d":
			m.detail = !m.detail
		case "/":
			cmd := m.filter.Focus()
			return m, cmd
		case "esc":
			switch {
			case m.detail:
				m.detail = false
			case m.filter.Value() != "":
				m.filter.Reset()
				m.applyFilter()
			}
		}
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filter.Blur()
		return m, nil
	case "esc":
		m.filter.Reset()
		m.filter.Blur()
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// applyFilter recomputes the visible rows, keeping the cursor on the same
// concept when it is still visible.
func (m *Model) applyFilter() {
	current := m.selectedID()
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))

	m.rows = make([]roadmap.Entry, 0, len(m.rm.Concepts))
	for _, e := range m.rm.Concepts {
		if q == "" || matches(e, q) {
			m.rows = append(m.rows, e)
		}
	}
	m.cursor, m.scroll = 0, 0
	if current != "" {
		m.moveTo(current)
	}
}

func matches(e roadmap.Entry, q string) bool {
	for _, field := range []string{e.ID, e.Title, string(e.Level), string(e.Status), e.Status.Label()} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (m *Model) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.rows)-1)
}

func (m *Model) moveTo(id string) {
	for i, e := range m.rows {
		if e.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) selectedID() string {
	if m.cursor < len(m.rows) {
		return m.rows[m.cursor].ID
	}
	return ""
}

// Selected returns the entry under the cursor.
func (m Model) Selected() (roadmap.Entry, bool) {
	if m.cursor < len(m.rows) {
		return m.rows[m.cursor], true
	}
	return roadmap.Entry{}, false
}

// Visible returns the IDs of the rows that pass the filter.
func (m Model) Visible() []string {
	out := make([]string, len(m.rows))
	for i, e := range m.rows {
		out[i] = e.ID
	}
	return out
}

// Run starts the viewer and blocks until the user quits.
func Run(g *conceptgraph.Graph, rm roadmap.Roadmap, title string) error {
	p := tea.NewProgram(New(g, rm, title))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
