package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ailp/internal/roadmap"
	"github.com/abhisek/ailp/internal/ui/components"
	"github.com/abhisek/ailp/internal/ui/layout"
	"github.com/abhisek/ailp/internal/ui/theme"
)

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the whole frame at the current size.
func (m Model) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	p := m.rm.Progress()
	header := layout.RenderHeader(m.title, p.Completed, p.Total, m.width)
	footer := layout.RenderFooter(m.keyHints(), m.width)
	height := layout.ContentHeight(m.height, header, footer)

	var content string
	switch {
	case m.detail && layout.SideBySide(m.width):
		listWidth := m.width / 2
		content = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderList(listWidth, height),
			m.renderDetail(m.width-listWidth, height))
	case m.detail:
		content = m.renderDetail(m.width, height)
	default:
		content = m.renderList(m.width, height)
	}
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m Model) keyHints() []layout.KeyHint {
	if m.filter.Focused() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Apply"},
			{Key: "Esc", Description: "Clear"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Details"},
		{Key: "/", Description: "Filter"},
	}
	if m.detail || m.filter.Value() != "" {
		hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}
	return append(hints, layout.KeyHint{Key: "q", Description: "Quit"})
}

// renderList draws the progress bar, the filter line and the visible rows.
func (m *Model) renderList(width, height int) string {
	p := m.rm.Progress()
	lines := []string{
		"  " + components.NewProgressBar("Progress", m.rm.OverallProgress/100, true, width-4).View(),
		"  " + m.filterLine(),
		"",
	}

	rowsHeight := max(height-len(lines), 1)
	m.adjustScroll(rowsHeight)

	if len(m.rows) == 0 {
		lines = append(lines, theme.Hint.Render(fmt.Sprintf("  No concepts match. %d of %d completed.", p.Completed, p.Total)))
	}
	for i := m.scroll; i < len(m.rows) && i < m.scroll+rowsHeight; i++ {
		lines = append(lines, m.renderRow(m.rows[i], i == m.cursor, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) filterLine() string {
	if m.filter.Focused() || m.filter.Value() != "" {
		return m.filter.View()
	}
	return theme.Hint.Render("press / to filter")
}

func (m *Model) adjustScroll(height int) {
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+height {
		m.scroll = m.cursor - height + 1
	}
}

func (m Model) renderRow(e roadmap.Entry, selected bool, width int) string {
	const (
		indent     = 4
		iconWidth  = 3
		levelWidth = 13
		labelWidth = 12
		confWidth  = 5
	)
	nameWidth := max(width-indent-iconWidth-levelWidth-labelWidth-confWidth-4, 10)

	name := e.Title
	if lipgloss.Width(name) > nameWidth {
		name = string([]rune(name)[:nameWidth-1]) + "…"
	}

	nameStyle := theme.Status(string(e.Status))
	cursor := "  "
	if selected {
		nameStyle = theme.Selected
		cursor = "▸ "
	}

	return fmt.Sprintf("  %s%s %s %s %s %s",
		cursor,
		e.Status.Icon(),
		nameStyle.Render(fmt.Sprintf("%-*s", nameWidth, name)),
		theme.Dim.Render(fmt.Sprintf("%-*s", levelWidth, e.Level.Label())),
		theme.Status(string(e.Status)).Render(fmt.Sprintf("%*s", labelWidth, e.Status.Label())),
		theme.Dim.Render(fmt.Sprintf("%3.0f%%", e.ConfidenceScore*100)),
	)
}

func (m Model) renderDetail(width, height int) string {
	e, ok := m.Selected()
	if !ok {
		return theme.Hint.Render("  Nothing selected.")
	}
	c, _ := m.graph.Concept(e.ID)
	contentWidth := min(max(width-6, 20), 70)

	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("%s  %s", e.Status.Icon(), e.Title)))
	b.WriteString("\n")
	b.WriteString(theme.Status(string(e.Status)).Render(e.Status.Label()))
	b.WriteString("\n\n")

	if e.Description != "" {
		b.WriteString(theme.Body.Width(contentWidth).Render(e.Description))
		b.WriteString("\n\n")
	}

	field := func(label, value string) {
		b.WriteString(theme.Dim.Render(fmt.Sprintf("%-12s", label)) + theme.Body.Render(value) + "\n")
	}
	field("Level", e.Level.Label())
	field("Difficulty", strings.Repeat("●", c.Difficulty)+strings.Repeat("○", max(5-c.Difficulty, 0)))
	if c.EstimatedMins > 0 {
		field("Time", fmt.Sprintf("%d min", c.EstimatedMins))
	}
	field("Mastery", fmt.Sprintf("%.0f%%", e.MasteryScore*100))
	field("Confidence", fmt.Sprintf("%.0f%%", e.ConfidenceScore*100))
	b.WriteString("\n")

	if len(c.Prerequisites) > 0 {
		b.WriteString(theme.Section.Render("Prerequisites") + "\n")
		for _, id := range c.Prerequisites {
			pe, _ := m.rm.Entry(id)
			b.WriteString(theme.Status(string(pe.Status)).Render(fmt.Sprintf("%s %s", pe.Status.Icon(), pe.Title)) + "\n")
		}
		b.WriteString("\n")
	}
	if deps := m.graph.Dependents(e.ID); len(deps) > 0 {
		b.WriteString(theme.Section.Render("Unlocks") + "\n")
		for _, d := range deps {
			b.WriteString(theme.Dim.Render("→ "+d.Title) + "\n")
		}
	}

	card := theme.Card.Width(width - 2).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, card)
}
