package tui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/roadmap"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func newModel(t *testing.T) Model {
	t.Helper()
	g := conceptgraph.Python()
	rm := roadmap.New(g).Generate(
		map[string]float64{"intro": 1, "variables": 0.5},
		map[string]bool{"intro": true},
	)
	m := New(g, rm, "Python")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func selected(t *testing.T, m Model) string {
	t.Helper()
	e, ok := m.Selected()
	if !ok {
		t.Fatal("nothing selected")
	}
	return e.ID
}

func TestNew_CursorOnRecommendedConcept(t *testing.T) {
	m := newModel(t)
	if got := selected(t, m); got != "variables" {
		t.Errorf("selected = %q, want variables", got)
	}
	if len(m.Visible()) != 12 {
		t.Errorf("visible = %d, want 12", len(m.Visible()))
	}
}

func TestUpdate_Navigation(t *testing.T) {
	m := newModel(t)

	m = press(t, m, specialKey(tea.KeyDown))
	if got := selected(t, m); got != "operations" {
		t.Errorf("after down = %q, want operations", got)
	}
	m = press(t, m, keyPress('k'), keyPress('k'), keyPress('k'))
	if got := selected(t, m); got != "intro" {
		t.Errorf("up past the top = %q, want intro", got)
	}
	m = press(t, m, keyPress('G'))
	if got := selected(t, m); got != "project" {
		t.Errorf("end = %q, want project", got)
	}
	m = press(t, m, keyPress('j'))
	if got := selected(t, m); got != "project" {
		t.Errorf("down past the bottom = %q, want project", got)
	}
}

func TestUpdate_Filter(t *testing.T) {
	m := newModel(t)

	m = press(t, m, keyPress('/'))
	if !m.filter.Focused() {
		t.Fatal("filter not focused after /")
	}
	m = press(t, m, keyPress('l'), keyPress('o'), keyPress('o'), keyPress('p'))
	if got := m.Visible(); len(got) != 1 || got[0] != "loops" {
		t.Fatalf("visible = %v, want [loops]", got)
	}

	// q types into the filter instead of quitting.
	m = press(t, m, keyPress('q'))
	if got := m.Visible(); len(got) != 0 {
		t.Errorf("visible after typing q = %v, want none", got)
	}
	m = press(t, m, specialKey(tea.KeyBackspace), specialKey(tea.KeyEnter))
	if m.filter.Focused() {
		t.Error("enter should apply and blur the filter")
	}
	if got := m.Visible(); len(got) != 1 {
		t.Errorf("filter dropped after enter: %v", got)
	}

	m = press(t, m, specialKey(tea.KeyEscape))
	if got := len(m.Visible()); got != 12 {
		t.Errorf("esc should clear the filter, visible = %d", got)
	}
	if got := selected(t, m); got != "loops" {
		t.Errorf("cursor should stay on loops, got %q", got)
	}
}

func TestUpdate_FilterByStatus(t *testing.T) {
	m := newModel(t)
	m = press(t, m, keyPress('/'))
	for _, r := range "completed" {
		m = press(t, m, keyPress(r))
	}
	if got := m.Visible(); len(got) != 1 || got[0] != "intro" {
		t.Errorf("visible = %v, want [intro]", got)
	}
}

func TestUpdate_DetailToggle(t *testing.T) {
	m := newModel(t)
	m = press(t, m, specialKey(tea.KeyEnter))
	if !m.detail {
		t.Fatal("enter should open the detail pane")
	}
	out := m.render()
	if !strings.Contains(out, "Prerequisites") || !strings.Contains(out, "Unlocks") {
		t.Error("detail pane should list prerequisites and dependents")
	}
	m = press(t, m, specialKey(tea.KeyEscape))
	if m.detail {
		t.Error("esc should close the detail pane")
	}
}

func TestUpdate_Quit(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(keyPress('q'))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestRender(t *testing.T) {
	m := newModel(t)
	out := m.render()
	for _, want := range []string{"ailp", "Python", "1/12", "What is Programming?", "press / to filter"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}

	small := press(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	if !strings.Contains(small.render(), "Terminal too small") {
		t.Error("small terminal should show the resize message")
	}
}
