package roadmap

import (
	"testing"

	"github.com/abhisek/ailp/internal/conceptgraph"
)

func TestReconcile_FillsMissingAndDropsUnknown(t *testing.T) {
	e := New(conceptgraph.Python())
	rm := e.Reconcile([]Entry{
		{ID: "variables", Status: conceptgraph.StatusCompleted, ConfidenceScore: 1, MasteryScore: 1},
		{ID: "intro", Title: "spoofed", Status: conceptgraph.StatusCompleted, ConfidenceScore: 3},
		{ID: "ghost", Status: conceptgraph.StatusCompleted},
		{ID: "intro", Status: conceptgraph.StatusLocked},
	})

	if len(rm.Concepts) != 12 {
		t.Fatalf("got %d entries, want 12", len(rm.Concepts))
	}
	if rm.Concepts[0].ID != "intro" || rm.Concepts[1].ID != "variables" {
		t.Errorf("catalog order not restored: %s, %s", rm.Concepts[0].ID, rm.Concepts[1].ID)
	}
	if rm.Concepts[0].Title != "What is Programming?" {
		t.Errorf("title = %q, want catalog title", rm.Concepts[0].Title)
	}
	if rm.Concepts[0].Status != conceptgraph.StatusCompleted {
		t.Error("the first duplicate should win")
	}
	if rm.Concepts[0].ConfidenceScore != 1 {
		t.Errorf("confidence not clamped: %v", rm.Concepts[0].ConfidenceScore)
	}
	if _, ok := rm.Entry("ghost"); ok {
		t.Error("unknown concept kept")
	}
	if got := statusOf(t, rm, "operations"); got != conceptgraph.StatusAvailable {
		t.Errorf("derived operations = %q, want available", got)
	}
	if got := statusOf(t, rm, "conditionals"); got != conceptgraph.StatusLocked {
		t.Errorf("derived conditionals = %q, want locked", got)
	}
	if rm.Progress().Completed != 2 {
		t.Errorf("completed = %d, want 2", rm.Progress().Completed)
	}
}

func TestReconcile_InvalidStatusIsDerived(t *testing.T) {
	e := New(conceptgraph.Python())
	rm := e.Reconcile([]Entry{{ID: "intro", Status: "done"}})
	if got := statusOf(t, rm, "intro"); got != conceptgraph.StatusAvailable {
		t.Errorf("intro = %q, want available", got)
	}
}

func TestReconcile_EmptyInputMatchesGenerate(t *testing.T) {
	e := New(conceptgraph.Python())
	got := e.Reconcile(nil)
	want := e.Generate(nil, nil)
	for i := range want.Concepts {
		if got.Concepts[i] != want.Concepts[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got.Concepts[i], want.Concepts[i])
		}
	}
	if got.Next() != want.Next() {
		t.Errorf("next = %q, want %q", got.Next(), want.Next())
	}
}
