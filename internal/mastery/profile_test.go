package mastery

import (
	"math"
	"testing"
	"time"

	"github.com/abhisek/ailp/internal/conceptgraph"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestProfile(records ...Record) *Profile {
	return NewProfile(conceptgraph.Python(), "p1", "u1", records)
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{3.2, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeConfidence(t *testing.T) {
	g := conceptgraph.Python()
	got := NormalizeConfidence(g, map[string]float64{
		"intro":        1.4,
		"variables":    -2,
		"operations":   0.5,
		"hallucinated": 0.9,
	})
	if len(got) != g.Len() {
		t.Fatalf("got %d entries, want %d", len(got), g.Len())
	}
	if got["intro"] != 1 || got["variables"] != 0 || got["operations"] != 0.5 {
		t.Errorf("unexpected values: %v", got)
	}
	if _, ok := got["hallucinated"]; ok {
		t.Error("unknown concept should be dropped")
	}
	if got["project"] != 0 {
		t.Errorf("missing concept should default to 0, got %v", got["project"])
	}
}

func TestFromConfidence(t *testing.T) {
	if got := FromConfidence(0.5, DefaultMasteryRatio); math.Abs(got-0.35) > 1e-9 {
		t.Errorf("FromConfidence(0.5) = %v, want 0.35", got)
	}
	if got := FromConfidence(2, DefaultMasteryRatio); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("FromConfidence(2) = %v, want 0.7", got)
	}
}

func TestProfile_LazyDefaults(t *testing.T) {
	p := newTestProfile()

	r, ok := p.Record("intro")
	if !ok {
		t.Fatal("intro should exist")
	}
	if r.Status != conceptgraph.StatusAvailable {
		t.Errorf("root default status = %q, want available", r.Status)
	}

	r, _ = p.Record("loops")
	if r.Status != conceptgraph.StatusLocked {
		t.Errorf("non-root default status = %q, want locked", r.Status)
	}

	if _, ok := p.Record("ghost"); ok {
		t.Error("unknown concept should not get a record")
	}
	if len(p.Dirty()) != 2 {
		t.Errorf("lazily created records should be dirty, got %d", len(p.Dirty()))
	}
}

func TestProfile_IgnoresForeignRecords(t *testing.T) {
	p := newTestProfile(
		Record{ConceptID: "ghost", Status: conceptgraph.StatusCompleted},
		Record{ConceptID: "intro", Status: "bogus", Confidence: 7},
	)
	if p.CompletedIDs()["ghost"] {
		t.Error("foreign record should be ignored")
	}
	r, _ := p.Record("intro")
	if r.Status != conceptgraph.StatusLocked || r.Confidence != 1 {
		t.Errorf("got status=%q confidence=%v", r.Status, r.Confidence)
	}
}

func TestProfile_Complete(t *testing.T) {
	p := newTestProfile()

	tr, ok := p.Complete("intro", 0.9, 1.2, now)
	if !ok || tr == nil {
		t.Fatalf("Complete(intro) = %v, %v", tr, ok)
	}
	if tr.From != conceptgraph.StatusAvailable || tr.To != conceptgraph.StatusCompleted {
		t.Errorf("transition = %+v", tr)
	}
	if tr.Title != "What is Programming?" {
		t.Errorf("title = %q", tr.Title)
	}

	r, _ := p.Record("intro")
	if r.Confidence != 1 || r.Mastery != 0.9 {
		t.Errorf("scores = %v/%v", r.Mastery, r.Confidence)
	}
	if r.CompletedAt == nil || !r.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v", r.CompletedAt)
	}

	later := now.Add(time.Hour)
	tr, ok = p.Complete("intro", 1, 1, later)
	if !ok || tr != nil {
		t.Errorf("second completion should be a no-op transition, got %v, %v", tr, ok)
	}
	r, _ = p.Record("intro")
	if !r.CompletedAt.Equal(now) {
		t.Error("CompletedAt should keep the first completion time")
	}

	if _, ok := p.Complete("ghost", 1, 1, now); ok {
		t.Error("unknown concept should report false")
	}
}

func TestProfile_SetStatusNeverRevertsCompleted(t *testing.T) {
	p := newTestProfile()
	p.Complete("intro", 1, 1, now)

	if tr := p.SetStatus("intro", conceptgraph.StatusLocked); tr != nil {
		t.Errorf("SetStatus on completed returned %+v", tr)
	}
	if tr := p.SetStatus("variables", conceptgraph.StatusCompleted); tr != nil {
		t.Error("SetStatus must not complete a concept")
	}

	tr := p.SetStatus("variables", conceptgraph.StatusAvailable)
	if tr == nil || tr.From != conceptgraph.StatusLocked {
		t.Fatalf("SetStatus(variables) = %+v", tr)
	}
	if tr := p.SetStatus("variables", conceptgraph.StatusAvailable); tr != nil {
		t.Error("unchanged status should not produce a transition")
	}
}

func TestProfile_Seed(t *testing.T) {
	p := newTestProfile()
	conf := Confidence{"intro": 0.9, "variables": 0.8, "operations": 0.4}
	trs := p.Seed(conf, []string{"intro", "variables"}, DefaultMasteryRatio, now)

	if len(trs) != 2 {
		t.Fatalf("got %d transitions, want 2", len(trs))
	}
	completed := p.CompletedIDs()
	if !completed["intro"] || !completed["variables"] || completed["operations"] {
		t.Errorf("completed = %v", completed)
	}
	r, _ := p.Record("operations")
	if math.Abs(r.Mastery-0.28) > 1e-9 {
		t.Errorf("operations mastery = %v, want 0.28", r.Mastery)
	}
	if got := p.Confidence()["operations"]; got != 0.4 {
		t.Errorf("confidence = %v", got)
	}
	if got := p.Confidence()["variables"]; got != 1 {
		t.Errorf("placed concept confidence = %v, want 1", got)
	}

	// Reseeding does not touch completed concepts.
	p.Seed(Confidence{}, nil, DefaultMasteryRatio, now)
	if !p.CompletedIDs()["intro"] {
		t.Error("seed reverted a completed concept")
	}
}

func TestProfile_RecordAttempt(t *testing.T) {
	p := newTestProfile()
	r, ok := p.RecordAttempt("variables", []float64{0.4, 0.8}, now)
	if !ok {
		t.Fatal("RecordAttempt failed")
	}
	if r.Attempts != 1 {
		t.Errorf("attempts = %d", r.Attempts)
	}
	if math.Abs(r.Mastery-0.6) > 1e-9 {
		t.Errorf("mastery = %v, want 0.6", r.Mastery)
	}
	if _, ok := p.RecordAttempt("ghost", nil, now); ok {
		t.Error("unknown concept should report false")
	}
}

func TestProfile_RecordsInCatalogOrder(t *testing.T) {
	p := newTestProfile()
	recs := p.Records()
	ids := conceptgraph.Python().IDs()
	if len(recs) != len(ids) {
		t.Fatalf("got %d records", len(recs))
	}
	for i := range recs {
		if recs[i].ConceptID != ids[i] {
			t.Errorf("record %d = %q, want %q", i, recs[i].ConceptID, ids[i])
		}
	}
	p.ClearDirty()
	if len(p.Dirty()) != 0 {
		t.Error("ClearDirty should empty the dirty set")
	}
}

func TestProfile_ApplyStatuses(t *testing.T) {
	p := newTestProfile(Record{ConceptID: "intro", Status: conceptgraph.StatusCompleted, Mastery: 1, Confidence: 1})
	got := p.ApplyStatuses(map[string]conceptgraph.Status{
		"intro":     conceptgraph.StatusAvailable,
		"variables": conceptgraph.StatusAvailable,
		"ghost":     conceptgraph.StatusAvailable,
	})
	if len(got) != 1 || got[0].ConceptID != "variables" {
		t.Fatalf("transitions = %+v, want one for variables", got)
	}
	if got[0].From != conceptgraph.StatusLocked || got[0].Trigger != TriggerDerivation {
		t.Errorf("transition = %+v", got[0])
	}
	if r, _ := p.Record("intro"); !r.IsCompleted() {
		t.Error("completed record was reverted")
	}
}
