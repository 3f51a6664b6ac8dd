package roadmap

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/abhisek/ailp/internal/conceptgraph"
)

func diamondEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	g, err := conceptgraph.New([]conceptgraph.Concept{
		{ID: "a", Title: "A", Level: conceptgraph.LevelBeginner, Difficulty: 1},
		{ID: "b", Title: "B", Level: conceptgraph.LevelBeginner, Difficulty: 1, Prerequisites: []string{"a"}},
		{ID: "c", Title: "C", Level: conceptgraph.LevelBeginner, Difficulty: 2, Prerequisites: []string{"a"}},
		{ID: "d", Title: "D", Level: conceptgraph.LevelIntermediate, Difficulty: 3, Prerequisites: []string{"b", "c"}},
	})
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return New(g, opts...)
}

func TestComplete_UnlocksDependent(t *testing.T) {
	e := twoConceptEngine(t)
	before := e.Generate(nil, nil)
	if got := statusOf(t, before, "variables"); got != conceptgraph.StatusLocked {
		t.Fatalf("precondition: variables = %q", got)
	}

	after := e.Complete(before, "intro", 0.9, 1)

	if got := statusOf(t, after, "intro"); got != conceptgraph.StatusCompleted {
		t.Errorf("intro = %q, want completed", got)
	}
	if got := statusOf(t, after, "variables"); got != conceptgraph.StatusAvailable {
		t.Errorf("variables = %q, want available", got)
	}
	if d := after.OverallProgress - before.OverallProgress; math.Abs(d-50) > 1e-9 {
		t.Errorf("progress increased by %v, want 50", d)
	}
	if after.Next() != "variables" {
		t.Errorf("next = %q, want variables", after.Next())
	}
	intro, _ := after.Entry("intro")
	if intro.MasteryScore != 0.9 || intro.ConfidenceScore != 1 {
		t.Errorf("final scores = %v/%v", intro.MasteryScore, intro.ConfidenceScore)
	}
}

func TestComplete_DoesNotMutateInput(t *testing.T) {
	e := twoConceptEngine(t)
	before := e.Generate(nil, nil)
	snapshot := e.Generate(nil, nil)
	e.Complete(before, "intro", 1, 1)
	if !reflect.DeepEqual(before, snapshot) {
		t.Error("Complete mutated its input roadmap")
	}
}

func TestComplete_Idempotent(t *testing.T) {
	e := New(conceptgraph.Python())
	ids := e.Graph().IDs()
	r := rand.New(rand.NewPCG(42, 99))

	for range 200 {
		conf, completed := randomInputs(r, ids)
		rm := e.Generate(conf, completed)
		id := ids[r.IntN(len(ids))]
		fm, fc := r.Float64(), r.Float64()

		once := e.Complete(rm, id, fm, fc)
		twice := e.Complete(once, id, fm, fc)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("completing %q twice changed the roadmap", id)
		}
	}
}

func TestComplete_ProgressMonotonic(t *testing.T) {
	e := New(conceptgraph.Python())
	ids := e.Graph().IDs()
	r := rand.New(rand.NewPCG(1, 2))

	for range 200 {
		conf, completed := randomInputs(r, ids)
		rm := e.Generate(conf, completed)
		for range 5 {
			next := e.Complete(rm, ids[r.IntN(len(ids))], r.Float64(), r.Float64())
			if next.OverallProgress < rm.OverallProgress {
				t.Fatalf("progress decreased: %v -> %v", rm.OverallProgress, next.OverallProgress)
			}
			rm = next
		}
	}
}

func TestComplete_UnknownIDIsNoOp(t *testing.T) {
	e := twoConceptEngine(t)
	rm := e.Generate(map[string]float64{"intro": 0.5}, nil)
	got := e.Complete(rm, "ghost", 1, 1)
	if !reflect.DeepEqual(got, rm) {
		t.Error("unknown concept changed the roadmap")
	}
}

func TestComplete_ClampsFinalScores(t *testing.T) {
	e := twoConceptEngine(t)
	rm := e.Complete(e.Generate(nil, nil), "intro", 4, -1)
	intro, _ := rm.Entry("intro")
	if intro.MasteryScore != 1 || intro.ConfidenceScore != 0 {
		t.Errorf("scores = %v/%v, want 1/0", intro.MasteryScore, intro.ConfidenceScore)
	}
	// A completed prerequisite unlocks regardless of its confidence.
	if got := statusOf(t, rm, "variables"); got != conceptgraph.StatusAvailable {
		t.Errorf("variables = %q, want available", got)
	}
}

// Completion threads the roadmap's live confidence by default. The legacy
// option evaluates unlocks against an empty map, so d stays locked even
// though its unfinished prerequisite c is held with 0.8 confidence.
func TestComplete_LiveConfidenceVersusLegacy(t *testing.T) {
	conf := map[string]float64{"a": 1, "c": 0.8}
	completed := map[string]bool{"a": true}

	live := diamondEngine(t)
	rm := live.Generate(conf, completed)
	if got := statusOf(t, rm, "d"); got != conceptgraph.StatusLocked {
		t.Fatalf("precondition: d = %q", got)
	}
	rm = live.Complete(rm, "b", 1, 1)
	if got := statusOf(t, rm, "d"); got != conceptgraph.StatusAvailable {
		t.Errorf("live: d = %q, want available", got)
	}

	legacy := diamondEngine(t, WithLegacyCompletion(true))
	rm = legacy.Generate(conf, completed)
	rm = legacy.Complete(rm, "b", 1, 1)
	if got := statusOf(t, rm, "d"); got != conceptgraph.StatusLocked {
		t.Errorf("legacy: d = %q, want locked", got)
	}
}

func TestComplete_UnlockedConceptBecomesAvailable(t *testing.T) {
	// Even with confidence above the in-progress threshold a freshly
	// unlocked concept starts as available.
	e := twoConceptEngine(t)
	rm := e.Generate(map[string]float64{"variables": 0.6}, nil)
	rm = e.Complete(rm, "intro", 1, 1)
	if got := statusOf(t, rm, "variables"); got != conceptgraph.StatusAvailable {
		t.Errorf("variables = %q, want available", got)
	}
}

func TestComplete_NextAfterFinalConcept(t *testing.T) {
	e := twoConceptEngine(t)
	rm := e.Generate(nil, map[string]bool{"intro": true})
	rm = e.Complete(rm, "variables", 1, 1)
	if rm.NextRecommendedConcept != nil {
		t.Errorf("next = %q, want nil", rm.Next())
	}
	if rm.Progress().Percent != 100 {
		t.Errorf("percent = %d", rm.Progress().Percent)
	}
}
