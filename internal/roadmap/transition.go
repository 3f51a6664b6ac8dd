package roadmap

import (
	"slices"

	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/mastery"
)

// Complete applies one completion event and returns a new roadmap. The input
// is not modified.
//
// The target becomes completed with the final scores, and every locked
// concept whose prerequisites now unlock becomes available. Applying the
// same event twice yields the same roadmap as applying it once. An ID that
// is not on the roadmap changes nothing.
func (e *Engine) Complete(rm Roadmap, id string, finalMastery, finalConfidence float64) Roadmap {
	entries := slices.Clone(rm.Concepts)

	target := -1
	for i := range entries {
		if entries[i].ID == id {
			target = i
			break
		}
	}
	if target < 0 || !e.graph.Has(id) {
		return withAggregates(entries)
	}

	entries[target].Status = conceptgraph.StatusCompleted
	entries[target].MasteryScore = mastery.Clamp(finalMastery)
	entries[target].ConfidenceScore = mastery.Clamp(finalConfidence)

	completed := make(map[string]bool)
	conf := make(mastery.Confidence, len(entries))
	for _, en := range entries {
		if en.Status == conceptgraph.StatusCompleted {
			completed[en.ID] = true
		}
		conf[en.ID] = en.ConfidenceScore
	}
	if e.legacyCompletion {
		conf = mastery.Confidence{}
	}

	for i := range entries {
		if entries[i].Status != conceptgraph.StatusLocked {
			continue
		}
		if e.CanUnlock(entries[i].ID, completed, conf) {
			entries[i].Status = conceptgraph.StatusAvailable
		}
	}

	return withAggregates(entries)
}
