package roadmap

import (
	"math"

	"github.com/abhisek/ailp/internal/conceptgraph"
)

// Entry is one concept's row in a learner's roadmap.
type Entry struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Level           conceptgraph.Level  `json:"level"`
	Status          conceptgraph.Status `json:"status"`
	MasteryScore    float64             `json:"masteryScore"`
	ConfidenceScore float64             `json:"confidenceScore"`
}

// Roadmap is the derived per-learner view of every concept, in catalog order.
type Roadmap struct {
	Concepts               []Entry `json:"concepts"`
	OverallProgress        float64 `json:"overallProgress"`
	NextRecommendedConcept *string `json:"nextRecommendedConcept"`
}

// Progress summarizes completion for API responses.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// Progress returns the completed count, total, and rounded percentage.
func (r Roadmap) Progress() Progress {
	return Progress{
		Completed: r.completedCount(),
		Total:     len(r.Concepts),
		Percent:   int(math.Round(r.OverallProgress)),
	}
}

// Entry returns the row for id.
func (r Roadmap) Entry(id string) (Entry, bool) {
	for _, e := range r.Concepts {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Next returns the recommended concept ID, or "" when none is open.
func (r Roadmap) Next() string {
	if r.NextRecommendedConcept == nil {
		return ""
	}
	return *r.NextRecommendedConcept
}

// CompletedIDs returns the set of completed concept IDs.
func (r Roadmap) CompletedIDs() map[string]bool {
	out := make(map[string]bool)
	for _, e := range r.Concepts {
		if e.Status == conceptgraph.StatusCompleted {
			out[e.ID] = true
		}
	}
	return out
}

func (r Roadmap) completedCount() int {
	n := 0
	for _, e := range r.Concepts {
		if e.Status == conceptgraph.StatusCompleted {
			n++
		}
	}
	return n
}

// withAggregates recomputes OverallProgress and NextRecommendedConcept.
func withAggregates(entries []Entry) Roadmap {
	rm := Roadmap{Concepts: entries}
	if len(entries) > 0 {
		rm.OverallProgress = 100 * float64(rm.completedCount()) / float64(len(entries))
	}
	for _, e := range entries {
		if e.Status.Open() {
			id := e.ID
			rm.NextRecommendedConcept = &id
			break
		}
	}
	return rm
}
