package roadmap

import (
	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/mastery"
)

// Reconcile turns a client-supplied list of entries into a fully populated
// roadmap in catalog order. Unknown IDs and duplicates are dropped, scores
// are clamped, catalog metadata replaces whatever the client sent, and
// concepts that are missing or carry an unrecognized status get a derived
// status from the remaining data.
func (e *Engine) Reconcile(entries []Entry) Roadmap {
	given := make(map[string]Entry, len(entries))
	conf := make(mastery.Confidence)
	completed := make(map[string]bool)
	for _, en := range entries {
		if !e.graph.Has(en.ID) {
			continue
		}
		if _, dup := given[en.ID]; dup {
			continue
		}
		en.MasteryScore = mastery.Clamp(en.MasteryScore)
		en.ConfidenceScore = mastery.Clamp(en.ConfidenceScore)
		given[en.ID] = en
		conf[en.ID] = en.ConfidenceScore
		if en.Status == conceptgraph.StatusCompleted {
			completed[en.ID] = true
		}
	}

	out := make([]Entry, 0, e.graph.Len())
	for _, c := range e.graph.Concepts() {
		en, ok := given[c.ID]
		if !ok {
			cf := conf.Get(c.ID)
			en = Entry{
				MasteryScore:    mastery.FromConfidence(cf, e.thresholds.MasteryRatio),
				ConfidenceScore: cf,
			}
		}
		if _, valid := conceptgraph.ParseStatus(string(en.Status)); !ok || !valid {
			en.Status = e.Status(c.ID, completed, conf)
		}
		en.ID = c.ID
		en.Title = c.Title
		en.Description = c.Description
		en.Level = c.Level
		out = append(out, en)
	}
	return withAggregates(out)
}
