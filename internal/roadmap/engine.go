package roadmap

import (
	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/mastery"
)

// Engine derives and updates roadmaps over one immutable catalog. It holds
// no learner state and is safe for concurrent use.
type Engine struct {
	graph            *conceptgraph.Graph
	thresholds       Thresholds
	legacyCompletion bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds overrides the default gating thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// WithLegacyCompletion makes Complete re-evaluate unlocks against an empty
// confidence map instead of the roadmap's own scores, so concepts that
// depend on a high-confidence but unfinished prerequisite stay locked.
func WithLegacyCompletion(legacy bool) Option {
	return func(e *Engine) { e.legacyCompletion = legacy }
}

// New creates an Engine for g.
func New(g *conceptgraph.Graph, opts ...Option) *Engine {
	e := &Engine{graph: g, thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the engine's catalog.
func (e *Engine) Graph() *conceptgraph.Graph { return e.graph }

// Thresholds returns the engine's thresholds.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// CanUnlock reports whether every prerequisite of id is either completed or
// held with confidence above the unlock threshold. A prerequisite that is
// not completed and sits below the blocking threshold always blocks, which
// only matters when the blocking threshold is tuned above the unlock one. Unknown IDs
// never unlock.
func (e *Engine) CanUnlock(id string, completed map[string]bool, conf mastery.Confidence) bool {
	c, ok := e.graph.Concept(id)
	if !ok {
		return false
	}
	for _, p := range c.Prerequisites {
		if completed[p] {
			continue
		}
		if conf.Get(p) <= e.thresholds.UnlockConfidence {
			return false
		}
		if conf.Get(p) < e.thresholds.BlockingConfidence {
			return false
		}
	}
	return true
}

// Status derives one concept's status. Completion is sticky.
func (e *Engine) Status(id string, completed map[string]bool, conf mastery.Confidence) conceptgraph.Status {
	switch {
	case completed[id]:
		return conceptgraph.StatusCompleted
	case !e.CanUnlock(id, completed, conf):
		return conceptgraph.StatusLocked
	case conf.Get(id) > e.thresholds.InProgressConfidence:
		return conceptgraph.StatusInProgress
	default:
		return conceptgraph.StatusAvailable
	}
}

// Generate derives a full roadmap from a confidence map and completed set.
// Confidence values are clamped; IDs outside the catalog are ignored.
func (e *Engine) Generate(conf map[string]float64, completed map[string]bool) Roadmap {
	norm := mastery.NormalizeConfidence(e.graph, conf)
	entries := make([]Entry, 0, e.graph.Len())
	for _, c := range e.graph.Concepts() {
		cf := norm[c.ID]
		entries = append(entries, Entry{
			ID:              c.ID,
			Title:           c.Title,
			Description:     c.Description,
			Level:           c.Level,
			Status:          e.Status(c.ID, completed, norm),
			MasteryScore:    mastery.FromConfidence(cf, e.thresholds.MasteryRatio),
			ConfidenceScore: cf,
		})
	}
	return withAggregates(entries)
}

// FromProfile derives a roadmap from a learner profile, showing measured
// mastery in place of the confidence-derived estimate.
func (e *Engine) FromProfile(p *mastery.Profile) Roadmap {
	rm := e.Generate(p.Confidence(), p.CompletedIDs())
	for i := range rm.Concepts {
		if r, ok := p.Record(rm.Concepts[i].ID); ok {
			rm.Concepts[i].MasteryScore = r.Mastery
		}
	}
	return rm
}
