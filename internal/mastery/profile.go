package mastery

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/abhisek/ailp/internal/conceptgraph"
)

// Profile is one learner's progress through one subject catalog. It owns
// its records exclusively and is not safe for concurrent use; callers
// serialize access per learner.
type Profile struct {
	ID        string
	LearnerID string
	Subject   string

	graph   *conceptgraph.Graph
	records map[string]*Record
	dirty   map[string]bool
}

// NewProfile builds a profile from stored records. Records for concepts
// outside the catalog are ignored and scores are clamped.
func NewProfile(g *conceptgraph.Graph, id, learnerID string, records []Record) *Profile {
	p := &Profile{
		ID:        id,
		LearnerID: learnerID,
		Subject:   g.Subject(),
		graph:     g,
		records:   make(map[string]*Record, g.Len()),
		dirty:     make(map[string]bool),
	}
	for _, r := range records {
		if !g.Has(r.ConceptID) {
			continue
		}
		r.Mastery = Clamp(r.Mastery)
		r.Confidence = Clamp(r.Confidence)
		if _, ok := conceptgraph.ParseStatus(string(r.Status)); !ok {
			r.Status = conceptgraph.StatusLocked
		}
		p.records[r.ConceptID] = &r
	}
	return p
}

// Graph returns the catalog the profile is bound to.
func (p *Profile) Graph() *conceptgraph.Graph {
	return p.graph
}

// Record returns the record for id, creating a default one on first use:
// available for roots, locked otherwise. Unknown IDs report false.
func (p *Profile) Record(id string) (*Record, bool) {
	if r, ok := p.records[id]; ok {
		return r, true
	}
	c, ok := p.graph.Concept(id)
	if !ok {
		return nil, false
	}
	r := &Record{ConceptID: id, Status: conceptgraph.StatusLocked}
	if c.IsRoot() {
		r.Status = conceptgraph.StatusAvailable
	}
	p.records[id] = r
	p.dirty[id] = true
	return r, true
}

// Records returns a copy of every record in catalog order.
func (p *Profile) Records() []Record {
	out := make([]Record, 0, p.graph.Len())
	for _, id := range p.graph.IDs() {
		r, _ := p.Record(id)
		out = append(out, *r)
	}
	return out
}

// CompletedIDs returns the set of completed concept IDs.
func (p *Profile) CompletedIDs() map[string]bool {
	out := make(map[string]bool)
	for id, r := range p.records {
		if r.IsCompleted() {
			out[id] = true
		}
	}
	return out
}

// Confidence returns the learner's confidence for every catalog concept.
func (p *Profile) Confidence() Confidence {
	out := make(Confidence, p.graph.Len())
	for _, id := range p.graph.IDs() {
		if r, ok := p.records[id]; ok {
			out[id] = r.Confidence
		} else {
			out[id] = 0
		}
	}
	return out
}

// Seed initializes scores from an assessment. Concepts in completed are
// marked completed with full scores; everything else takes the assessed
// confidence and keeps its status for the roadmap engine to derive.
// Completed records are never reverted.
func (p *Profile) Seed(conf Confidence, completed []string, ratio float64, now time.Time) []Transition {
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}

	var transitions []Transition
	for _, c := range p.graph.Concepts() {
		r, _ := p.Record(c.ID)
		if r.IsCompleted() {
			continue
		}
		r.Confidence = Clamp(conf.Get(c.ID))
		r.Mastery = FromConfidence(r.Confidence, ratio)
		p.dirty[c.ID] = true

		if done[c.ID] {
			from := r.Status
			r.Mastery, r.Confidence = 1, 1
			r.Status = conceptgraph.StatusCompleted
			r.CompletedAt = &now
			transitions = append(transitions, Transition{
				ConceptID: c.ID,
				Title:     c.Title,
				From:      from,
				To:        conceptgraph.StatusCompleted,
				Trigger:   TriggerAssessment,
			})
		}
	}
	return transitions
}

// SetStatus applies a derived status. Completed records and unknown IDs are
// left alone, and completion is only reachable through Complete.
func (p *Profile) SetStatus(id string, status conceptgraph.Status) *Transition {
	if status == conceptgraph.StatusCompleted {
		return nil
	}
	r, ok := p.Record(id)
	if !ok || r.IsCompleted() || r.Status == status {
		return nil
	}
	from := r.Status
	r.Status = status
	p.dirty[id] = true
	return &Transition{
		ConceptID: id,
		Title:     p.title(id),
		From:      from,
		To:        status,
		Trigger:   TriggerDerivation,
	}
}

// ApplyStatuses persists a set of derived statuses, typically a roadmap's,
// and returns the transitions in catalog order.
func (p *Profile) ApplyStatuses(statuses map[string]conceptgraph.Status) []Transition {
	var out []Transition
	for _, id := range p.graph.IDs() {
		st, ok := statuses[id]
		if !ok {
			continue
		}
		if t := p.SetStatus(id, st); t != nil {
			out = append(out, *t)
		}
	}
	return out
}

// Complete marks id completed with the given final scores. The returned
// transition is nil when the concept was already completed. The bool is
// false for unknown IDs.
func (p *Profile) Complete(id string, mastery, confidence float64, now time.Time) (*Transition, bool) {
	r, ok := p.Record(id)
	if !ok {
		return nil, false
	}
	r.Mastery = Clamp(mastery)
	r.Confidence = Clamp(confidence)
	r.LastAttemptedAt = &now
	p.dirty[id] = true

	if r.IsCompleted() {
		return nil, true
	}
	from := r.Status
	r.Status = conceptgraph.StatusCompleted
	r.CompletedAt = &now
	return &Transition{
		ConceptID: id,
		Title:     p.title(id),
		From:      from,
		To:        conceptgraph.StatusCompleted,
		Trigger:   TriggerCompletion,
	}, true
}

// RecordAttempt counts a checkpoint interaction and sets mastery to the mean
// of the concept's checkpoint understanding scores.
func (p *Profile) RecordAttempt(id string, scores []float64, now time.Time) (*Record, bool) {
	r, ok := p.Record(id)
	if !ok {
		return nil, false
	}
	r.Attempts++
	r.LastAttemptedAt = &now
	if len(scores) > 0 && !r.IsCompleted() {
		if mean, err := stats.Mean(scores); err == nil {
			r.Mastery = Clamp(mean)
		}
	}
	p.dirty[id] = true
	return r, true
}

// Dirty returns the records changed since the last ClearDirty, in catalog order.
func (p *Profile) Dirty() []Record {
	var out []Record
	for _, id := range p.graph.IDs() {
		if p.dirty[id] {
			out = append(out, *p.records[id])
		}
	}
	return out
}

// ClearDirty forgets pending changes, typically after they were persisted.
func (p *Profile) ClearDirty() {
	p.dirty = make(map[string]bool)
}

func (p *Profile) title(id string) string {
	if c, ok := p.graph.Concept(id); ok {
		return c.Title
	}
	return id
}
