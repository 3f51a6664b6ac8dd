package mastery

import (
	"time"

	"github.com/abhisek/ailp/internal/conceptgraph"
)

// Record holds one learner's progress on one concept.
type Record struct {
	ConceptID       string
	Mastery         float64
	Confidence      float64
	Status          conceptgraph.Status
	Attempts        int
	LastAttemptedAt *time.Time
	CompletedAt     *time.Time
}

// IsCompleted reports whether the concept has been completed.
func (r *Record) IsCompleted() bool {
	return r.Status == conceptgraph.StatusCompleted
}

// Transition records a status change for logging and API responses.
type Transition struct {
	ConceptID string
	Title     string
	From      conceptgraph.Status
	To        conceptgraph.Status
	Trigger   string // "assessment", "derivation", "completion", "checkpoint"
}

const (
	TriggerAssessment = "assessment"
	TriggerDerivation = "derivation"
	TriggerCompletion = "completion"
	TriggerCheckpoint = "checkpoint"
)
