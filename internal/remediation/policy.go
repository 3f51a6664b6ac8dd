package remediation

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Default policy values.
const (
	DefaultSeverityThreshold     = 0.6
	DefaultScoreThreshold        = 0.5
	DefaultHardScoreThreshold    = 0.4
	DefaultHardDifficulty        = 4
	DefaultFailingScore          = 0.5
	DefaultFailingCheckpointsMin = 2
)

// Policy decides when a learner should be sent back to remediate a concept.
type Policy struct {
	// SeverityThreshold is the weak-point severity above which remediation
	// triggers. Foundational weak points trigger regardless.
	SeverityThreshold float64

	// ScoreThreshold is the mean checkpoint score below which remediation
	// triggers for ordinary concepts.
	ScoreThreshold float64

	// HardScoreThreshold replaces ScoreThreshold for concepts at or above
	// HardDifficulty.
	HardScoreThreshold float64
	HardDifficulty     int

	// FailingScore and FailingCount trigger remediation when at least
	// FailingCount checkpoint scores sit below FailingScore.
	FailingScore float64
	FailingCount int
}

// DefaultPolicy returns the default remediation policy.
func DefaultPolicy() Policy {
	return Policy{
		SeverityThreshold:  DefaultSeverityThreshold,
		ScoreThreshold:     DefaultScoreThreshold,
		HardScoreThreshold: DefaultHardScoreThreshold,
		HardDifficulty:     DefaultHardDifficulty,
		FailingScore:       DefaultFailingScore,
		FailingCount:       DefaultFailingCheckpointsMin,
	}
}

// Validate checks that thresholds are in range.
func (p Policy) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"severity threshold", p.SeverityThreshold},
		{"score threshold", p.ScoreThreshold},
		{"hard score threshold", p.HardScoreThreshold},
		{"failing score", p.FailingScore},
	}
	for _, f := range fields {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("%s %v outside [0, 1]", f.name, f.v)
		}
	}
	if p.FailingCount < 1 {
		return fmt.Errorf("failing count must be at least 1, got %d", p.FailingCount)
	}
	return nil
}

// ShouldRemediate reports whether a weak point is serious enough to send
// the learner back.
func (p Policy) ShouldRemediate(wp WeakPoint) bool {
	return wp.Severity > p.SeverityThreshold || wp.Type == TypeFoundational
}

// ShouldRemediateScores decides from a concept's checkpoint understanding
// scores. No scores means no evidence and never triggers.
func (p Policy) ShouldRemediateScores(scores []float64, difficulty int) bool {
	if len(scores) == 0 {
		return false
	}
	mean, err := stats.Mean(scores)
	if err != nil {
		return false
	}

	threshold := p.ScoreThreshold
	if difficulty >= p.HardDifficulty {
		threshold = p.HardScoreThreshold
	}

	failing := 0
	for _, s := range scores {
		if s < p.FailingScore {
			failing++
		}
	}
	return mean < threshold || failing >= p.FailingCount
}
