package roadmap

import (
	"fmt"

	"github.com/abhisek/ailp/internal/mastery"
)

// Default gating thresholds.
const (
	DefaultUnlockConfidence     = 0.7
	DefaultBlockingConfidence   = 0.3
	DefaultInProgressConfidence = 0.3
)

// Thresholds holds the confidence cut-offs used by status derivation.
type Thresholds struct {
	// UnlockConfidence: a prerequisite with confidence strictly above this
	// counts as met even when it is not completed.
	UnlockConfidence float64

	// BlockingConfidence: an unfinished prerequisite strictly below this
	// blocks unlock.
	BlockingConfidence float64

	// InProgressConfidence: an unlockable concept strictly above this is
	// in progress rather than available.
	InProgressConfidence float64

	// MasteryRatio converts confidence to display mastery for concepts
	// without measured mastery.
	MasteryRatio float64
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		UnlockConfidence:     DefaultUnlockConfidence,
		BlockingConfidence:   DefaultBlockingConfidence,
		InProgressConfidence: DefaultInProgressConfidence,
		MasteryRatio:         mastery.DefaultMasteryRatio,
	}
}

// Validate checks that every threshold lies in [0, 1].
func (t Thresholds) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"unlock_confidence", t.UnlockConfidence},
		{"blocking_confidence", t.BlockingConfidence},
		{"in_progress_confidence", t.InProgressConfidence},
		{"mastery_ratio", t.MasteryRatio},
	}
	for _, f := range fields {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("threshold %s must be in [0, 1], got %v", f.name, f.v)
		}
	}
	return nil
}
