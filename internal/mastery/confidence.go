package mastery

import (
	"math"

	"github.com/abhisek/ailp/internal/conceptgraph"
)

// DefaultMasteryRatio is the fraction of confidence assumed as mastery
// before a concept has been measured by checkpoints.
const DefaultMasteryRatio = 0.7

// Confidence maps concept IDs to confidence scores in [0, 1].
type Confidence map[string]float64

// Get returns the confidence for id, or 0 if absent.
func (c Confidence) Get(id string) float64 {
	if c == nil {
		return 0
	}
	return c[id]
}

// Clone returns an independent copy.
func (c Confidence) Clone() Confidence {
	out := make(Confidence, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Clamp bounds v to [0, 1]. NaN becomes 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizeConfidence returns a map holding exactly the catalog's concepts,
// with raw values clamped and missing entries set to 0. IDs outside the
// catalog are dropped.
func NormalizeConfidence(g *conceptgraph.Graph, raw map[string]float64) Confidence {
	out := make(Confidence, g.Len())
	for _, id := range g.IDs() {
		out[id] = Clamp(raw[id])
	}
	return out
}

// FromConfidence derives a display mastery score from confidence.
func FromConfidence(confidence, ratio float64) float64 {
	return Clamp(Clamp(confidence) * ratio)
}
