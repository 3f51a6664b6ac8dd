package remediation

import (
	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/mastery"
)

// Type classifies the nature of a learner's gap.
type Type string

const (
	TypeConceptual   Type = "conceptual"   // Misunderstands the idea itself
	TypeFoundational Type = "foundational" // Missing an earlier building block
	TypeApplication  Type = "application"  // Understands but cannot apply it
)

// ParseType maps a string to a Type. Unknown values report false.
func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeConceptual, TypeFoundational, TypeApplication:
		return Type(s), true
	}
	return "", false
}

// Default values used when a classification omits a field.
const (
	DefaultSeverity  = 0.5
	DefaultRootCause = "Pattern of errors detected"
)

// WeakPoint is a detected gap in a learner's understanding of one concept.
type WeakPoint struct {
	ConceptID       string   `json:"conceptId"`
	Type            Type     `json:"type"`
	Severity        float64  `json:"severity"`
	RootCause       string   `json:"rootCause"`
	RelatedConcepts []string `json:"relatedConcepts"`

	// Source names what produced the weak point: "llm" or "heuristic".
	Source string `json:"source,omitempty"`
}

// Normalize clamps severity, defaults missing fields and drops related
// concepts that are not in g.
func (wp WeakPoint) Normalize(g *conceptgraph.Graph) WeakPoint {
	if t, ok := ParseType(string(wp.Type)); ok {
		wp.Type = t
	} else {
		wp.Type = TypeConceptual
	}
	wp.Severity = mastery.Clamp(wp.Severity)
	if wp.RootCause == "" {
		wp.RootCause = DefaultRootCause
	}

	related := make([]string, 0, len(wp.RelatedConcepts))
	seen := make(map[string]bool)
	for _, id := range wp.RelatedConcepts {
		if id == wp.ConceptID || seen[id] || !g.Has(id) {
			continue
		}
		seen[id] = true
		related = append(related, id)
	}
	wp.RelatedConcepts = related
	return wp
}
