package assessment

import (
	"errors"

	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/mastery"
)

// ErrNoResponses is returned when an assessment has nothing to analyze.
var ErrNoResponses = errors.New("assessment has no responses")

// Response is one answered diagnostic question.
type Response struct {
	QuestionID string `json:"questionId,omitempty"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

// Analysis is the learner profile inferred from a diagnostic assessment.
type Analysis struct {
	OverallLevel      conceptgraph.Level `json:"overallLevel"`
	ConceptConfidence mastery.Confidence `json:"conceptConfidence"`
	WeakPoints        []string           `json:"weakPoints"`
	Insights          string             `json:"insights"`
	StartingConcept   string             `json:"startingConcept"`

	// Source names what produced the analysis: "llm" or "default".
	Source string `json:"-"`
}

// DefaultInsights accompanies the fallback analysis.
const DefaultInsights = "New learner starting from the beginning."

// DefaultAnalysis treats the learner as a beginner with no prior knowledge.
func DefaultAnalysis(g *conceptgraph.Graph) Analysis {
	start := ""
	if roots := g.Roots(); len(roots) > 0 {
		start = roots[0].ID
	}
	return Analysis{
		OverallLevel:      conceptgraph.LevelBeginner,
		ConceptConfidence: mastery.NormalizeConfidence(g, nil),
		WeakPoints:        []string{},
		Insights:          DefaultInsights,
		StartingConcept:   start,
		Source:            "default",
	}
}

// Placement returns the concepts a learner is credited with before their
// starting concept: the catalog prefix that precedes it.
func Placement(g *conceptgraph.Graph, a Analysis) []string {
	before := g.Before(a.StartingConcept)
	out := make([]string, len(before))
	copy(out, before)
	return out
}
