package teaching

import "github.com/abhisek/ailp/internal/conceptgraph"

// Strategy is the teaching method used for one concept section.
type Strategy string

const (
	StrategyExplanation Strategy = "explanation"
	StrategyAnalogy     Strategy = "analogy"
	StrategyExample     Strategy = "example"
	StrategyQuestion    Strategy = "question"
)

// SectionType identifies a lesson section.
type SectionType string

const (
	SectionIntroduction SectionType = "introduction"
	SectionConcept      SectionType = "concept"
	SectionCheckpoint   SectionType = "checkpoint"
	SectionAnalogy      SectionType = "analogy"
	SectionReflection   SectionType = "reflection"
)

// Section is one slot in a lesson plan.
type Section struct {
	Type     SectionType `json:"type"`
	Strategy Strategy    `json:"strategy,omitempty"` // concept sections only
	Order    int         `json:"order"`

	// CheckpointIndex numbers checkpoints from zero; -1 for other sections.
	CheckpointIndex int `json:"checkpointIndex"`
}

// LessonPlan is the ordered structure of a lesson, decided before any
// content is generated.
type LessonPlan struct {
	ConceptID     string    `json:"conceptId"`
	Sections      []Section `json:"sections"`
	EstimatedMins int       `json:"estimatedTime"`
}

// Checkpoints returns the number of checkpoint sections.
func (p LessonPlan) Checkpoints() int {
	n := 0
	for _, s := range p.Sections {
		if s.Type == SectionCheckpoint {
			n++
		}
	}
	return n
}

// LearnerState is what the planner knows about the learner for a concept.
type LearnerState struct {
	Mastery    float64
	Confidence float64
}

// Plan decides how to teach c: an introduction, one concept section per
// strategy with a checkpoint after every second one (never after the last),
// an analogy for harder concepts and a closing reflection.
func Plan(c conceptgraph.Concept, st LearnerState) LessonPlan {
	var sections []Section
	add := func(s Section) {
		s.Order = len(sections)
		if s.Type != SectionCheckpoint {
			s.CheckpointIndex = -1
		}
		sections = append(sections, s)
	}

	add(Section{Type: SectionIntroduction})

	strategies := strategiesFor(c, st)
	checkpoint := 0
	for i, strategy := range strategies {
		add(Section{Type: SectionConcept, Strategy: strategy})
		if i < len(strategies)-1 && (i+1)%2 == 0 {
			add(Section{Type: SectionCheckpoint, CheckpointIndex: checkpoint})
			checkpoint++
		}
	}

	if c.Difficulty >= 3 {
		add(Section{Type: SectionAnalogy})
	}
	add(Section{Type: SectionReflection})

	return LessonPlan{
		ConceptID:     c.ID,
		Sections:      sections,
		EstimatedMins: c.EstimatedMins,
	}
}

func strategiesFor(c conceptgraph.Concept, st LearnerState) []Strategy {
	var out []Strategy
	if st.Mastery < 0.3 || c.Level == conceptgraph.LevelBeginner {
		out = append(out, StrategyExplanation)
	}
	if c.Difficulty >= 3 {
		out = append(out, StrategyAnalogy)
	}
	if c.Difficulty >= 2 {
		out = append(out, StrategyExample)
	}
	// Struggling learners and hard concepts get a Socratic question.
	if st.Confidence < 0.5 || c.Difficulty >= 3 {
		out = append(out, StrategyQuestion)
	}
	if len(out) == 0 {
		out = append(out, StrategyExplanation)
	}
	return out
}
