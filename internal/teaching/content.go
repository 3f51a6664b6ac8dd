package teaching

import (
	"context"
	"fmt"

	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/llm"
)

// Content is the generated material for one planned section.
type Content struct {
	Type     SectionType `json:"type"`
	Strategy Strategy    `json:"strategy,omitempty"`
	Content  string      `json:"content,omitempty"`
	Question string      `json:"question,omitempty"`
	Hint     string      `json:"hint,omitempty"`
}

// Lesson is a plan filled in with content.
type Lesson struct {
	ConceptID string    `json:"conceptId"`
	Title     string    `json:"title"`
	Sections  []Content `json:"sections"`

	// Source is "llm" when every section came from the model, "mixed" when
	// some fell back to static text and "static" when none did.
	Source string `json:"-"`
}

// ContentGenerator fills lesson plans with content.
type ContentGenerator struct {
	provider llm.Provider
	cfg      Config
}

// NewContentGenerator creates a content generator. A nil provider yields
// static lessons.
func NewContentGenerator(provider llm.Provider, cfg Config) *ContentGenerator {
	return &ContentGenerator{provider: provider, cfg: cfg}
}

type lessonOutput struct {
	Title    string          `json:"title"`
	Sections []sectionOutput `json:"sections"`
}

type sectionOutput struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Question string `json:"question"`
	Hint     string `json:"hint"`
}

// Generate produces content for every section of plan. The structure always
// follows the plan: model output is matched to plan slots by position and
// type, and any slot the model missed gets static text.
func (g *ContentGenerator) Generate(ctx context.Context, c conceptgraph.Concept, plan LessonPlan, learnerContext string) Lesson {
	var out lessonOutput
	if g.provider != nil {
		if generated, err := g.generate(ctx, c, plan, learnerContext); err == nil {
			out = generated
		}
	}

	lesson := Lesson{ConceptID: c.ID, Title: c.Title, Sections: make([]Content, 0, len(plan.Sections))}
	fromModel := 0
	for i, s := range plan.Sections {
		if i < len(out.Sections) && out.Sections[i].Type == string(s.Type) && usable(out.Sections[i], s.Type) {
			o := out.Sections[i]
			lesson.Sections = append(lesson.Sections, Content{
				Type: s.Type, Strategy: s.Strategy, Content: o.Content, Question: o.Question, Hint: o.Hint,
			})
			fromModel++
			continue
		}
		lesson.Sections = append(lesson.Sections, staticContent(c, s))
	}

	switch fromModel {
	case len(plan.Sections):
		lesson.Source = "llm"
	case 0:
		lesson.Source = "static"
	default:
		lesson.Source = "mixed"
	}
	return lesson
}

func (g *ContentGenerator) generate(ctx context.Context, c conceptgraph.Concept, plan LessonPlan, learnerContext string) (lessonOutput, error) {
	ctx = llm.WithPurpose(ctx, "lesson-content")

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: contentSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildContentUserMessage(c, plan, learnerContext)},
		},
		Schema:      LessonContentSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return lessonOutput{}, fmt.Errorf("lesson content generation: %w", err)
	}
	return llm.ParseStructured[lessonOutput](resp.Content)
}

func usable(o sectionOutput, t SectionType) bool {
	if t == SectionCheckpoint {
		return o.Question != ""
	}
	return o.Content != ""
}

func staticContent(c conceptgraph.Concept, s Section) Content {
	out := Content{Type: s.Type, Strategy: s.Strategy}
	switch s.Type {
	case SectionIntroduction:
		out.Content = fmt.Sprintf("Let's explore %s. %s", c.Title, c.Description)
	case SectionConcept:
		switch s.Strategy {
		case StrategyExample:
			out.Content = fmt.Sprintf("Try writing a short program that uses %s, then predict what it prints before you run it.", c.Title)
		case StrategyQuestion:
			out.Content = fmt.Sprintf("Before reading on, ask yourself: what problem does %s solve?", c.Title)
		case StrategyAnalogy:
			out.Content = fmt.Sprintf("Think of %s in terms of something you already use every day.", c.Title)
		default:
			out.Content = c.Description
		}
	case SectionCheckpoint:
		out.Question = "What is the key takeaway from this section?"
		out.Hint = "Consider the main concept we just explored."
	case SectionAnalogy:
		out.Content = fmt.Sprintf("%s works a lot like a tool you already know: it packages an idea so you can reuse it without thinking about the details.", c.Title)
	case SectionReflection:
		out.Content = fmt.Sprintf("Take a moment to reflect on how %s connects to what you already know.", c.Title)
	}
	return out
}
