package teaching

import (
	"fmt"
	"strings"

	"github.com/abhisek/ailp/internal/conceptgraph"
)

const contentSystemPrompt = `You are an expert programming teacher who teaches from first principles using the Socratic method. Keep explanations short and interactive, build intuition with relatable analogies, and ask questions that test understanding rather than recall.`

func buildContentUserMessage(c conceptgraph.Concept, plan LessonPlan, learnerContext string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Concept: %s (%s)\n", c.Title, c.ID))
	b.WriteString(fmt.Sprintf("Description: %s\n", c.Description))
	b.WriteString(fmt.Sprintf("Level: %s\n", c.Level))
	b.WriteString(fmt.Sprintf("Difficulty: %d/5\n", c.Difficulty))
	if learnerContext != "" {
		b.WriteString(fmt.Sprintf("Learner context: %s\n", learnerContext))
	}

	b.WriteString("\nLesson plan (produce exactly one section per line, in this order):\n")
	for _, s := range plan.Sections {
		switch s.Type {
		case SectionConcept:
			b.WriteString(fmt.Sprintf("%d. concept, taught by %s\n", s.Order+1, s.Strategy))
		case SectionCheckpoint:
			b.WriteString(fmt.Sprintf("%d. checkpoint %d\n", s.Order+1, s.CheckpointIndex+1))
		default:
			b.WriteString(fmt.Sprintf("%d. %s\n", s.Order+1, s.Type))
		}
	}

	b.WriteString(`
Instructions:
1. introduction: 1-2 paragraphs of context and motivation connected to real-world examples.
2. concept: 2-3 paragraphs in the requested style, with a short code example where it helps.
3. checkpoint: a thoughtful question answerable in 2-3 sentences, not yes/no, plus a hint. Leave content empty.
4. analogy: a relatable real-world comparison in 2-3 paragraphs.
5. reflection: 1-2 sentences inviting the learner to connect this concept to what they already know.`)

	return b.String()
}

const checkpointSystemPrompt = `You are an expert programming teacher assessing a learner's free-text answer to a checkpoint question. Judge understanding, not wording. Be encouraging and specific in feedback.`

func buildCheckpointUserMessage(in CheckpointInput) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Concept: %s (%s)\n", in.Concept.Title, in.Concept.ID))
	b.WriteString(fmt.Sprintf("Question: %s\n", in.Question))
	b.WriteString(fmt.Sprintf("Learner's answer: %s\n", in.Response))

	b.WriteString(`
Instructions:
1. understandingScore is 0.0-1.0: how well the answer shows the learner understands the concept.
2. feedback is 1-2 sentences addressed to the learner.
3. Set needsRemediation when the answer reveals a gap that should be revisited before moving on, and explain it in remediationReason.
4. If the answer shows a specific misconception, name it in one short phrase; otherwise leave it empty.`)

	return b.String()
}
