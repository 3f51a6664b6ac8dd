package teaching

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/llm"
	"github.com/abhisek/ailp/internal/mastery"
)

// Defaults applied to partial checkpoint analyses.
const (
	DefaultUnderstanding = 0.5
	DefaultFeedback      = "Good thinking! Keep going."
)

// CheckpointInput is a learner's answer to a checkpoint question.
type CheckpointInput struct {
	Concept  conceptgraph.Concept
	Question string
	Response string
}

// CheckpointResult is the assessment of one checkpoint answer.
type CheckpointResult struct {
	UnderstandingScore float64 `json:"understandingScore"`
	Feedback           string  `json:"feedback"`
	NeedsRemediation   bool    `json:"needsRemediation"`
	RemediationReason  string  `json:"remediationReason,omitempty"`
	Misconception      string  `json:"misconception,omitempty"`

	// Source is "llm" or "heuristic".
	Source string `json:"-"`
}

// CheckpointAnalyzer scores free-text checkpoint answers.
type CheckpointAnalyzer struct {
	provider llm.Provider
	cfg      CheckpointConfig
}

// NewCheckpointAnalyzer creates a checkpoint analyzer. A nil provider makes
// every analysis heuristic.
func NewCheckpointAnalyzer(provider llm.Provider, cfg CheckpointConfig) *CheckpointAnalyzer {
	return &CheckpointAnalyzer{provider: provider, cfg: cfg}
}

type checkpointOutput struct {
	UnderstandingScore *float64 `json:"understandingScore"`
	Feedback           string   `json:"feedback"`
	NeedsRemediation   bool     `json:"needsRemediation"`
	RemediationReason  string   `json:"remediationReason"`
	Misconception      string   `json:"misconception"`
}

// Analyze scores in.Response. It never fails: LLM trouble falls back to a
// length-based estimate.
func (a *CheckpointAnalyzer) Analyze(ctx context.Context, in CheckpointInput) CheckpointResult {
	if a.provider == nil {
		return heuristicCheckpoint(in.Response)
	}
	raw, err := a.generate(ctx, in)
	if err != nil {
		return heuristicCheckpoint(in.Response)
	}

	score := DefaultUnderstanding
	if raw.UnderstandingScore != nil {
		score = mastery.Clamp(*raw.UnderstandingScore)
	}
	res := CheckpointResult{
		UnderstandingScore: score,
		Feedback:           raw.Feedback,
		NeedsRemediation:   raw.NeedsRemediation || score < LowUnderstanding,
		RemediationReason:  raw.RemediationReason,
		Misconception:      raw.Misconception,
		Source:             "llm",
	}
	if res.Feedback == "" {
		res.Feedback = DefaultFeedback
	}
	if res.NeedsRemediation && res.RemediationReason == "" {
		res.RemediationReason = "Understanding appears incomplete"
	}
	return res
}

func (a *CheckpointAnalyzer) generate(ctx context.Context, in CheckpointInput) (checkpointOutput, error) {
	ctx = llm.WithPurpose(ctx, "checkpoint-analysis")

	resp, err := a.provider.Generate(ctx, llm.Request{
		System: checkpointSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildCheckpointUserMessage(in)},
		},
		Schema:      CheckpointSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return checkpointOutput{}, fmt.Errorf("checkpoint analysis: %w", err)
	}
	return llm.ParseStructured[checkpointOutput](resp.Content)
}

func heuristicCheckpoint(response string) CheckpointResult {
	score := estimateUnderstanding(response)
	res := CheckpointResult{
		UnderstandingScore: score,
		Feedback:           "Let's think about this more. Consider the key concepts we discussed.",
		NeedsRemediation:   score < LowUnderstanding,
		Source:             "heuristic",
	}
	if score > 0.6 {
		res.Feedback = "Good understanding! You're on the right track."
	}
	if res.NeedsRemediation {
		res.RemediationReason = "Understanding appears incomplete"
	}
	return res
}

// estimateUnderstanding guesses from answer length alone.
func estimateUnderstanding(response string) float64 {
	n := utf8.RuneCountInString(strings.TrimSpace(response))
	switch {
	case n < 10:
		return 0.2
	case n < 30:
		return 0.4
	case n > 100:
		return 0.7
	default:
		return 0.6
	}
}
