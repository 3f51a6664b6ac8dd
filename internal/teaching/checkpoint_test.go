package teaching

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/ailp/internal/llm"
)

func TestCheckpointAnalyzer_LLM(t *testing.T) {
	tests := []struct {
		name       string
		resp       string
		score      float64
		feedback   string
		remediate  bool
		misconcept string
	}{
		{
			name:     "good answer",
			resp:     `{"understandingScore":0.85,"feedback":"Nice.","needsRemediation":false,"remediationReason":"","misconception":""}`,
			score:    0.85,
			feedback: "Nice.",
		},
		{
			name:       "low score forces remediation",
			resp:       `{"understandingScore":0.2,"feedback":"Not quite.","needsRemediation":false,"remediationReason":"","misconception":"thinks = compares"}`,
			score:      0.2,
			feedback:   "Not quite.",
			remediate:  true,
			misconcept: "thinks = compares",
		},
		{
			name:     "missing fields get defaults",
			resp:     `{"feedback":""}`,
			score:    DefaultUnderstanding,
			feedback: DefaultFeedback,
		},
		{
			name:     "score clamped",
			resp:     `{"understandingScore":3,"feedback":"ok"}`,
			score:    1,
			feedback: "ok",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(tt.resp)})
			a := NewCheckpointAnalyzer(mock, DefaultCheckpointConfig())
			got := a.Analyze(context.Background(), CheckpointInput{Concept: mustConcept(t, "variables"), Question: "q", Response: "r"})
			if got.Source != "llm" {
				t.Errorf("source = %q", got.Source)
			}
			if got.UnderstandingScore != tt.score {
				t.Errorf("score = %v, want %v", got.UnderstandingScore, tt.score)
			}
			if got.Feedback != tt.feedback {
				t.Errorf("feedback = %q, want %q", got.Feedback, tt.feedback)
			}
			if got.NeedsRemediation != tt.remediate {
				t.Errorf("needsRemediation = %v, want %v", got.NeedsRemediation, tt.remediate)
			}
			if tt.remediate && got.RemediationReason == "" {
				t.Error("remediation without a reason")
			}
			if got.Misconception != tt.misconcept {
				t.Errorf("misconception = %q", got.Misconception)
			}
		})
	}
}

func TestCheckpointAnalyzer_Heuristic(t *testing.T) {
	tests := []struct {
		response  string
		score     float64
		remediate bool
	}{
		{"", 0.2, true},
		{"   short   ", 0.2, true},
		{"a variable stores data", 0.4, false},
		{"a variable is a name that refers to a value held in memory", 0.6, false},
		{strings.Repeat("because ", 20), 0.7, false},
	}
	a := NewCheckpointAnalyzer(llm.NewMockProvider(), DefaultCheckpointConfig())
	for _, tt := range tests {
		got := a.Analyze(context.Background(), CheckpointInput{Concept: mustConcept(t, "variables"), Response: tt.response})
		if got.Source != "heuristic" {
			t.Errorf("%q: source = %q", tt.response, got.Source)
		}
		if got.UnderstandingScore != tt.score {
			t.Errorf("%q: score = %v, want %v", tt.response, got.UnderstandingScore, tt.score)
		}
		if got.NeedsRemediation != tt.remediate {
			t.Errorf("%q: needsRemediation = %v, want %v", tt.response, got.NeedsRemediation, tt.remediate)
		}
	}
}

func TestCheckpointAnalyzer_HeuristicFeedback(t *testing.T) {
	a := NewCheckpointAnalyzer(llm.NewMockProvider(llm.MockResponse{Err: errors.New("boom")}), DefaultCheckpointConfig())
	got := a.Analyze(context.Background(), CheckpointInput{Response: strings.Repeat("x", 120)})
	if !strings.HasPrefix(got.Feedback, "Good understanding") {
		t.Errorf("feedback = %q", got.Feedback)
	}
	got = NewCheckpointAnalyzer(nil, DefaultCheckpointConfig()).Analyze(context.Background(), CheckpointInput{Response: "idk"})
	if got.RemediationReason != "Understanding appears incomplete" {
		t.Errorf("reason = %q", got.RemediationReason)
	}
}
