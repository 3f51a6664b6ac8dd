package remediation

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/llm"
)

func newTestDetector(responses ...llm.MockResponse) (*Detector, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	return NewDetector(mock, conceptgraph.Python(), DefaultDetectorConfig()), mock
}

func TestDetector_Classifies(t *testing.T) {
	resp := json.RawMessage(`{"type":"foundational","severity":0.4,"rootCause":"Unsure how variables hold values","relatedConcepts":["variables","ghost","loops","variables"]}`)
	d, mock := newTestDetector(llm.MockResponse{Content: resp})

	wp, err := d.Detect(context.Background(), DetectRequest{
		ConceptID:     "loops",
		ErrorPatterns: []string{"off-by-one in range", "mutates loop variable"},
		Attempts:      3,
	})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if wp == nil {
		t.Fatal("expected a weak point")
	}
	if wp.Type != TypeFoundational || wp.Severity != 0.4 || wp.Source != "llm" {
		t.Errorf("weak point = %+v", wp)
	}
	if len(wp.RelatedConcepts) != 1 || wp.RelatedConcepts[0] != "variables" {
		t.Errorf("related = %v, want [variables]", wp.RelatedConcepts)
	}
	if !DefaultPolicy().ShouldRemediate(*wp) {
		t.Error("foundational weak point should trigger remediation")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d", mock.CallCount())
	}
	if mock.Calls[0].Schema != WeakPointSchema {
		t.Error("request did not carry the weak-point schema")
	}
}

func TestDetector_DefaultsMissingFields(t *testing.T) {
	resp := json.RawMessage(`{"type":"sideways","rootCause":"","relatedConcepts":[]}`)
	d, _ := newTestDetector(llm.MockResponse{Content: resp})

	wp, err := d.Detect(context.Background(), DetectRequest{ConceptID: "loops", ErrorPatterns: []string{"x"}, Attempts: 2})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if wp.Type != TypeConceptual {
		t.Errorf("type = %q, want conceptual", wp.Type)
	}
	if wp.Severity != DefaultSeverity {
		t.Errorf("severity = %v, want %v", wp.Severity, DefaultSeverity)
	}
	if wp.RootCause != DefaultRootCause {
		t.Errorf("root cause = %q", wp.RootCause)
	}
}

func TestDetector_ClampsSeverity(t *testing.T) {
	resp := json.RawMessage(`{"type":"application","severity":7,"rootCause":"r","relatedConcepts":[]}`)
	d, _ := newTestDetector(llm.MockResponse{Content: resp})

	wp, _ := d.Detect(context.Background(), DetectRequest{ConceptID: "loops", ErrorPatterns: []string{"x"}, Attempts: 2})
	if wp.Severity != 1 {
		t.Errorf("severity = %v, want 1", wp.Severity)
	}
}

func TestDetector_NotEnoughEvidence(t *testing.T) {
	d, mock := newTestDetector()
	tests := []DetectRequest{
		{ConceptID: "loops", Attempts: 5},
		{ConceptID: "loops", ErrorPatterns: []string{"x"}, Attempts: 1},
	}
	for _, req := range tests {
		wp, err := d.Detect(context.Background(), req)
		if err != nil || wp != nil {
			t.Errorf("Detect(%+v) = %+v, %v; want nil, nil", req, wp, err)
		}
	}
	if mock.CallCount() != 0 {
		t.Errorf("LLM called %d times", mock.CallCount())
	}
}

func TestDetector_UnknownConcept(t *testing.T) {
	d, _ := newTestDetector()
	_, err := d.Detect(context.Background(), DetectRequest{ConceptID: "ghost", ErrorPatterns: []string{"x"}, Attempts: 3})
	if !errors.Is(err, conceptgraph.ErrUnknownConcept) {
		t.Errorf("err = %v, want ErrUnknownConcept", err)
	}
}

func TestDetector_FallsBackOnLLMFailure(t *testing.T) {
	tests := []struct {
		name     string
		resp     llm.MockResponse
		attempts int
		severity float64
	}{
		{"provider error", llm.MockResponse{Err: errors.New("boom")}, 2, 0.3},
		{"unparseable", llm.MockResponse{Content: json.RawMessage(`"no json here"`)}, 3, 0.45},
		{"capped", llm.MockResponse{Err: errors.New("boom")}, 10, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDetector(tt.resp)
			wp, err := d.Detect(context.Background(), DetectRequest{ConceptID: "loops", ErrorPatterns: []string{"x"}, Attempts: tt.attempts})
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if wp.Source != "heuristic" || wp.Type != TypeConceptual {
				t.Errorf("weak point = %+v", wp)
			}
			if math.Abs(wp.Severity-tt.severity) > 1e-9 {
				t.Errorf("severity = %v, want %v", wp.Severity, tt.severity)
			}
		})
	}
}

func TestDetector_NilProviderUsesHeuristic(t *testing.T) {
	d := NewDetector(nil, conceptgraph.Python(), DefaultDetectorConfig())
	wp, err := d.Detect(context.Background(), DetectRequest{ConceptID: "intro", ErrorPatterns: []string{"x"}, Attempts: 4})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if wp.Source != "heuristic" {
		t.Errorf("source = %q", wp.Source)
	}
}
