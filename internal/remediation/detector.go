package remediation

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"text/template"

	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/llm"
)

// DetectorConfig holds configuration for the weak-point detector.
type DetectorConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultDetectorConfig returns sensible defaults.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MaxTokens:   256,
		Temperature: 0.3,
	}
}

// Detector classifies repeated errors on a concept into a weak point.
type Detector struct {
	provider llm.Provider
	graph    *conceptgraph.Graph
	cfg      DetectorConfig
}

// NewDetector creates a detector. A nil provider makes every detection use
// the heuristic.
func NewDetector(provider llm.Provider, g *conceptgraph.Graph, cfg DetectorConfig) *Detector {
	return &Detector{provider: provider, graph: g, cfg: cfg}
}

// DetectRequest describes the learner's recent trouble with a concept.
type DetectRequest struct {
	ConceptID     string
	ErrorPatterns []string
	Attempts      int
}

type detectionOutput struct {
	Type            string   `json:"type"`
	Severity        *float64 `json:"severity"`
	RootCause       string   `json:"rootCause"`
	RelatedConcepts []string `json:"relatedConcepts"`
}

// Detect returns the weak point behind req, or nil when there is not yet
// enough evidence: no error patterns or fewer than two attempts. LLM
// failures fall back to a heuristic classification; only an unknown
// concept is an error.
func (d *Detector) Detect(ctx context.Context, req DetectRequest) (*WeakPoint, error) {
	concept, err := d.graph.Lookup(req.ConceptID)
	if err != nil {
		return nil, err
	}
	if len(req.ErrorPatterns) == 0 || req.Attempts < 2 {
		return nil, nil
	}
	if d.provider == nil {
		wp := heuristicWeakPoint(req)
		return &wp, nil
	}

	wp, err := d.classify(ctx, concept, req)
	if err != nil {
		fallback := heuristicWeakPoint(req)
		return &fallback, nil
	}
	return &wp, nil
}

func (d *Detector) classify(ctx context.Context, concept conceptgraph.Concept, req DetectRequest) (WeakPoint, error) {
	ctx = llm.WithPurpose(ctx, "weak-point-detection")

	userMsg, err := buildDetectionMessage(concept, req)
	if err != nil {
		return WeakPoint{}, fmt.Errorf("build detection prompt: %w", err)
	}

	resp, err := d.provider.Generate(ctx, llm.Request{
		System: detectionSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      WeakPointSchema,
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
	})
	if err != nil {
		return WeakPoint{}, fmt.Errorf("LLM weak-point detection failed: %w", err)
	}

	raw, err := llm.ParseStructured[detectionOutput](resp.Content)
	if err != nil {
		return WeakPoint{}, fmt.Errorf("parse weak-point response: %w", err)
	}

	severity := DefaultSeverity
	if raw.Severity != nil {
		severity = *raw.Severity
	}
	wp := WeakPoint{
		ConceptID:       req.ConceptID,
		Type:            Type(raw.Type),
		Severity:        severity,
		RootCause:       raw.RootCause,
		RelatedConcepts: raw.RelatedConcepts,
		Source:          "llm",
	}
	return wp.Normalize(d.graph), nil
}

// heuristicWeakPoint scales severity with the number of attempts, capped at 0.7.
func heuristicWeakPoint(req DetectRequest) WeakPoint {
	return WeakPoint{
		ConceptID:       req.ConceptID,
		Type:            TypeConceptual,
		Severity:        math.Min(0.7, float64(req.Attempts)*0.15),
		RootCause:       "Repeated errors suggest conceptual gap",
		RelatedConcepts: []string{},
		Source:          "heuristic",
	}
}

const detectionSystemPrompt = `You are an experienced programming tutor. A learner keeps making mistakes on one concept. Classify the gap behind their errors.

Instructions:
- type is "conceptual" when they misunderstand the idea itself, "foundational" when an earlier building block is missing, "application" when they understand the idea but cannot apply it.
- severity is 0.0-1.0: how much this gap blocks further progress.
- rootCause is one sentence.
- relatedConcepts lists only concept IDs from the catalog below that the learner should revisit.`

var detectionUserTemplate = template.Must(template.New("detection").Parse(`Concept: {{.Concept.Title}} ({{.Concept.ID}})
Description: {{.Concept.Description}}
Prerequisites: {{range $i, $p := .Concept.Prerequisites}}{{if $i}}, {{end}}{{$p}}{{else}}none{{end}}
Attempts so far: {{.Attempts}}

Observed error patterns:
{{range .ErrorPatterns}}- {{.}}
{{end}}`))

func buildDetectionMessage(concept conceptgraph.Concept, req DetectRequest) (string, error) {
	var buf bytes.Buffer
	err := detectionUserTemplate.Execute(&buf, struct {
		Concept       conceptgraph.Concept
		Attempts      int
		ErrorPatterns []string
	}{concept, req.Attempts, req.ErrorPatterns})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
