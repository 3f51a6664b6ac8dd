package assessment

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/llm"
	"github.com/abhisek/ailp/internal/mastery"
)

// AnalyzerConfig holds configuration for the assessment analyzer.
type AnalyzerConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultAnalyzerConfig returns sensible defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		MaxTokens:   1024,
		Temperature: 0.3,
	}
}

// Analyzer turns diagnostic answers into an initial learner profile.
type Analyzer struct {
	provider llm.Provider
	graph    *conceptgraph.Graph
	cfg      AnalyzerConfig
}

// NewAnalyzer creates an analyzer. With a nil provider every analysis is
// the default one.
func NewAnalyzer(provider llm.Provider, g *conceptgraph.Graph, cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{provider: provider, graph: g, cfg: cfg}
}

type analysisOutput struct {
	OverallLevel      string             `json:"overallLevel"`
	ConceptConfidence map[string]float64 `json:"conceptConfidence"`
	WeakPoints        []string           `json:"weakPoints"`
	Insights          string             `json:"insights"`
	StartingConcept   string             `json:"startingConcept"`
}

// Analyze infers a learner profile from responses. Any LLM or parse failure
// yields DefaultAnalysis; the only error is an empty response list.
func (a *Analyzer) Analyze(ctx context.Context, responses []Response) (Analysis, error) {
	if len(responses) == 0 {
		return Analysis{}, ErrNoResponses
	}
	if a.provider == nil {
		return DefaultAnalysis(a.graph), nil
	}
	raw, err := a.generate(ctx, responses)
	if err != nil {
		return DefaultAnalysis(a.graph), nil
	}
	return a.normalize(raw), nil
}

func (a *Analyzer) generate(ctx context.Context, responses []Response) (analysisOutput, error) {
	ctx = llm.WithPurpose(ctx, "assessment-analysis")

	userMsg, err := buildAnalysisMessage(a.graph, responses)
	if err != nil {
		return analysisOutput{}, fmt.Errorf("build analysis prompt: %w", err)
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		System: analysisSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      AnalysisSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return analysisOutput{}, fmt.Errorf("LLM assessment analysis failed: %w", err)
	}
	return llm.ParseStructured[analysisOutput](resp.Content)
}

func (a *Analyzer) normalize(raw analysisOutput) Analysis {
	out := DefaultAnalysis(a.graph)
	out.Source = "llm"

	if lvl, ok := conceptgraph.ParseLevel(raw.OverallLevel); ok {
		out.OverallLevel = lvl
	}
	out.ConceptConfidence = mastery.NormalizeConfidence(a.graph, raw.ConceptConfidence)

	seen := make(map[string]bool)
	for _, id := range raw.WeakPoints {
		if a.graph.Has(id) && !seen[id] {
			seen[id] = true
			out.WeakPoints = append(out.WeakPoints, id)
		}
	}
	if raw.Insights != "" {
		out.Insights = raw.Insights
	}
	if a.graph.Has(raw.StartingConcept) {
		out.StartingConcept = raw.StartingConcept
	}
	return out
}

const analysisSystemPrompt = `You are an expert educational assessment analyzer. From a learner's answers to diagnostic questions, determine:
1. Their overall starting level: beginner, intermediate or confident.
2. A confidence score from 0.0 to 1.0 for every concept in the catalog.
3. Concepts whose foundations look weak.
4. The concept they should start learning from.

Be precise and objective. Use only concept IDs from the catalog.`

var analysisUserTemplate = template.Must(template.New("analysis").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`Catalog ({{.Subject}}):
{{range .Concepts}}- {{.ID}}: {{.Title}} ({{.Level}})
{{end}}
Assessment responses:
{{range $i, $r := .Responses}}
Q{{inc $i}}: {{$r.Question}}
A{{inc $i}}: {{$r.Answer}}
{{end}}`))

func buildAnalysisMessage(g *conceptgraph.Graph, responses []Response) (string, error) {
	var buf bytes.Buffer
	err := analysisUserTemplate.Execute(&buf, struct {
		Subject   string
		Concepts  []conceptgraph.Concept
		Responses []Response
	}{g.Subject(), g.Concepts(), responses})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
