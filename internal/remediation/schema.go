package remediation

import "github.com/abhisek/ailp/internal/llm"

// WeakPointSchema defines the JSON schema for weak-point classification.
var WeakPointSchema = &llm.Schema{
	Name:        "weak-point-detection",
	Description: "Classification of a learner's repeated errors on a concept",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type":        "string",
				"enum":        []any{"conceptual", "foundational", "application"},
				"description": "The nature of the gap",
			},
			"severity": map[string]any{
				"type":        "number",
				"minimum":     0.0,
				"maximum":     1.0,
				"description": "How much the gap blocks further progress (0.0-1.0)",
			},
			"rootCause": map[string]any{
				"type":        "string",
				"description": "One sentence explaining the underlying cause",
			},
			"relatedConcepts": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Catalog concept IDs the learner should revisit",
			},
		},
		"required":             []any{"type", "severity", "rootCause", "relatedConcepts"},
		"additionalProperties": false,
	},
}
