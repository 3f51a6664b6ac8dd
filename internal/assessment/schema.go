package assessment

import "github.com/abhisek/ailp/internal/llm"

// AnalysisSchema defines the JSON schema for assessment analysis responses.
var AnalysisSchema = &llm.Schema{
	Name:        "assessment-analysis",
	Description: "Initial learner profile inferred from diagnostic answers",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overallLevel": map[string]any{
				"type":        "string",
				"enum":        []any{"beginner", "intermediate", "confident"},
				"description": "The learner's overall starting level",
			},
			"conceptConfidence": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
				"description":          "Confidence (0.0-1.0) per concept ID",
			},
			"weakPoints": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Concept IDs with weak foundations",
			},
			"insights": map[string]any{
				"type":        "string",
				"description": "Brief summary of the learner's background and needs",
			},
			"startingConcept": map[string]any{
				"type":        "string",
				"description": "Concept ID the learner should start from",
			},
		},
		"required":             []any{"overallLevel", "conceptConfidence", "weakPoints", "insights", "startingConcept"},
		"additionalProperties": false,
	},
}
