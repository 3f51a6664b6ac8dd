package teaching

import "github.com/abhisek/ailp/internal/llm"

// LessonContentSchema defines the JSON schema for lesson content generation.
var LessonContentSchema = &llm.Schema{
	Name:        "lesson-content",
	Description: "Content for each section of a planned lesson, in plan order",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Lesson title",
			},
			"sections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []any{"introduction", "concept", "checkpoint", "analogy", "reflection"},
						},
						"content": map[string]any{
							"type":        "string",
							"description": "Section text; empty for checkpoints",
						},
						"question": map[string]any{
							"type":        "string",
							"description": "Checkpoint question; empty for other sections",
						},
						"hint": map[string]any{
							"type":        "string",
							"description": "Checkpoint hint; empty for other sections",
						},
					},
					"required":             []any{"type", "content", "question", "hint"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"title", "sections"},
		"additionalProperties": false,
	},
}

// CheckpointSchema defines the JSON schema for checkpoint analysis.
var CheckpointSchema = &llm.Schema{
	Name:        "checkpoint-analysis",
	Description: "Assessment of a learner's answer to a checkpoint question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"understandingScore": map[string]any{
				"type":    "number",
				"minimum": 0.0,
				"maximum": 1.0,
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "1-2 sentences of feedback for the learner",
			},
			"needsRemediation": map[string]any{
				"type": "boolean",
			},
			"remediationReason": map[string]any{
				"type": "string",
			},
			"misconception": map[string]any{
				"type":        "string",
				"description": "Short name of a specific misconception, or empty",
			},
		},
		"required":             []any{"understandingScore", "feedback", "needsRemediation", "remediationReason", "misconception"},
		"additionalProperties": false,
	},
}
