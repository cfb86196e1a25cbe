package grading

import "github.com/abhisek/cefrquiz/internal/llm"

// GradeSchema defines the JSON schema for model grading responses.
var GradeSchema = &llm.Schema{
	Name:        "cefr-grade",
	Description: "Score and feedback for a learner's written or spoken English answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     5,
				"description": "Overall score from 0 (no attempt) to 5 (fully meets the rubric)",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "One or two sentences of feedback addressed to the learner",
			},
		},
		"required":             []any{"score", "feedback"},
		"additionalProperties": false,
	},
}
