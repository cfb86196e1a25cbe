// Package llm wraps the hosted model APIs used to grade written and spoken
// answers behind one Provider interface.
package llm

import (
	"context"
	"encoding/json"
)

// Provider completes a single-turn prompt.
type Provider interface {
	// Complete sends p to the model. When p.Schema is set the returned
	// Completion.JSON has been validated against it.
	Complete(ctx context.Context, p Prompt) (*Completion, error)

	// Name returns "<provider>/<model>".
	Name() string
}

// Prompt is one grading request.
type Prompt struct {
	System string
	User   string

	// Schema requests structured output. Nil means free text, returned as
	// a JSON string.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Schema is a named JSON Schema for structured output.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Completion is the model's answer.
type Completion struct {
	JSON      json.RawMessage
	Model     string
	Usage     Usage
	Truncated bool
}

// Decode unmarshals the completion into v.
func (c *Completion) Decode(v any) error {
	if err := json.Unmarshal(c.JSON, v); err != nil {
		return &Error{Kind: KindInvalidOutput, Err: err}
	}
	return nil
}

// Usage reports token consumption for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// textJSON wraps free text as a JSON string.
func textJSON(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
