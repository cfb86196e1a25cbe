package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Document is the on-disk catalog format consumed by `cefrquiz seed`.
// Questions use the same record shape the backend serves.
type Document struct {
	Questions []Record          `json:"questions"`
	Passages  map[string]string `json:"passages"`
	Rubrics   map[string]string `json:"rubrics"`
}

const documentSchemaURL = "schema://cefrquiz/catalog.json"

var documentSchema = map[string]any{
	"type":     "object",
	"required": []any{"questions"},
	"properties": map[string]any{
		"questions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"questionText", "difficulty"},
				"properties": map[string]any{
					"question_id":  map[string]any{"type": []any{"string", "integer"}},
					"id":           map[string]any{"type": []any{"string", "integer"}},
					"questionText": map[string]any{"type": "string", "minLength": 1},
					"category":     map[string]any{"type": "string"},
					"difficulty": map[string]any{
						"type": "string",
						"enum": []any{"A1", "A2", "B1", "B2", "C1", "C2"},
					},
					"answerType": map[string]any{
						"type": "string",
						"enum": []any{string(MultipleChoice), string(OpenEnded), string(SpokenResponse)},
					},
					"minWordCount": map[string]any{"type": []any{"integer", "null"}, "minimum": 0},
					"choices": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": []any{"string", "object"},
						},
					},
				},
				"anyOf": []any{
					map[string]any{"required": []any{"question_id"}},
					map[string]any{"required": []any{"id"}},
				},
			},
		},
		"passages": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		},
		"rubrics": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		},
	},
}

var (
	compileOnce      sync.Once
	compiledSchema   *jsonschema.Schema
	compileSchemaErr error
)

func catalogSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// Round-trip through JSON so numbers reach the compiler as json.Number.
		defBytes, err := json.Marshal(documentSchema)
		if err != nil {
			compileSchemaErr = fmt.Errorf("marshal catalog schema: %w", err)
			return
		}
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(defBytes))
		if err != nil {
			compileSchemaErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(documentSchemaURL, def); err != nil {
			compileSchemaErr = fmt.Errorf("add catalog schema: %w", err)
			return
		}
		compiledSchema, compileSchemaErr = c.Compile(documentSchemaURL)
	})
	return compiledSchema, compileSchemaErr
}

// ValidateDocument checks raw JSON against the catalog file schema.
func ValidateDocument(raw []byte) error {
	sch, err := catalogSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("catalog schema validation failed: %w", err)
	}
	return nil
}

// ParseDocument validates and decodes a catalog file.
func ParseDocument(raw []byte) (*Document, error) {
	if err := ValidateDocument(raw); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &doc, nil
}

// Catalog builds a Catalog from the document.
func (d *Document) Catalog() (*Catalog, error) {
	return FromRecords(d.Questions, d.Passages, d.Rubrics)
}
