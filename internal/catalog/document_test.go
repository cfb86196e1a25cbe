package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
	"questions": [
		{"question_id": 1, "questionText": "Hello?", "difficulty": "A1", "answerType": "multiple-choice",
		 "correctAnswer": "Hi", "choices": ["Hi", "Bye"]},
		{"question_id": "w1", "questionText": "Write about your day", "difficulty": "B1",
		 "answerType": "open-ended", "minWordCount": 60, "rubricId": "r1"}
	],
	"passages": {"p1": "Once upon a time."},
	"rubrics": {"r1": "Coherence, vocabulary, grammar."}
}`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(validDoc))
	require.NoError(t, err)
	require.Len(t, doc.Questions, 2)

	c, err := doc.Catalog()
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	q, ok := c.Question("w1")
	require.True(t, ok)
	assert.Equal(t, 60, q.RequiredWords())

	r, ok := c.Rubric("r1")
	assert.True(t, ok)
	assert.Contains(t, r, "Coherence")
}

func TestValidateDocument_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"no questions", `{"passages": {}}`},
		{"empty questions", `{"questions": []}`},
		{"bad difficulty", `{"questions": [{"id": 1, "questionText": "x", "difficulty": "Z9"}]}`},
		{"no id", `{"questions": [{"questionText": "x", "difficulty": "A1"}]}`},
		{"bad answer type", `{"questions": [{"id": 1, "questionText": "x", "difficulty": "A1", "answerType": "essay"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateDocument([]byte(tt.doc)))
		})
	}
}
