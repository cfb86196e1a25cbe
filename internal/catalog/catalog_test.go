package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cefrquiz/internal/cefr"
)

func mcQuestion(id string, band cefr.Band) Question {
	return Question{
		ID:            id,
		Text:          "Capital of France?",
		Band:          band,
		Category:      "geography",
		AnswerType:    MultipleChoice,
		Choices:       []Choice{{Label: "A", Text: "Paris"}, {Label: "B", Text: "Rome"}},
		CorrectAnswer: "Paris",
	}
}

func TestNew_IndexesByBand(t *testing.T) {
	c, err := New([]Question{
		mcQuestion("1", cefr.A1),
		mcQuestion("2", cefr.A1),
		mcQuestion("3", cefr.B2),
	}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Len(t, c.AtBand(cefr.A1), 2)
	assert.Len(t, c.AtBand(cefr.B2), 1)
	assert.Empty(t, c.AtBand(cefr.C2))
	assert.Nil(t, c.AtBand(cefr.Band(42)))

	counts := c.BandCounts()
	assert.Equal(t, 2, counts[cefr.A1])
	assert.Equal(t, 0, counts[cefr.C1])
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	_, err := New([]Question{mcQuestion("1", cefr.A1), mcQuestion("1", cefr.A2)}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNew_RejectsInvalidBand(t *testing.T) {
	_, err := New([]Question{mcQuestion("1", cefr.Band(6))}, nil, nil)
	require.Error(t, err)
}

func TestNew_RejectsEmpty(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestNew_CopiesInput(t *testing.T) {
	qs := []Question{mcQuestion("1", cefr.A1)}
	c, err := New(qs, map[string]string{"r1": "text"}, nil)
	require.NoError(t, err)

	qs[0].Text = "mutated"
	qs[0].Choices[0].Text = "mutated"

	q, ok := c.Question("1")
	require.True(t, ok)
	assert.Equal(t, "Capital of France?", q.Text)
	assert.Equal(t, "Paris", q.Choices[0].Text)

	p, ok := c.Passage("r1")
	assert.True(t, ok)
	assert.Equal(t, "text", p)
	_, ok = c.Passage("")
	assert.False(t, ok)
}

func TestRecordDecoding_ChoiceShapes(t *testing.T) {
	raw := `[{
		"question_id": 7,
		"questionText": "Pick one",
		"category": "grammar",
		"difficulty": "b1",
		"answerType": "multiple-choice",
		"correctAnswer": " went ",
		"minWordCount": null,
		"readingId": 3,
		"choices": [
			"go",
			{"id": 1, "label": "B", "choice_text": "went"},
			{"label": "C", "text": "gone"},
			{"value": "going"}
		]
	}]`

	var recs []Record
	require.NoError(t, json.Unmarshal([]byte(raw), &recs))

	c, err := FromRecords(recs, nil, nil)
	require.NoError(t, err)

	q, ok := c.Question("7")
	require.True(t, ok)
	assert.Equal(t, cefr.B1, q.Band)
	assert.Equal(t, "went", q.CorrectAnswer)
	assert.Equal(t, "3", q.ReadingID)
	assert.Equal(t, []string{"go", "went", "gone", "going"}, q.ChoiceTexts())
	assert.Equal(t, "1", q.Choices[0].Label)
	assert.Equal(t, "B", q.Choices[1].Label)
}

func TestRecordDecoding_Defaults(t *testing.T) {
	raw := `{"id": "w1", "questionText": "Describe your town", "difficulty": "A2", "answerType": "open-ended"}`
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	q, err := rec.ToQuestion()
	require.NoError(t, err)
	assert.Equal(t, "w1", q.ID)
	assert.Equal(t, OpenEnded, q.AnswerType)
	assert.Equal(t, DefaultMinWordCount, q.RequiredWords())
}

func TestRecordDecoding_Errors(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{"missing id", Record{QuestionText: "x", Difficulty: "A1"}},
		{"bad band", Record{ID: "1", QuestionText: "x", Difficulty: "D4"}},
		{"bad answer type", Record{ID: "1", QuestionText: "x", Difficulty: "A1", AnswerType: "essay"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rec.ToQuestion()
			assert.Error(t, err)
		})
	}
}

func TestRecordRoundTripThroughQuestion(t *testing.T) {
	q := mcQuestion("9", cefr.C1)
	q.RubricID = "r2"
	back, err := FromQuestion(q).ToQuestion()
	require.NoError(t, err)
	assert.Equal(t, q, back)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Normalize(" Paris "), Normalize("paris"))
	assert.True(t, AnswersMatch(" Paris ", "paris"))
	assert.False(t, AnswersMatch("Pari", "Paris"))
}

func TestOffersChoice(t *testing.T) {
	q := &Question{AnswerType: MultipleChoice, Choices: []Choice{{Label: "A", Text: "Paris"}, {Label: "B", Text: "Rome"}}}
	assert.True(t, q.OffersChoice(" paris "))
	assert.True(t, q.OffersChoice("ROME"))
	assert.False(t, q.OffersChoice("Madrid"))
	assert.False(t, q.OffersChoice("A"))
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{" one  two\nthree\t", 3},
	}
	for _, tt := range tests {
		if got := WordCount(tt.in); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
