// Package catalog holds the immutable question catalog a quiz session draws from.
package catalog

import (
	"strings"

	"github.com/abhisek/cefrquiz/internal/cefr"
)

// AnswerType selects how a question is answered and scored.
type AnswerType string

const (
	MultipleChoice AnswerType = "multiple-choice"
	OpenEnded      AnswerType = "open-ended"
	SpokenResponse AnswerType = "spoken-response"
)

// Valid reports whether t is a recognized answer type.
func (t AnswerType) Valid() bool {
	switch t {
	case MultipleChoice, OpenEnded, SpokenResponse:
		return true
	}
	return false
}

// Mode returns the evaluation mode the backend expects for this answer type.
// Multiple-choice answers are scored locally and have no mode.
func (t AnswerType) Mode() string {
	switch t {
	case OpenEnded:
		return "writing"
	case SpokenResponse:
		return "speaking"
	}
	return ""
}

// DefaultMinWordCount applies to open-ended questions that don't set one.
const DefaultMinWordCount = 50

// Choice is one option of a multiple-choice question.
type Choice struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is a single catalog entry.
type Question struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Band       cefr.Band  `json:"difficulty"`
	Category   string     `json:"category"`
	AnswerType AnswerType `json:"answer_type"`

	// Choices and CorrectAnswer apply to multiple-choice questions.
	Choices       []Choice `json:"choices,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`

	// MinWordCount and WritingType apply to open-ended questions.
	MinWordCount int    `json:"min_word_count,omitempty"`
	WritingType  string `json:"writing_type,omitempty"`

	ReadingID string `json:"reading_id,omitempty"`
	RubricID  string `json:"rubric_id,omitempty"`
	Audio     string `json:"audio,omitempty"`
	Image     string `json:"image,omitempty"`
}

// RequiredWords returns the minimum word count for an open-ended answer.
func (q *Question) RequiredWords() int {
	if q.MinWordCount > 0 {
		return q.MinWordCount
	}
	return DefaultMinWordCount
}

// HasCorrectAnswer reports whether a multiple-choice question can be scored.
func (q *Question) HasCorrectAnswer() bool {
	return strings.TrimSpace(q.CorrectAnswer) != ""
}

// ChoiceTexts returns the choice texts in display order.
func (q *Question) ChoiceTexts() []string {
	out := make([]string, len(q.Choices))
	for i, c := range q.Choices {
		out[i] = c.Text
	}
	return out
}

// OffersChoice reports whether submitted is one of the question's choices
// under Normalize.
func (q *Question) OffersChoice(submitted string) bool {
	for _, c := range q.Choices {
		if AnswersMatch(submitted, c.Text) {
			return true
		}
	}
	return false
}

// Normalize prepares an answer string for comparison: surrounding
// whitespace is trimmed and case is folded.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AnswersMatch compares a submitted choice against the correct answer
// under Normalize.
func AnswersMatch(submitted, correct string) bool {
	return Normalize(submitted) == Normalize(correct)
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
