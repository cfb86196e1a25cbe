package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is the wire shape of a question as served by GET /questions.
// It is only used at the ingestion boundary; the rest of the program
// works with Question.
type Record struct {
	ID            FlexID         `json:"question_id"`
	LegacyID      FlexID         `json:"id,omitempty"`
	QuestionText  string         `json:"questionText"`
	Category      string         `json:"category"`
	Difficulty    string         `json:"difficulty"`
	AnswerType    string         `json:"answerType"`
	CorrectAnswer *string        `json:"correctAnswer"`
	MinWordCount  *int           `json:"minWordCount"`
	WritingType   *string        `json:"writingType"`
	RubricID      FlexID         `json:"rubricId,omitempty"`
	ReadingID     FlexID         `json:"readingId,omitempty"`
	Audio         *string        `json:"audio"`
	Image         *string        `json:"image,omitempty"`
	Choices       []ChoiceRecord `json:"choices"`
}

// ChoiceRecord accepts every choice shape the backend has produced: a bare
// string, or an object carrying the text under choice_text, text or value.
type ChoiceRecord struct {
	ID    FlexID `json:"id,omitempty"`
	Label string `json:"label"`
	Text  string `json:"choice_text"`
}

func (c *ChoiceRecord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChoiceRecord{Text: s}
		return nil
	}

	var raw struct {
		ID         FlexID `json:"id"`
		Label      string `json:"label"`
		ChoiceText string `json:"choice_text"`
		Text       string `json:"text"`
		Value      string `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("choice: %w", err)
	}
	text := raw.ChoiceText
	if text == "" {
		text = raw.Text
	}
	if text == "" {
		text = raw.Value
	}
	*c = ChoiceRecord{ID: raw.ID, Label: raw.Label, Text: text}
	return nil
}

// FlexID is an identifier the backend may encode as a JSON number or string.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// ToQuestion normalizes a wire record into a Question. Choice text
// fallbacks are resolved here once so renderers never inspect raw records.
func (r Record) ToQuestion() (Question, error) {
	id := string(r.ID)
	if id == "" {
		id = string(r.LegacyID)
	}
	if id == "" {
		return Question{}, fmt.Errorf("question %q: missing id", r.QuestionText)
	}

	band, err := parseDifficulty(r.Difficulty)
	if err != nil {
		return Question{}, fmt.Errorf("question %s: %w", id, err)
	}

	at := AnswerType(strings.ToLower(strings.TrimSpace(r.AnswerType)))
	if at == "" {
		at = MultipleChoice
	}
	if !at.Valid() {
		return Question{}, fmt.Errorf("question %s: unknown answer type %q", id, r.AnswerType)
	}

	q := Question{
		ID:            id,
		Text:          r.QuestionText,
		Band:          band,
		Category:      r.Category,
		AnswerType:    at,
		CorrectAnswer: deref(r.CorrectAnswer),
		WritingType:   deref(r.WritingType),
		ReadingID:     string(r.ReadingID),
		RubricID:      string(r.RubricID),
		Audio:         deref(r.Audio),
		Image:         deref(r.Image),
	}
	if r.MinWordCount != nil {
		q.MinWordCount = *r.MinWordCount
	}

	for i, c := range r.Choices {
		label := c.Label
		if label == "" {
			label = strconv.Itoa(i + 1)
		}
		q.Choices = append(q.Choices, Choice{Label: label, Text: strings.TrimSpace(c.Text)})
	}
	return q, nil
}

// FromQuestion converts a Question back to its wire record.
func FromQuestion(q Question) Record {
	r := Record{
		ID:            FlexID(q.ID),
		QuestionText:  q.Text,
		Category:      q.Category,
		Difficulty:    q.Band.String(),
		AnswerType:    string(q.AnswerType),
		CorrectAnswer: ptr(q.CorrectAnswer),
		WritingType:   ptr(q.WritingType),
		RubricID:      FlexID(q.RubricID),
		ReadingID:     FlexID(q.ReadingID),
		Audio:         ptr(q.Audio),
		Image:         ptr(q.Image),
		Choices:       make([]ChoiceRecord, 0, len(q.Choices)),
	}
	if q.MinWordCount > 0 {
		n := q.MinWordCount
		r.MinWordCount = &n
	}
	for _, c := range q.Choices {
		r.Choices = append(r.Choices, ChoiceRecord{Label: c.Label, Text: c.Text})
	}
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
