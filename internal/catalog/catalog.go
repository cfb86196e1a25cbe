package catalog

import (
	"errors"
	"fmt"

	"github.com/abhisek/cefrquiz/internal/cefr"
)

// ErrEmpty is returned when a catalog would contain no questions.
var ErrEmpty = errors.New("catalog has no questions")

// Catalog is the read-only question set for one session. It is built once
// and never mutated; pointers it hands out must be treated as read-only.
type Catalog struct {
	questions []Question
	byID      map[string]int
	byBand    [len(bandIndex)][]*Question
	passages  map[string]string
	rubrics   map[string]string
}

var bandIndex = [...]cefr.Band{cefr.A1, cefr.A2, cefr.B1, cefr.B2, cefr.C1, cefr.C2}

// New builds a catalog, enforcing that identifiers are unique and every
// question carries a recognized band and answer type.
func New(questions []Question, passages, rubrics map[string]string) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, ErrEmpty
	}

	c := &Catalog{
		questions: make([]Question, len(questions)),
		byID:      make(map[string]int, len(questions)),
		passages:  copyMap(passages),
		rubrics:   copyMap(rubrics),
	}
	copy(c.questions, questions)

	for i := range c.questions {
		q := &c.questions[i]
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		c.byID[q.ID] = i
		q.Choices = append([]Choice(nil), q.Choices...)
	}
	for i := range c.questions {
		q := &c.questions[i]
		c.byBand[q.Band] = append(c.byBand[q.Band], q)
	}
	return c, nil
}

// FromRecords normalizes wire records and builds a catalog. Any record
// that fails normalization rejects the whole catalog.
func FromRecords(records []Record, passages, rubrics map[string]string) (*Catalog, error) {
	questions := make([]Question, 0, len(records))
	for _, r := range records {
		q, err := r.ToQuestion()
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return New(questions, passages, rubrics)
}

func validateQuestion(q *Question) error {
	if q.ID == "" {
		return errors.New("question with empty id")
	}
	if !q.Band.Valid() {
		return fmt.Errorf("question %s: invalid difficulty band %d", q.ID, int(q.Band))
	}
	if !q.AnswerType.Valid() {
		return fmt.Errorf("question %s: unknown answer type %q", q.ID, q.AnswerType)
	}
	if q.AnswerType == MultipleChoice && len(q.Choices) == 0 {
		return fmt.Errorf("question %s: multiple-choice question has no choices", q.ID)
	}
	if q.MinWordCount < 0 {
		return fmt.Errorf("question %s: negative minimum word count", q.ID)
	}
	return nil
}

func parseDifficulty(s string) (cefr.Band, error) {
	b, err := cefr.ParseBand(s)
	if err != nil {
		return 0, fmt.Errorf("difficulty: %w", err)
	}
	return b, nil
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// Question looks up a question by id.
func (c *Catalog) Question(id string) (*Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.questions[i], true
}

// Contains reports whether id names a catalog question.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// AtBand returns the questions tagged with band b in catalog order.
// The returned slice must not be modified.
func (c *Catalog) AtBand(b cefr.Band) []*Question {
	if !b.Valid() {
		return nil
	}
	return c.byBand[b]
}

// Questions returns every question in catalog order.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// Passage returns the reading passage text for id.
func (c *Catalog) Passage(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	p, ok := c.passages[id]
	return p, ok
}

// Rubric returns the rubric text for id.
func (c *Catalog) Rubric(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	r, ok := c.rubrics[id]
	return r, ok
}

// Passages returns a copy of the passage map.
func (c *Catalog) Passages() map[string]string {
	return copyMap(c.passages)
}

// Rubrics returns a copy of the rubric map.
func (c *Catalog) Rubrics() map[string]string {
	return copyMap(c.rubrics)
}

// BandCounts returns the number of questions per band.
func (c *Catalog) BandCounts() map[cefr.Band]int {
	out := make(map[cefr.Band]int, len(bandIndex))
	for _, b := range bandIndex {
		out[b] = len(c.byBand[b])
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
