package session

import (
	"time"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/cefr"
)

// PendingEvaluation stands in for the answer of open-ended and spoken
// questions, which are graded by the evaluation service.
const PendingEvaluation = "(pending evaluation)"

// Correctness is the outcome recorded for a review entry.
type Correctness int

const (
	Unknown Correctness = iota // Grading delegated to the evaluation service
	Correct
	Incorrect
)

func (c Correctness) String() string {
	switch c {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	}
	return "unknown"
}

// ReviewEntry is one accepted answer. Entries are append-only and are
// never modified after they are recorded.
type ReviewEntry struct {
	Seq          int
	QuestionID   string
	QuestionText string
	Band         cefr.Band
	AnswerType   catalog.AnswerType

	// Answer is the selected choice text, or PendingEvaluation.
	Answer string

	// CorrectAnswer is empty for open-ended and spoken questions.
	CorrectAnswer string
	Correct       Correctness

	// Payload is the written text or transcript sent for evaluation.
	Payload string

	AnsweredAt time.Time
}

// EvaluationResult is the authoritative grade for a review entry. It is
// kept apart from the entry so the review log stays immutable.
type EvaluationResult struct {
	Seq        int
	QuestionID string
	Mode       string
	Score      float64
	Feedback   string
	Err        error
}

// Failed reports whether the evaluation call failed.
func (r EvaluationResult) Failed() bool {
	return r.Err != nil
}
