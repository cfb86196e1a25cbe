package session

import (
	"context"
	"log"
	"time"
)

// Evaluation is the evaluation service's grade for one answer.
type Evaluation struct {
	Score    float64
	Feedback string
}

// Evaluator grades open-ended and spoken answers.
type Evaluator interface {
	EvaluateAnswer(ctx context.Context, userID, questionID, mode, payload string) (*Evaluation, error)
}

// Transcriber converts a spoken recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Aggregate is the learner's externally computed score summary.
type Aggregate struct {
	TotalSubmissions int
	AverageScore     float64
	MostRecentMode   string
	MostRecentScore  float64
	LastUpdated      time.Time
}

// Logger receives operator diagnostics.
type Logger interface {
	Printf(format string, args ...any)
}

var _ Logger = (*log.Logger)(nil)
