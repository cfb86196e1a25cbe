// Package session implements the quiz Session Engine: question selection,
// difficulty progression, answer checking and the review log.
package session

import (
	"fmt"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/cefr"
)

// Phase is the lifecycle phase of a session.
type Phase int

const (
	PhaseIdle       Phase = iota // No question drawn yet
	PhaseInProgress              // A current question is live
	PhaseFinished                // Terminal; summary eligible
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInProgress:
		return "in-progress"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// DefaultMaxQuestions is the session length used when none is configured.
const DefaultMaxQuestions = 60

// Config holds per-session settings. It is fixed when the engine is built.
type Config struct {
	// UserID identifies the learner to the evaluation service.
	UserID string

	// MaxQuestions caps the number of answered questions.
	MaxQuestions int

	// EscalateEvery moves the difficulty up one band after every N served
	// questions. Zero disables periodic escalation.
	EscalateEvery int

	// StartBand is the band the first question is drawn from.
	StartBand cefr.Band
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxQuestions: DefaultMaxQuestions,
		StartBand:    cefr.A1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxQuestions <= 0 {
		return fmt.Errorf("max questions must be positive, got %d", c.MaxQuestions)
	}
	if c.EscalateEvery < 0 {
		return fmt.Errorf("escalate every must not be negative, got %d", c.EscalateEvery)
	}
	if !c.StartBand.Valid() {
		return fmt.Errorf("invalid start band %d", int(c.StartBand))
	}
	return nil
}

// Snapshot is a read-only view of the session for renderers.
type Snapshot struct {
	Phase Phase
	Band  cefr.Band

	// Current is a copy of the live question, nil before the first draw
	// and after termination.
	Current         *catalog.Question
	CurrentAnswered bool

	// Passage and Rubric are the texts attached to the current question.
	Passage string
	Rubric  string

	Served        int
	Answered      int
	Correct       int
	MaxQuestions  int
	ConsumedCount int

	// Pending is true while an evaluation or transcription is outstanding.
	Pending bool
}

// Remaining returns how many more questions may be answered.
func (s Snapshot) Remaining() int {
	if n := s.MaxQuestions - s.Answered; n > 0 {
		return n
	}
	return 0
}
