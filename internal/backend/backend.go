// Package backend provides the quiz session's external collaborators: the
// catalog source, user registration, answer evaluation, transcription and
// summary retrieval. Client talks to the HTTP server; Local runs the same
// operations in-process over the store.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/session"
)

// Operation names carried by CollaboratorError.
const (
	OpLoadCatalog  = "load catalog"
	OpRegisterUser = "register user"
	OpEvaluate     = "evaluate answer"
	OpTranscribe   = "transcribe"
	OpFetchSummary = "fetch summary"
	OpResponses    = "list responses"
	OpRecordEvent  = "record session event"
)

// ErrEmptyName is returned by RegisterUser for a blank name.
var ErrEmptyName = errors.New("name must not be empty")

// ErrNoTranscriber is returned when transcription is not configured.
var ErrNoTranscriber = errors.New("transcription is not configured")

// CollaboratorError reports a failed collaborator call. The in-progress
// operation failed; the session itself is still usable.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func fail(op string, err error) error {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	return &CollaboratorError{Op: op, Err: err}
}

// Registration is the result of RegisterUser.
type Registration struct {
	UserID string
	// Token authenticates later calls when the server issues one.
	Token string
}

// ResponseRecord is one evaluated answer in a learner's history.
type ResponseRecord struct {
	QuestionID  string
	Mode        string
	Transcript  string
	Score       float64
	Feedback    string
	SubmittedAt time.Time
}

// SessionEvent marks a session start, restart or end.
type SessionEvent struct {
	SessionID string
	UserID    string
	Action    string
	Answered  int
	Correct   int
	Duration  time.Duration
}

// Session event actions.
const (
	ActionStart   = "start"
	ActionRestart = "restart"
	ActionEnd     = "end"
)

// Backend is everything a quiz session needs from outside the engine.
type Backend interface {
	session.Evaluator
	session.Transcriber

	LoadCatalog(ctx context.Context) (*catalog.Catalog, error)
	RegisterUser(ctx context.Context, name string) (*Registration, error)
	FetchSummary(ctx context.Context, userID string) (*session.Aggregate, error)
	Responses(ctx context.Context, userID string) ([]ResponseRecord, error)
	RecordSession(ctx context.Context, ev SessionEvent) error

	// AudioURL resolves a question's audio clip name.
	AudioURL(name string) string
}
