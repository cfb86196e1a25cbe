package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted is returned when the engine has no catalog loaded.
	ErrNotStarted = errors.New("session not started")

	// ErrFinished is returned for operations on a finished session.
	ErrFinished = errors.New("session finished")

	// ErrEvaluationPending is returned while an evaluation for the current
	// question is outstanding.
	ErrEvaluationPending = errors.New("evaluation pending")

	// ErrAnswerRequired is returned by Advance when the live question has
	// not been answered yet.
	ErrAnswerRequired = errors.New("current question has not been answered")

	// ErrNoTranscriber is returned when a spoken answer arrives and the
	// engine was built without a Transcriber.
	ErrNoTranscriber = errors.New("no transcriber configured")

	// ErrRejected matches every *RejectionError.
	ErrRejected = errors.New("answer rejected")
)

// RejectReason says why a submission was refused.
type RejectReason string

const (
	ReasonNoSelection       RejectReason = "no-selection"
	ReasonUnknownChoice     RejectReason = "unknown-choice"
	ReasonUnderWordCount    RejectReason = "under-word-count"
	ReasonEmptyRecording    RejectReason = "empty-recording"
	ReasonEmptyTranscript   RejectReason = "empty-transcript"
	ReasonNoCurrentQuestion RejectReason = "no-current-question"
)

// RejectionError reports a submission that left the session unchanged.
// The caller may correct the response and submit again.
type RejectionError struct {
	Reason RejectReason

	// Words and Required are set for ReasonUnderWordCount.
	Words    int
	Required int

	// Choice is set for ReasonUnknownChoice.
	Choice string
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonNoSelection:
		return "answer rejected: no choice selected"
	case ReasonUnknownChoice:
		return fmt.Sprintf("answer rejected: %q is not one of the choices", e.Choice)
	case ReasonUnderWordCount:
		return fmt.Sprintf("answer rejected: %d words, need at least %d", e.Words, e.Required)
	case ReasonEmptyRecording:
		return "answer rejected: recording is empty"
	case ReasonEmptyTranscript:
		return "answer rejected: transcript is empty"
	case ReasonNoCurrentQuestion:
		return "answer rejected: no question awaiting an answer"
	}
	return fmt.Sprintf("answer rejected: %s", e.Reason)
}

// Is makes errors.Is(err, ErrRejected) hold for every rejection.
func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

// RejectionReason extracts the reason from a rejection error.
func RejectionReason(err error) (RejectReason, bool) {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
