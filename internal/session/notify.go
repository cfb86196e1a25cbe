package session

import "github.com/abhisek/cefrquiz/internal/catalog"

// Kind identifies a state-change notification.
type Kind int

const (
	QuestionPresented Kind = iota
	AnswerAccepted
	AnswerRejected
	EvaluationCompleted
	EvaluationFailed
	Diagnostic
	SessionFinished
)

func (k Kind) String() string {
	switch k {
	case QuestionPresented:
		return "question-presented"
	case AnswerAccepted:
		return "answer-accepted"
	case AnswerRejected:
		return "answer-rejected"
	case EvaluationCompleted:
		return "evaluation-completed"
	case EvaluationFailed:
		return "evaluation-failed"
	case Diagnostic:
		return "diagnostic"
	case SessionFinished:
		return "session-finished"
	}
	return "unknown"
}

// Notification describes one state change. Only the fields relevant to
// Kind are set.
type Notification struct {
	Kind       Kind
	Question   *catalog.Question
	Entry      *ReviewEntry
	Reason     RejectReason
	Evaluation *EvaluationResult
	Message    string
	Snapshot   Snapshot
}

// Handler receives notifications. Handlers run on the goroutine that
// caused the change, which for evaluation results is a background
// goroutine; they must not block.
type Handler func(Notification)

type subscriber struct {
	id int
	fn Handler
}
