package session

import "github.com/abhisek/cefrquiz/internal/cefr"

// Summary is the end-of-session report.
type Summary struct {
	SessionID string
	UserID    string
	Answered  int
	Correct   int
	Accuracy  float64

	Review      []ReviewEntry
	Evaluations []EvaluationResult

	// Aggregate, Level and Encouragement come from the evaluation service's
	// summary; they are empty when no aggregate was supplied.
	Aggregate     *Aggregate
	Level         cefr.Level
	Encouragement string
}

// Accuracy returns correct/answered, or 0 when nothing was answered.
func Accuracy(correct, answered int) float64 {
	if answered <= 0 {
		return 0
	}
	return float64(correct) / float64(answered)
}

// Summary builds the report. The CEFR level is derived from agg's average
// score, never from the session's own running count.
func (e *Engine) Summary(agg *Aggregate) Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Summary{
		SessionID:   e.id,
		UserID:      e.cfg.UserID,
		Answered:    e.answered,
		Correct:     e.correct,
		Accuracy:    Accuracy(e.correct, e.answered),
		Review:      append([]ReviewEntry(nil), e.review...),
		Evaluations: append([]EvaluationResult(nil), e.evaluations...),
	}
	if agg != nil {
		a := *agg
		s.Aggregate = &a
		s.Level = cefr.LevelForScore(a.AverageScore)
		s.Encouragement = cefr.Encouragement(s.Level)
	}
	return s
}
