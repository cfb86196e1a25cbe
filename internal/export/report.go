// Package export renders a learner's results as a PDF document.
package export

import (
	"fmt"
	"time"

	"github.com/abhisek/cefrquiz/internal/backend"
	"github.com/abhisek/cefrquiz/internal/cefr"
	"github.com/abhisek/cefrquiz/internal/session"
)

// Report is the content of an exported summary.
type Report struct {
	Learner     string
	UserID      string
	GeneratedAt time.Time

	// Answered and Correct are the session counters; zero for a report
	// built from stored history.
	Answered int
	Correct  int

	Aggregate     *session.Aggregate
	Level         cefr.Level
	Encouragement string

	Entries []Entry
}

// Entry is one line of the transcript table.
type Entry struct {
	Band     string
	Question string
	Answer   string
	Outcome  string
}

// FromSummary builds a report for a finished session.
func FromSummary(learner string, s session.Summary) Report {
	r := Report{
		Learner:       learner,
		UserID:        s.UserID,
		GeneratedAt:   time.Now(),
		Answered:      s.Answered,
		Correct:       s.Correct,
		Aggregate:     s.Aggregate,
		Level:         s.Level,
		Encouragement: s.Encouragement,
	}

	scores := make(map[int]session.EvaluationResult, len(s.Evaluations))
	for _, ev := range s.Evaluations {
		scores[ev.Seq] = ev
	}
	for _, e := range s.Review {
		entry := Entry{Band: e.Band.String(), Question: e.QuestionText, Answer: e.Answer, Outcome: e.Correct.String()}
		if e.Payload != "" {
			entry.Answer = e.Payload
		}
		if ev, ok := scores[e.Seq]; ok {
			if ev.Failed() {
				entry.Outcome = "evaluation failed"
			} else {
				entry.Outcome = fmt.Sprintf("%.0f/5", ev.Score)
			}
		}
		r.Entries = append(r.Entries, entry)
	}
	return r
}

// FromHistory builds a report from a learner's stored responses.
func FromHistory(learner, userID string, agg *session.Aggregate, rows []backend.ResponseRecord) Report {
	r := Report{
		Learner:     learner,
		UserID:      userID,
		GeneratedAt: time.Now(),
		Aggregate:   agg,
	}
	if agg != nil {
		r.Level = cefr.LevelForScore(agg.AverageScore)
		r.Encouragement = cefr.Encouragement(r.Level)
	}
	for _, row := range rows {
		r.Entries = append(r.Entries, Entry{
			Band:     row.Mode,
			Question: "Question " + row.QuestionID,
			Answer:   row.Transcript,
			Outcome:  fmt.Sprintf("%.0f/5", row.Score),
		})
	}
	return r
}
