package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/store"
)

// ErrUnknownQuestion is returned when a submission names a question that
// is not in the catalog.
var ErrUnknownQuestion = errors.New("unknown question")

// Questions looks up catalog entries. *catalog.Catalog implements it.
type Questions interface {
	Question(id string) (*catalog.Question, bool)
	Rubric(id string) (string, bool)
}

// Submission is an answer sent for evaluation.
type Submission struct {
	UserID     string
	QuestionID string
	// Mode defaults to the question's answer type mode.
	Mode       string
	Transcript string
}

// Service grades submissions and records each as a response row.
type Service struct {
	grader    *Grader
	questions Questions
	responses store.ResponseRepo
	now       func() time.Time
}

// NewService creates a grading service.
func NewService(g *Grader, questions Questions, responses store.ResponseRepo) *Service {
	return &Service{grader: g, questions: questions, responses: responses, now: time.Now}
}

// Evaluate grades sub against its question's rubric and appends the result
// to the learner's response history.
func (s *Service) Evaluate(ctx context.Context, sub Submission) (*Grade, error) {
	q, ok := s.questions.Question(sub.QuestionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, sub.QuestionID)
	}

	mode := strings.ToLower(strings.TrimSpace(sub.Mode))
	if mode == "" {
		mode = q.AnswerType.Mode()
	}

	req := &Request{
		QuestionID: q.ID,
		Question:   q.Text,
		Band:       q.Band,
		Mode:       mode,
		Text:       sub.Transcript,
	}
	if q.RubricID != "" {
		req.Rubric, _ = s.questions.Rubric(q.RubricID)
	}

	grade, err := s.grader.Grade(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.responses != nil {
		err := s.responses.Append(ctx, &store.Response{
			UserID:      sub.UserID,
			QuestionID:  q.ID,
			Mode:        mode,
			Transcript:  sub.Transcript,
			Score:       float64(grade.Score),
			Feedback:    grade.Feedback,
			SubmittedAt: s.now(),
		})
		if err != nil {
			return nil, fmt.Errorf("record response: %w", err)
		}
	}
	return grade, nil
}
