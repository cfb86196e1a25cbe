package grading

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/cefr"
	"github.com/abhisek/cefrquiz/internal/llm"
	"github.com/abhisek/cefrquiz/internal/store"
)

func TestGrader_Heuristic(t *testing.T) {
	g := NewGrader(nil, DefaultConfig())

	tests := []struct {
		name      string
		req       Request
		wantScore int
		wantText  string
	}{
		{
			name:      "writing with rubric",
			req:       Request{Mode: ModeWriting, Rubric: "Use linking words.", Text: strings.Repeat("word ", 25)},
			wantScore: 2,
			wantText:  "Scored based on rubric: Use linking words....",
		},
		{
			name:      "speaking",
			req:       Request{Mode: ModeSpeaking, Text: "I enjoy reading books."},
			wantScore: 3,
			wantText:  "Vocabulary 0/5, sentence length 4/5, fluency 5/5.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Grade(context.Background(), &tt.req)
			if err != nil {
				t.Fatalf("Grade: %v", err)
			}
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Feedback != tt.wantText {
				t.Errorf("Feedback = %q, want %q", got.Feedback, tt.wantText)
			}
			if got.Source != SourceHeuristic {
				t.Errorf("Source = %s, want %s", got.Source, SourceHeuristic)
			}
		})
	}
}

func TestGrader_UnknownMode(t *testing.T) {
	g := NewGrader(nil, DefaultConfig())
	_, err := g.Grade(context.Background(), &Request{Mode: "reading"})
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("error = %v, want ErrUnknownMode", err)
	}
}

func TestGrader_Model(t *testing.T) {
	m := llm.NewMock(llm.Reply{JSON: `{"score":4,"feedback":"Good use of linking words."}`})
	g := NewGrader(m, DefaultConfig())

	got, err := g.Grade(context.Background(), &Request{
		QuestionID: "q1",
		Question:   "Describe your town.",
		Band:       cefr.B1,
		Mode:       ModeWriting,
		Text:       "My town is small but lively.",
		Rubric:     "Use linking words.",
	})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if got.Score != 4 || got.Source != SourceModel {
		t.Errorf("grade = %+v, want score 4 from model", got)
	}

	prompts := m.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(prompts))
	}
	for _, want := range []string{"Level: B1", "Mode: writing", "Rubric: Use linking words.", "My town is small"} {
		if !strings.Contains(prompts[0].User, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompts[0].User)
		}
	}
	if prompts[0].Schema != GradeSchema {
		t.Error("prompt does not request GradeSchema")
	}
}

func TestGrader_ModelFailureFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		reply llm.Reply
	}{
		{"provider error", llm.Reply{Err: &llm.Error{Kind: llm.KindUnavailable}}},
		{"off-schema output", llm.Reply{JSON: `{"score":9,"feedback":"x"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			g := NewGrader(llm.NewMock(tt.reply), DefaultConfig())
			g.SetLogger(log.New(&logs, "", 0))

			got, err := g.Grade(context.Background(), &Request{QuestionID: "q9", Mode: ModeSpeaking, Text: "Hello there friend."})
			if err != nil {
				t.Fatalf("Grade: %v", err)
			}
			if got.Source != SourceHeuristic || got.Score != 3 {
				t.Errorf("grade = %+v, want heuristic score 3", got)
			}
			if !strings.Contains(logs.String(), "q9") {
				t.Errorf("log = %q, want question id", logs.String())
			}
		})
	}
}

func TestGrader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGrader(llm.NewMock(llm.Reply{Err: context.Canceled}), DefaultConfig())
	_, err := g.Grade(ctx, &Request{Mode: ModeWriting})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Question{
		{ID: "w1", Text: "Write about your weekend.", Band: cefr.A2, AnswerType: catalog.OpenEnded, RubricID: "r1"},
		{ID: "s1", Text: "Talk about your hobby.", Band: cefr.B1, AnswerType: catalog.SpokenResponse},
	}, nil, map[string]string{"r1": "Mention at least two activities."})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func TestService_Evaluate(t *testing.T) {
	st, err := store.Open("file:grading-test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc := NewService(NewGrader(nil, DefaultConfig()), testCatalog(t), st.Responses())
	ctx := context.Background()

	grade, err := svc.Evaluate(ctx, Submission{UserID: "u1", QuestionID: "w1", Transcript: strings.Repeat("fun ", 42)})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if grade.Score != 4 {
		t.Errorf("Score = %d, want 4", grade.Score)
	}
	if !strings.Contains(grade.Feedback, "Mention at least two") {
		t.Errorf("Feedback = %q, want rubric excerpt", grade.Feedback)
	}

	if _, err := svc.Evaluate(ctx, Submission{UserID: "u1", QuestionID: "s1", Mode: "Speaking", Transcript: "I enjoy reading books."}); err != nil {
		t.Fatalf("Evaluate spoken: %v", err)
	}

	rows, err := st.Responses().ForUser(ctx, "u1", store.QueryOpts{})
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("responses = %d, want 2", len(rows))
	}
	modes := map[string]bool{}
	for _, r := range rows {
		modes[r.Mode] = true
	}
	if !modes[ModeWriting] || !modes[ModeSpeaking] {
		t.Errorf("modes = %v, want writing and speaking", modes)
	}
}

func TestService_UnknownQuestion(t *testing.T) {
	svc := NewService(NewGrader(nil, DefaultConfig()), testCatalog(t), nil)
	_, err := svc.Evaluate(context.Background(), Submission{QuestionID: "nope"})
	if !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("error = %v, want ErrUnknownQuestion", err)
	}
}
