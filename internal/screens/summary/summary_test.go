package summary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cefrquiz/internal/backend"
	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/cefr"
	"github.com/abhisek/cefrquiz/internal/router"
	"github.com/abhisek/cefrquiz/internal/screen"
	"github.com/abhisek/cefrquiz/internal/session"
)

// fakeBackend serves LoadCatalog; other methods are unused here.
type fakeBackend struct {
	backend.Backend
	cat *catalog.Catalog
	err error
}

func (f *fakeBackend) LoadCatalog(context.Context) (*catalog.Catalog, error) {
	return f.cat, f.err
}

type stubScreen struct{}

func (stubScreen) Init() tea.Cmd                             { return nil }
func (s stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (stubScreen) View(int, int) string                      { return "" }
func (stubScreen) Title() string                             { return "next" }

func testSummary() session.Summary {
	agg := &session.Aggregate{TotalSubmissions: 3, AverageScore: 3.0}
	return session.Summary{
		UserID:   "7",
		Answered: 4,
		Correct:  3,
		Accuracy: 0.75,
		Review: []session.ReviewEntry{
			{Seq: 1, QuestionText: "Choose the past tense of go.", Band: cefr.A1, Answer: "went", CorrectAnswer: "went", Correct: session.Correct},
			{Seq: 2, QuestionText: "Describe your town.", Band: cefr.A2, Answer: session.PendingEvaluation, Payload: "My town is small.", Correct: session.Unknown},
		},
		Evaluations:   []session.EvaluationResult{{Seq: 2, QuestionID: "2", Mode: "writing", Score: 3, Feedback: "Good."}},
		Aggregate:     agg,
		Level:         cefr.LevelForScore(agg.AverageScore),
		Encouragement: cefr.Encouragement(cefr.LevelB1),
	}
}

func newTestScreen(t *testing.T, b backend.Backend) *Screen {
	t.Helper()
	s := New(Config{
		Backend:   b,
		Learner:   "Ada",
		ExportDir: t.TempDir(),
		Summary:   testSummary(),
		Restart:   func(*catalog.Catalog) screen.Screen { return stubScreen{} },
	})
	s.nowFunc = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func press(s *Screen, key string) tea.Cmd {
	_, cmd := s.Update(tea.KeyPressMsg{Code: rune(key[0]), Text: key})
	return cmd
}

func TestSummaryScreen_TitleAndStatus(t *testing.T) {
	s := newTestScreen(t, &fakeBackend{})
	if s.Title() != "Session Summary" {
		t.Errorf("Title = %q, want %q", s.Title(), "Session Summary")
	}
	if s.Status() != "Level B1" {
		t.Errorf("Status = %q, want %q", s.Status(), "Level B1")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	s := newTestScreen(t, &fakeBackend{})
	view := s.View(100, 40)
	for _, want := range []string{"Estimated CEFR level: B1", "Keep climbing", "Answered: 4", "3/5", "Export PDF"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSummaryScreen_AggregateUnavailable(t *testing.T) {
	sum := testSummary()
	sum.Aggregate = nil
	sum.Level = ""
	s := New(Config{Summary: sum, AggregateErr: errors.New("server down")})

	if s.Status() != "" {
		t.Errorf("Status = %q, want empty", s.Status())
	}
	if !strings.Contains(s.View(100, 40), "server down") {
		t.Error("view should explain why the level is missing")
	}
}

func TestSummaryScreen_ExportPDF(t *testing.T) {
	s := newTestScreen(t, &fakeBackend{})

	cmd := press(s, "p")
	if cmd == nil {
		t.Fatal("expected an export command")
	}
	msg, ok := cmd().(exportedMsg)
	if !ok {
		t.Fatalf("expected exportedMsg, got %T", msg)
	}
	if msg.Err != nil {
		t.Fatalf("export: %v", msg.Err)
	}
	if filepath.Base(msg.Path) != "cefr-summary-ada-20260102-030405.pdf" {
		t.Errorf("path = %q", msg.Path)
	}
	if _, err := os.Stat(msg.Path); err != nil {
		t.Errorf("report not written: %v", err)
	}

	s.Update(msg)
	if !strings.Contains(s.status, "Saved") {
		t.Errorf("status = %q, want a saved notice", s.status)
	}
}

func TestSummaryScreen_Restart(t *testing.T) {
	cat, err := catalog.New([]catalog.Question{{
		ID: "1", Text: "Pick one", Band: cefr.A1, AnswerType: catalog.MultipleChoice,
		Choices: []catalog.Choice{{Label: "A", Text: "yes"}}, CorrectAnswer: "yes",
	}}, nil, nil)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	s := newTestScreen(t, &fakeBackend{cat: cat})

	cmd := press(s, "r")
	if cmd == nil {
		t.Fatal("expected a reload command")
	}
	reloaded, ok := cmd().(reloadedMsg)
	if !ok || reloaded.Catalog != cat {
		t.Fatalf("unexpected reload result %+v", reloaded)
	}

	_, next := s.Update(reloaded)
	if next == nil {
		t.Fatal("expected a navigation command")
	}
	replace, ok := next().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", replace)
	}
	if replace.Screen.Title() != "next" {
		t.Errorf("replaced with %q", replace.Screen.Title())
	}
}

func TestSummaryScreen_RestartFailure(t *testing.T) {
	s := newTestScreen(t, &fakeBackend{err: errors.New("no catalog")})
	msg := press(s, "r")()
	_, cmd := s.Update(msg)
	if cmd != nil {
		t.Error("failed reload should not navigate")
	}
	if !strings.Contains(s.status, "no catalog") {
		t.Errorf("status = %q", s.status)
	}
}

func TestSummaryScreen_Quit(t *testing.T) {
	s := newTestScreen(t, &fakeBackend{})
	cmd := press(s, "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestSummaryScreen_RestartDisabledWithoutCallback(t *testing.T) {
	s := New(Config{Summary: testSummary()})
	if cmd := press(s, "r"); cmd != nil {
		t.Error("restart should be disabled without a callback")
	}
}
