package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/cefr"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Question{
		{
			ID: "1", Text: "Capital of France?", Band: cefr.A1, Category: "geography",
			AnswerType:    catalog.MultipleChoice,
			Choices:       []catalog.Choice{{Label: "A", Text: "Paris"}, {Label: "B", Text: "Rome"}},
			CorrectAnswer: "Paris",
			Audio:         "clip1.mp3",
		},
		{
			ID: "2", Text: "Describe your town", Band: cefr.B1, Category: "writing",
			AnswerType: catalog.OpenEnded, MinWordCount: 60, WritingType: "essay", RubricID: "r1",
		},
		{
			ID: "3", Text: "Read and answer", Band: cefr.A2, AnswerType: catalog.SpokenResponse, ReadingID: "p1",
		},
	}, map[string]string{"p1": "A short passage."}, map[string]string{"r1": "Coherence and range."})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpenDriver_Unsupported(t *testing.T) {
	if _, err := OpenDriver("mysql", "x"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{tableQuestions, tableChoices, tablePassages, tableRubrics,
		tableUsers, tableResponses, tableSessions, tableLLMRequests, "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestCatalogReplaceAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Catalog()

	if _, err := repo.Load(ctx); !errors.Is(err, catalog.ErrEmpty) {
		t.Fatalf("Load on empty store error = %v, want catalog.ErrEmpty", err)
	}

	want := testCatalog(t)
	if err := repo.Replace(ctx, want); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	// Replacing twice must not duplicate rows.
	if err := repo.Replace(ctx, want); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != want.Len() {
		t.Fatalf("Len = %d, want %d", got.Len(), want.Len())
	}

	gq, wq := got.Questions(), want.Questions()
	for i := range wq {
		if fmt.Sprintf("%+v", gq[i]) != fmt.Sprintf("%+v", wq[i]) {
			t.Errorf("question %d = %+v, want %+v", i, gq[i], wq[i])
		}
	}

	if p, _ := got.Passage("p1"); p != "A short passage." {
		t.Errorf("passage = %q", p)
	}
	if r, _ := got.Rubric("r1"); r != "Coherence and range." {
		t.Errorf("rubric = %q", r)
	}
}

func TestUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Users()

	if _, err := repo.Register(ctx, "   "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Register(blank) error = %v, want ErrEmptyName", err)
	}

	u, err := repo.Register(ctx, "  Ada ")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Name != "Ada" || u.ID == "" {
		t.Errorf("user = %+v", u)
	}

	got, err := repo.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Ada" || !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("Get = %+v, want %+v", got, u)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestResponsesAndSummary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Responses()

	sum, err := repo.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("Summary (empty): %v", err)
	}
	if sum.TotalSubmissions != 0 || sum.AverageScore != 0 {
		t.Errorf("empty summary = %+v", sum)
	}

	base := time.Now().UTC().Truncate(time.Second)
	rows := []Response{
		{UserID: "u1", QuestionID: "2", Mode: "writing", Transcript: "text", Score: 3, SubmittedAt: base},
		{UserID: "u2", QuestionID: "2", Mode: "writing", Transcript: "other", Score: 1, SubmittedAt: base},
		{UserID: "u1", QuestionID: "3", Mode: "speaking", Transcript: "spoken", Score: 4, SubmittedAt: base.Add(time.Minute)},
	}
	for i := range rows {
		if err := repo.Append(ctx, &rows[i]); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if rows[2].Sequence <= rows[0].Sequence {
		t.Errorf("sequences not increasing: %d then %d", rows[0].Sequence, rows[2].Sequence)
	}

	sum, err = repo.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.TotalSubmissions != 2 || sum.AverageScore != 3.5 {
		t.Errorf("totals = %d, %v; want 2, 3.5", sum.TotalSubmissions, sum.AverageScore)
	}
	if sum.MostRecentMode != "speaking" || sum.MostRecentScore != 4 {
		t.Errorf("most recent = %s %v; want speaking 4", sum.MostRecentMode, sum.MostRecentScore)
	}
	if !sum.LastUpdated.Equal(base.Add(time.Minute)) {
		t.Errorf("LastUpdated = %v, want %v", sum.LastUpdated, base.Add(time.Minute))
	}

	history, err := repo.ForUser(ctx, "u1", QueryOpts{})
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(history) != 2 || history[0].QuestionID != "2" || history[1].QuestionID != "3" {
		t.Errorf("history = %+v", history)
	}

	limited, err := repo.ForUser(ctx, "u1", QueryOpts{After: rows[0].Sequence, Limit: 5})
	if err != nil {
		t.Fatalf("ForUser(After): %v", err)
	}
	if len(limited) != 1 || limited[0].Mode != "speaking" {
		t.Errorf("ForUser(After) = %+v", limited)
	}

	ranged, err := repo.ForUser(ctx, "u1", QueryOpts{To: base})
	if err != nil {
		t.Fatalf("ForUser(To): %v", err)
	}
	if len(ranged) != 1 || ranged[0].Mode != "writing" {
		t.Errorf("ForUser(To) = %+v", ranged)
	}
}

func TestSessionEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Events()

	for _, action := range []string{"start", "end"} {
		err := repo.AppendSessionEvent(ctx, SessionEventData{
			SessionID: "s1", UserID: "u1", Action: action, Answered: 3, Correct: 2,
		})
		if err != nil {
			t.Fatalf("AppendSessionEvent(%s): %v", action, err)
		}
	}

	events, err := repo.SessionEvents(ctx, "u1", QueryOpts{})
	if err != nil {
		t.Fatalf("SessionEvents: %v", err)
	}
	if len(events) != 2 || events[0].Action != "start" || events[1].Action != "end" {
		t.Errorf("events = %+v", events)
	}

	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Success: true}); err != nil {
		t.Fatalf("AppendLLMRequest: %v", err)
	}
	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "anthropic", Model: "claude", Purpose: "grade", InputTokens: 40}); err != nil {
		t.Fatalf("AppendLLMRequest: %v", err)
	}

	llmEvents, err := repo.LLMRequests(ctx, QueryOpts{Limit: 10})
	if err != nil {
		t.Fatalf("LLMRequests: %v", err)
	}
	if len(llmEvents) != 2 {
		t.Fatalf("llm events = %d, want 2", len(llmEvents))
	}
	if llmEvents[0].Provider != "anthropic" || llmEvents[0].Success || llmEvents[0].InputTokens != 40 {
		t.Errorf("newest event = %+v", llmEvents[0])
	}
	if !llmEvents[1].Success {
		t.Errorf("oldest event should be the successful mock call: %+v", llmEvents[1])
	}

	limited, err := repo.LLMRequests(ctx, QueryOpts{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Errorf("LLMRequests(limit 1) = %d, %v", len(limited), err)
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// A second counter over the same table continues the sequence.
	sc, err := newSequenceCounter(s.DB())
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}
