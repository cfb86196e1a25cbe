package session

import (
	"context"
	"testing"

	"github.com/abhisek/cefrquiz/internal/cefr"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		correct, answered int
		want              float64
	}{
		{0, 0, 0},
		{3, 4, 0.75},
		{5, 5, 1},
	}
	for _, tt := range tests {
		if got := Accuracy(tt.correct, tt.answered); got != tt.want {
			t.Errorf("Accuracy(%d, %d) = %v, want %v", tt.correct, tt.answered, got, tt.want)
		}
	}
}

func TestSummary_LevelFromAggregate(t *testing.T) {
	e := New(testCatalog(t, mc("q1", cefr.A1, "Paris"), mc("q2", cefr.A1, "Paris")), DefaultConfig(), seeded())
	e.Advance()
	e.Submit(context.Background(), Response{Choice: "Rome"})

	s := e.Summary(&Aggregate{TotalSubmissions: 10, AverageScore: 3.5})
	if s.Level != cefr.LevelB2 {
		t.Errorf("Level = %s, want B2", s.Level)
	}
	if s.Encouragement == "" {
		t.Error("Encouragement is empty")
	}
	if s.Answered != 1 || s.Correct != 0 || s.Accuracy != 0 {
		t.Errorf("counters = %d/%d accuracy %v", s.Correct, s.Answered, s.Accuracy)
	}
	if len(s.Review) != 1 {
		t.Errorf("len(Review) = %d, want 1", len(s.Review))
	}
}

func TestSummary_NoAggregate(t *testing.T) {
	e := New(testCatalog(t, mc("q", cefr.A1, "Paris")), DefaultConfig(), seeded())
	s := e.Summary(nil)
	if s.Level != "" || s.Aggregate != nil {
		t.Errorf("summary without aggregate = %+v", s)
	}
	if s.Accuracy != 0 {
		t.Errorf("Accuracy = %v, want 0", s.Accuracy)
	}
}
