package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/cefrquiz/internal/backend"
	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/cefr"
	"github.com/abhisek/cefrquiz/internal/session"
)

func sampleSummary() session.Summary {
	return session.Summary{
		UserID:   "u-1",
		Answered: 2,
		Correct:  2,
		Review: []session.ReviewEntry{
			{Seq: 1, QuestionText: "Capital of France?", Band: cefr.A1, AnswerType: catalog.MultipleChoice,
				Answer: "Paris", CorrectAnswer: "Paris", Correct: session.Correct},
			{Seq: 2, QuestionText: "Describe your town.", Band: cefr.B1, AnswerType: catalog.OpenEnded,
				Answer: session.PendingEvaluation, Payload: "My town is small.", Correct: session.Unknown},
		},
		Evaluations:   []session.EvaluationResult{{Seq: 2, Score: 4, Feedback: "Good."}},
		Aggregate:     &session.Aggregate{TotalSubmissions: 1, AverageScore: 4, LastUpdated: time.Now()},
		Level:         cefr.LevelB2,
		Encouragement: cefr.Encouragement(cefr.LevelB2),
	}
}

func TestFromSummary(t *testing.T) {
	r := FromSummary("Zoë", sampleSummary())

	if len(r.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(r.Entries))
	}
	if r.Entries[0].Outcome != "correct" {
		t.Errorf("entry 1 outcome = %q, want correct", r.Entries[0].Outcome)
	}
	if r.Entries[1].Answer != "My town is small." {
		t.Errorf("entry 2 answer = %q, want the written text", r.Entries[1].Answer)
	}
	if r.Entries[1].Outcome != "4/5" {
		t.Errorf("entry 2 outcome = %q, want 4/5", r.Entries[1].Outcome)
	}
	if r.Level != cefr.LevelB2 {
		t.Errorf("level = %s, want B2", r.Level)
	}
}

func TestFromHistory(t *testing.T) {
	r := FromHistory("Ada", "u-2", &session.Aggregate{AverageScore: 2.5}, []backend.ResponseRecord{
		{QuestionID: "7", Mode: "speaking", Transcript: "hello", Score: 2},
	})
	if r.Level != cefr.LevelB1 {
		t.Errorf("level = %s, want B1", r.Level)
	}
	if len(r.Entries) != 1 || r.Entries[0].Outcome != "2/5" {
		t.Errorf("entries = %+v", r.Entries)
	}
}

func TestWritePDF(t *testing.T) {
	tests := []struct {
		name   string
		report Report
	}{
		{"session summary", FromSummary("Zoë", sampleSummary())},
		{"no aggregate", Report{Learner: "Ada", GeneratedAt: time.Now()}},
		{"long transcript", Report{Learner: "Ada", Entries: []Entry{{Band: "C1", Question: "Q", Answer: strings.Repeat("word ", 2000), Outcome: "5/5"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePDF(&buf, tt.report); err != nil {
				t.Fatalf("WritePDF: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
				t.Errorf("output does not start with a PDF header: %q", buf.Bytes()[:min(8, buf.Len())])
			}
		})
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	tests := []struct {
		learner string
		want    string
	}{
		{"Ada Lovelace", "cefr-summary-ada-lovelace-20260304-050607.pdf"},
		{"  ../etc ", "cefr-summary-etc-20260304-050607.pdf"},
		{"", "cefr-summary-learner-20260304-050607.pdf"},
	}
	for _, tt := range tests {
		if got := FileName(tt.learner, at); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.learner, got, tt.want)
		}
	}
}

func TestSavePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "out.pdf")
	if err := SavePDF(path, FromSummary("Ada", sampleSummary())); err != nil {
		t.Fatalf("SavePDF: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF-")) {
		t.Error("saved file is not a PDF")
	}
}
