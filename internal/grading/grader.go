// Package grading scores written and spoken answers on the 0..5 scale,
// using a language model when one is configured and the heuristic scorers
// otherwise.
package grading

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/abhisek/cefrquiz/internal/cefr"
	"github.com/abhisek/cefrquiz/internal/llm"
	"github.com/abhisek/cefrquiz/internal/scoring"
)

// Evaluation modes.
const (
	ModeWriting  = "writing"
	ModeSpeaking = "speaking"
)

// ErrUnknownMode is returned for a mode other than writing or speaking.
var ErrUnknownMode = errors.New("unknown evaluation mode")

// Source names who produced a grade.
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
)

// Config holds configuration for the model grader.
type Config struct {
	MaxTokens   int
	Temperature float64
	// Timeout bounds one model call including retries. Zero means no limit.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   256,
		Temperature: 0.2,
		Timeout:     30 * time.Second,
	}
}

// Request is one answer to grade.
type Request struct {
	QuestionID string
	Question   string
	Band       cefr.Band
	Mode       string
	Text       string
	Rubric     string
}

// Grade is the result of grading one answer.
type Grade struct {
	Score    int
	Feedback string
	Source   Source
}

type gradeOutput struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Grader scores answers. A nil provider grades with heuristics only.
type Grader struct {
	provider llm.Provider
	cfg      Config
	logger   *log.Logger
}

// NewGrader creates a grader.
func NewGrader(provider llm.Provider, cfg Config) *Grader {
	return &Grader{provider: provider, cfg: cfg, logger: log.Default()}
}

// SetLogger replaces the logger used for fallback warnings.
func (g *Grader) SetLogger(l *log.Logger) { g.logger = l }

// Grade scores req. Model failures fall back to the heuristic for the mode;
// only an unknown mode or a cancelled ctx returns an error.
func (g *Grader) Grade(ctx context.Context, req *Request) (*Grade, error) {
	if req.Mode != ModeWriting && req.Mode != ModeSpeaking {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
	if g.provider == nil {
		return heuristic(req), nil
	}

	grade, err := g.gradeWithModel(ctx, req)
	if err == nil {
		return grade, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	g.logger.Printf("grading: %s question %s: model failed, using heuristic: %v", req.Mode, req.QuestionID, err)
	return heuristic(req), nil
}

func (g *Grader) gradeWithModel(ctx context.Context, req *Request) (*Grade, error) {
	purpose := llm.PurposeGradeWriting
	if req.Mode == ModeSpeaking {
		purpose = llm.PurposeGradeSpeaking
	}
	ctx = llm.WithPurpose(ctx, purpose)
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	msg, err := buildGradeMessage(req)
	if err != nil {
		return nil, fmt.Errorf("build grade prompt: %w", err)
	}

	out, err := g.provider.Complete(ctx, llm.Prompt{
		System:      gradeSystemPrompt,
		User:        msg,
		Schema:      GradeSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	var raw gradeOutput
	if err := out.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse grade response: %w", err)
	}
	return &Grade{
		Score:    min(max(raw.Score, 0), scoring.MaxScore),
		Feedback: raw.Feedback,
		Source:   SourceModel,
	}, nil
}

func heuristic(req *Request) *Grade {
	if req.Mode == ModeSpeaking {
		b := scoring.TranscriptScore(req.Text)
		return &Grade{
			Score: b.Score,
			Feedback: fmt.Sprintf("Vocabulary %d/5, sentence length %d/5, fluency %d/5.",
				b.Vocabulary, b.Length, b.Fluency),
			Source: SourceHeuristic,
		}
	}
	r := scoring.RubricScore(req.Rubric, req.Text)
	return &Grade{Score: r.Score, Feedback: r.Feedback, Source: SourceHeuristic}
}
