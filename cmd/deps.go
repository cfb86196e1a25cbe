package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/abhisek/cefrquiz/internal/grading"
	"github.com/abhisek/cefrquiz/internal/llm"
	"github.com/abhisek/cefrquiz/internal/transcribe"
)

// newGrader builds the answer grader. Without a configured provider the
// grader falls back to its word-count heuristic.
func newGrader(ctx context.Context, sink llm.EventSink, logger *log.Logger) (*grading.Grader, error) {
	provider, err := llm.New(ctx, cfg.LLM, sink)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if provider == nil {
		fmt.Fprintln(os.Stderr, "No LLM provider configured; answers are scored heuristically.")
	}

	gc := grading.DefaultConfig()
	if cfg.LLM.Timeout > 0 {
		gc.Timeout = cfg.LLM.Timeout
	}
	g := grading.NewGrader(provider, gc)
	g.SetLogger(logger)
	return g, nil
}

// newTranscriber returns the Whisper client, or nil when no key is set.
// The nil is returned as an interface so callers can compare against nil.
func newTranscriber() (transcribe.Transcriber, error) {
	if !cfg.TranscriptionEnabled() {
		fmt.Fprintln(os.Stderr, "No Whisper key configured; spoken answers are unavailable.")
		return nil, nil
	}
	w, err := transcribe.NewWhisper(cfg.Transcribe)
	if err != nil {
		return nil, fmt.Errorf("transcriber: %w", err)
	}
	return w, nil
}
