// Package transcribe converts recorded spoken answers to text.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyAudio is returned for a zero-length recording.
var ErrEmptyAudio = errors.New("empty audio")

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Config configures the Whisper transcriber.
type Config struct {
	APIKey string
	// BaseURL overrides the OpenAI endpoint for compatible servers.
	BaseURL  string
	Model    string
	Language string
	// Filename is sent as the upload name; its extension tells the API
	// the container format.
	Filename string
}

// DefaultConfig returns a Config for whisper-1 on browser recordings.
func DefaultConfig() Config {
	return Config{Model: openai.Whisper1, Filename: "recording.webm"}
}

// Whisper transcribes through the OpenAI audio API.
type Whisper struct {
	client *openai.Client
	cfg    Config
}

// NewWhisper creates a Whisper transcriber.
func NewWhisper(cfg Config) (*Whisper, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required for transcription")
	}
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Filename == "" {
		cfg.Filename = def.Filename
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	return &Whisper{client: openai.NewClientWithConfig(conf), cfg: cfg}, nil
}

func (w *Whisper) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.cfg.Model,
		FilePath: w.cfg.Filename,
		Reader:   bytes.NewReader(audio),
		Language: w.cfg.Language,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Static returns the same transcript for every recording.
type Static struct {
	Text string
	Err  error
}

func (s Static) Transcribe(_ context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	return s.Text, s.Err
}
