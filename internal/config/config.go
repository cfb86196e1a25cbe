// Package config reads cefrquiz settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/cefrquiz/internal/llm"
	"github.com/abhisek/cefrquiz/internal/server"
	"github.com/abhisek/cefrquiz/internal/session"
	"github.com/abhisek/cefrquiz/internal/store"
	"github.com/abhisek/cefrquiz/internal/transcribe"
)

// Config is the full program configuration.
type Config struct {
	// ServerURL is the backend the quiz client talks to.
	ServerURL string

	DBDriver string
	DBPath   string

	MaxQuestions  int
	EscalateEvery int

	Server     server.Config
	LLM        llm.Config
	Transcribe transcribe.Config
}

// DefaultConfig returns defaults for every setting.
func DefaultConfig() Config {
	return Config{
		ServerURL:    "http://localhost:8000",
		DBDriver:     store.DriverSQLite,
		MaxQuestions: session.DefaultMaxQuestions,
		Server:       server.DefaultConfig(),
		LLM:          llm.DefaultConfig(),
		Transcribe:   transcribe.DefaultConfig(),
	}
}

// LoadDotEnv populates the environment from the named files, or .env when
// none are given. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// FromEnv reads configuration from environment variables on top of the
// defaults.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	var errs []error

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
			return
		}
		*dst = n
	}
	dur := func(key string, dst *time.Duration) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	str("CEFRQUIZ_SERVER_URL", &cfg.ServerURL)
	str("CEFRQUIZ_DB_DRIVER", &cfg.DBDriver)
	str("CEFRQUIZ_DB", &cfg.DBPath)
	num("CEFRQUIZ_MAX_QUESTIONS", &cfg.MaxQuestions)
	num("CEFRQUIZ_ESCALATE_EVERY", &cfg.EscalateEvery)

	str("CEFRQUIZ_ADDR", &cfg.Server.Addr)
	str("CEFRQUIZ_JWT_SECRET", &cfg.Server.JWTSecret)
	dur("CEFRQUIZ_TOKEN_TTL", &cfg.Server.TokenTTL)
	str("CEFRQUIZ_AUDIO_DIR", &cfg.Server.AudioDir)
	if v := os.Getenv("CEFRQUIZ_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.CORSOrigins = append(cfg.Server.CORSOrigins, o)
			}
		}
	}

	str("CEFRQUIZ_LLM_PROVIDER", &cfg.LLM.Provider)
	str("CEFRQUIZ_ANTHROPIC_API_KEY", &cfg.LLM.Anthropic.APIKey)
	str("CEFRQUIZ_ANTHROPIC_MODEL", &cfg.LLM.Anthropic.Model)
	str("CEFRQUIZ_OPENAI_API_KEY", &cfg.LLM.OpenAI.APIKey)
	str("CEFRQUIZ_OPENAI_MODEL", &cfg.LLM.OpenAI.Model)
	str("CEFRQUIZ_OPENAI_BASE_URL", &cfg.LLM.OpenAI.BaseURL)
	str("CEFRQUIZ_GEMINI_API_KEY", &cfg.LLM.Gemini.APIKey)
	str("CEFRQUIZ_GEMINI_MODEL", &cfg.LLM.Gemini.Model)
	num("CEFRQUIZ_LLM_MAX_ATTEMPTS", &cfg.LLM.Retry.MaxAttempts)
	dur("CEFRQUIZ_LLM_TIMEOUT", &cfg.LLM.Timeout)
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)

	// Whisper shares the OpenAI key unless one is given for it.
	cfg.Transcribe.APIKey = cfg.LLM.OpenAI.APIKey
	str("CEFRQUIZ_WHISPER_API_KEY", &cfg.Transcribe.APIKey)
	str("CEFRQUIZ_WHISPER_BASE_URL", &cfg.Transcribe.BaseURL)
	str("CEFRQUIZ_WHISPER_MODEL", &cfg.Transcribe.Model)
	str("CEFRQUIZ_WHISPER_LANGUAGE", &cfg.Transcribe.Language)

	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks the configuration for contradictory or missing values.
func (c Config) Validate() error {
	switch c.DBDriver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("CEFRQUIZ_DB_DRIVER must be %q or %q, got %q", store.DriverSQLite, store.DriverPostgres, c.DBDriver)
	}
	if c.DBDriver == store.DriverPostgres && c.DBPath == "" {
		return errors.New("CEFRQUIZ_DB must hold a connection string for the postgres driver")
	}
	if c.MaxQuestions < 1 {
		return fmt.Errorf("max questions must be at least 1, got %d", c.MaxQuestions)
	}
	if c.EscalateEvery < 0 {
		return fmt.Errorf("escalate every must not be negative, got %d", c.EscalateEvery)
	}
	return c.LLM.Validate()
}

// Session returns the engine configuration for userID.
func (c Config) Session(userID string) session.Config {
	sc := session.DefaultConfig()
	sc.UserID = userID
	sc.MaxQuestions = c.MaxQuestions
	sc.EscalateEvery = c.EscalateEvery
	return sc
}

// TranscriptionEnabled reports whether a Whisper key is available.
func (c Config) TranscriptionEnabled() bool {
	return c.Transcribe.APIKey != ""
}

// OpenStore opens the configured database, defaulting to the user data
// directory for SQLite.
func (c Config) OpenStore() (*store.Store, error) {
	dsn := c.DBPath
	if dsn == "" && c.DBDriver == store.DriverSQLite {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		dsn = p
	}
	return store.OpenDriver(c.DBDriver, dsn)
}
