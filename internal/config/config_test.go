package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cefrquiz/internal/llm"
	"github.com/abhisek/cefrquiz/internal/store"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, 60, cfg.MaxQuestions)
	assert.Equal(t, 0, cfg.EscalateEvery)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.False(t, cfg.LLM.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CEFRQUIZ_SERVER_URL", "https://quiz.example")
	t.Setenv("CEFRQUIZ_MAX_QUESTIONS", "20")
	t.Setenv("CEFRQUIZ_ESCALATE_EVERY", "5")
	t.Setenv("CEFRQUIZ_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("CEFRQUIZ_TOKEN_TTL", "2h")
	t.Setenv("CEFRQUIZ_LLM_PROVIDER", "OpenAI")
	t.Setenv("CEFRQUIZ_OPENAI_API_KEY", "sk-test")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://quiz.example", cfg.ServerURL)
	assert.Equal(t, 20, cfg.MaxQuestions)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.True(t, cfg.TranscriptionEnabled(), "whisper reuses the OpenAI key")

	sc := cfg.Session("u-1")
	assert.Equal(t, "u-1", sc.UserID)
	assert.Equal(t, 20, sc.MaxQuestions)
	assert.Equal(t, 5, sc.EscalateEvery)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_BadValues(t *testing.T) {
	t.Setenv("CEFRQUIZ_MAX_QUESTIONS", "many")
	t.Setenv("CEFRQUIZ_LLM_TIMEOUT", "soon")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CEFRQUIZ_MAX_QUESTIONS")
	assert.Contains(t, err.Error(), "CEFRQUIZ_LLM_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.DBDriver = store.DriverPostgres }},
		{"zero max questions", func(c *Config) { c.MaxQuestions = 0 }},
		{"negative escalation", func(c *Config) { c.EscalateEvery = -1 }},
		{"provider without key", func(c *Config) { c.LLM.Provider = llm.ProviderAnthropic }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CEFRQUIZ_ADDR=:9999\n"), 0o600))
	t.Setenv("CEFRQUIZ_ADDR", "")
	os.Unsetenv("CEFRQUIZ_ADDR")

	require.NoError(t, LoadDotEnv(path))
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestOpenStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "quiz.db")
	st, err := cfg.OpenStore()
	require.NoError(t, err)
	assert.NoError(t, st.Close())
}
