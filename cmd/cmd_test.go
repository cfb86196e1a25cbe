package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestVersionLine(t *testing.T) {
	tests := []struct {
		release, revision string
		prefix            string
	}{
		{"v1.2.0", "abc1234", "cefrquiz v1.2.0 (abc1234) go"},
		{"(devel)", "", "cefrquiz (devel) go"},
	}
	for _, tt := range tests {
		if got := versionLine(tt.release, tt.revision); !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("versionLine(%q, %q) = %q, want prefix %q", tt.release, tt.revision, got, tt.prefix)
		}
	}
}

func TestVersionCmd_SkipsConfig(t *testing.T) {
	// An invalid setting would fail the root pre-run.
	t.Setenv("CEFRQUIZ_MAX_QUESTIONS", "not-a-number")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "cefrquiz ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestHelp_DocumentsEscalation(t *testing.T) {
	for _, c := range []*cobra.Command{playCmd, serveCmd} {
		if !strings.Contains(c.Long, "CEFRQUIZ_ESCALATE_EVERY=5") {
			t.Errorf("%s help does not mention CEFRQUIZ_ESCALATE_EVERY=5", c.Name())
		}
	}
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("CEFRQUIZ_MAX_QUESTIONS", "40")
	t.Setenv("CEFRQUIZ_ESCALATE_EVERY", "5")
	t.Setenv("CEFRQUIZ_SERVER_URL", "http://env:8000")

	c := &cobra.Command{Use: "test"}
	c.Flags().String("db", "", "")
	c.Flags().StringSlice("env-file", []string{"does-not-exist.env"}, "")
	addPlayFlags(c)
	if err := c.Flags().Parse([]string{"--max-questions", "10"}); err != nil {
		t.Fatal(err)
	}

	if err := loadConfig(c); err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.MaxQuestions != 10 {
		t.Errorf("MaxQuestions = %d, want 10", cfg.MaxQuestions)
	}
	if cfg.EscalateEvery != 5 {
		t.Errorf("EscalateEvery = %d, want 5", cfg.EscalateEvery)
	}
	if cfg.ServerURL != "http://env:8000" {
		t.Errorf("ServerURL = %q, want the env value", cfg.ServerURL)
	}
}
