package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/cefrquiz/internal/app"
	"github.com/abhisek/cefrquiz/internal/backend"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Take the placement quiz",
	Long: `Take the placement quiz in the terminal, against a cefrquiz server or
the local database with --local.

The session starts at A1 and moves up a band only when the current band
runs out of questions. To step up on a fixed cadence instead, set
CEFRQUIZ_ESCALATE_EVERY, for example CEFRQUIZ_ESCALATE_EVERY=5 to move up
one band every five questions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func init() {
	addPlayFlags(playCmd)
}

func addPlayFlags(c *cobra.Command) {
	c.Flags().Bool("local", false, "Run against the local database instead of a server")
	c.Flags().String("server", "", "Backend URL (overrides CEFRQUIZ_SERVER_URL)")
	c.Flags().Int("max-questions", 0, "Questions per session (overrides CEFRQUIZ_MAX_QUESTIONS)")
	c.Flags().String("name", "", "Pre-fill the learner name")
	c.Flags().String("export-dir", "", "Directory for PDF reports (default: working directory)")
	c.Flags().String("log-file", "", "Write diagnostics to this file")
}

// runPlay builds the backend and launches the TUI.
func runPlay(cmd *cobra.Command) error {
	ctx := cmd.Context()
	local, _ := cmd.Flags().GetBool("local")
	name, _ := cmd.Flags().GetString("name")
	exportDir, _ := cmd.Flags().GetString("export-dir")
	logFile, _ := cmd.Flags().GetString("log-file")

	// The TUI owns the terminal, so diagnostics go to a file or nowhere.
	logger := log.New(io.Discard, "", 0)
	if logFile != "" {
		f, err := tea.LogToFile(logFile, "cefrquiz")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = log.Default()
	}

	var b backend.Backend
	if local {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		grader, err := newGrader(ctx, st.Events(), logger)
		if err != nil {
			return err
		}
		tr, err := newTranscriber()
		if err != nil {
			return err
		}
		b = backend.NewLocal(st, grader, tr)
	} else {
		b = backend.NewClient(cfg.ServerURL)
	}

	if err := app.Run(app.Options{
		Backend:   b,
		Session:   cfg.Session(""),
		Name:      name,
		ExportDir: exportDir,
		Logger:    logger,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "quiz ended with an error")
		return err
	}
	return nil
}
