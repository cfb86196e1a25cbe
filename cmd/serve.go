package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/cefrquiz/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quiz backend HTTP server",
	Long: `Serve the catalog, registration, grading, transcription and summary
endpoints. SIGHUP reloads the catalog from the database.

Difficulty pacing is a client setting: quiz clients step up a band every N
questions when CEFRQUIZ_ESCALATE_EVERY=N is set, for example
CEFRQUIZ_ESCALATE_EVERY=5, and otherwise only when a band runs out of
questions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		logger := log.Default()
		grader, err := newGrader(ctx, st.Events(), logger)
		if err != nil {
			return err
		}
		tr, err := newTranscriber()
		if err != nil {
			return err
		}

		srv := server.New(cfg.Server, st, grader, tr)
		if err := srv.Reload(ctx); err != nil {
			logger.Printf("catalog not loaded, catalog endpoints return 503 until seeded: %v", err)
		}
		go reloadOnHangup(ctx, srv, logger)

		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides CEFRQUIZ_ADDR)")
}

func reloadOnHangup(ctx context.Context, srv *server.Server, logger *log.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := srv.Reload(ctx); err != nil {
				logger.Printf("reload catalog: %v", err)
				continue
			}
			logger.Println("catalog reloaded")
		}
	}
}
