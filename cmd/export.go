package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cefrquiz/internal/backend"
	"github.com/abhisek/cefrquiz/internal/export"
	"github.com/abhisek/cefrquiz/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a learner's history as a PDF report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		userID, _ := cmd.Flags().GetString("user")
		out, _ := cmd.Flags().GetString("output")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		u, err := st.Users().Get(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no learner with id %s", userID)
		}
		if err != nil {
			return err
		}

		local := backend.NewLocal(st, nil, nil)
		agg, err := local.FetchSummary(ctx, userID)
		if err != nil {
			return err
		}
		rows, err := local.Responses(ctx, userID)
		if err != nil {
			return err
		}

		if out == "" {
			out = export.FileName(u.Name, time.Now())
		}
		if err := export.SavePDF(out, export.FromHistory(u.Name, u.ID, agg, rows)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Println("Saved", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("user", "", "Learner id (required)")
	exportCmd.Flags().StringP("output", "o", "", "Output path (default: cefr-summary-<name>-<time>.pdf)")
	_ = exportCmd.MarkFlagRequired("user")
}
