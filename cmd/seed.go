package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/cefrquiz/internal/catalog"
)

var seedCmd = &cobra.Command{
	Use:   "seed <catalog.json>",
	Short: "Replace the stored question catalog",
	Long: `Validate a catalog document and store it, replacing the current
questions, passages and rubrics. Send SIGHUP to a running server to pick
up the new catalog.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		if err := catalog.ValidateDocument(raw); err != nil {
			return fmt.Errorf("invalid catalog %s: %w", args[0], err)
		}
		doc, err := catalog.ParseDocument(raw)
		if err != nil {
			return err
		}
		cat, err := doc.Catalog()
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Catalog().Replace(cmd.Context(), cat); err != nil {
			return fmt.Errorf("store catalog: %w", err)
		}
		fmt.Printf("Stored %d questions.\n", cat.Len())
		return nil
	},
}
