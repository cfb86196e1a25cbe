package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cefrquiz/internal/config"
	"github.com/abhisek/cefrquiz/internal/store"
)

// cfg is loaded once by the root command before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "cefrquiz",
	Short: "Adaptive English placement quiz",
	Long:  "cefrquiz runs an adaptive quiz that estimates a learner's CEFR level (A1 to C2), plus the backend that serves and grades it.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database path or DSN (overrides CEFRQUIZ_DB)")
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "Env files to load before reading settings (default .env)")
	addPlayFlags(rootCmd)

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads .env files and the environment, then applies flags,
// which take the highest priority.
func loadConfig(cmd *cobra.Command) error {
	files, _ := cmd.Flags().GetStringSlice("env-file")
	if err := config.LoadDotEnv(files...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	c, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		c.DBPath = p
	}
	if f := cmd.Flags().Lookup("max-questions"); f != nil && f.Changed {
		c.MaxQuestions, _ = cmd.Flags().GetInt("max-questions")
	}
	if f := cmd.Flags().Lookup("server"); f != nil && f.Changed {
		c.ServerURL, _ = cmd.Flags().GetString("server")
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		c.Server.Addr, _ = cmd.Flags().GetString("addr")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// openStore opens the configured database.
func openStore() (*store.Store, error) {
	st, err := cfg.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
