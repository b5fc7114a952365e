package cli

import (
	"github.com/spf13/cobra"

	"github.com/splitsig/splitsig/internal/config"
)

var (
	cfg    config.Config
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "splitsig",
	Short: "splitsig - a minimal, self-hosted A/B test significance service",
	Long: `splitsig is a minimal, self-hosted A/B test significance service.
Single Go binary, embedded SQLite, no external dependencies.

It ingests exposure and conversion events, and answers the only question
that matters: is the difference real, and how sure are we?`,
	RunE: runServe, // Default action is to start the server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		cfg = config.Default()
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DBPath, "database path")
}
