package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/splitsig/splitsig/internal/server"
	"github.com/splitsig/splitsig/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the splitsig HTTP server.

The server provides:
  - Beacon endpoint for tracking exposures and conversions
  - Results API with significance, lift, and power per experiment
  - Health check endpoint

Example:
  splitsig serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", cfg.Port, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	port := servePort
	if port == 0 {
		port = cfg.Port
	}

	srv := server.New(s, port, tokenFilePath(), logger)

	fmt.Println()
	fmt.Printf("splitsig running on http://localhost:%d\n", port)
	fmt.Printf("Results API: http://localhost:%d/api/experiments\n", port)
	fmt.Printf("Dashboard API: http://localhost:%d/dashboard/api/experiments?token=%s\n", port, srv.Token())
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")

	return srv.Start()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(lvl)
	return c.Build()
}
