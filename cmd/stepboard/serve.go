package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/stepboard"
	"github.com/jpalmerr/stepboard/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the web dashboard.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the stepboard web dashboard.

The server will:
  - Build the configuration from defaults, the config file, STEPBOARD_*
    environment variables and flags
  - Poll the step counter once per interval
  - Serve the live chart on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  stepboard serve -c config.yaml
  stepboard serve --url http://localhost:5000/?total_steps_taken --port 9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	v, err := newSettings(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.Log)

	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}

	board, err := stepboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	logger.Info("starting server",
		"port", cfg.Port,
		"poll_interval", cfg.PollInterval.Duration().String(),
		"source", cfg.Source.URL,
		"session_id", board.SessionID(),
	)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runBoard(ctx, board, logger)
}

// runBoard starts board and waits for it, bounding shutdown once ctx ends.
func runBoard(ctx context.Context, board *stepboard.Board, logger *slog.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- board.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
