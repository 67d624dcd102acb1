package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/stepboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a stepboard configuration without starting the server.

This command parses the YAML, applies STEPBOARD_* environment variables
and flags, expands ${VAR} references, and validates all fields. It's
useful for CI/CD pipelines or pre-deployment checks.

With --watch the file is validated again on every save until
interrupted.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  stepboard validate -c config.yaml
  stepboard validate -c config.yaml --watch`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolP("watch", "w", false, "validate again whenever the file changes")
}

func runValidate(cmd *cobra.Command, args []string) error {
	v, err := newSettings(cmd)
	if err != nil {
		return err
	}
	if v.GetString("config") == "" {
		return fmt.Errorf("a config file is required (--config)")
	}

	out := cmd.OutOrStdout()
	cfg, err := loadConfig(v)
	if err != nil {
		if !v.GetBool("watch") {
			return err
		}
		fmt.Fprintf(out, "Config is invalid: %v\n", err)
	} else {
		printSummary(out, cfg)
	}

	if !v.GetBool("watch") {
		return nil
	}

	watcher, err := config.NewWatcher(v.GetString("config"))
	if err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", v.GetString("config"))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-watcher.Reloads():
			// re-run the full layering so env and flags still apply
			cfg, err := loadConfig(v)
			if err != nil {
				fmt.Fprintf(out, "Config is invalid: %v\n", err)
				continue
			}
			printSummary(out, cfg)
		}
	}
}

func printSummary(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Overlap:       %s\n", cfg.Overlap)
	fmt.Fprintf(out, "  Source:        %s\n", cfg.Source.URL)
}
