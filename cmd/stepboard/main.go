// Package main is the entry point for the stepboard CLI.
//
// Stepboard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	stepboard serve -c config.yaml             # Start the web dashboard
//	stepboard tui --url http://localhost:5000/ # Chart in the terminal
//	stepboard validate -c config.yaml --watch  # Validate on every save
//	stepboard version                          # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "stepboard",
	Short: "A live step-counter dashboard",
	Long: `Stepboard polls a step counter once per interval and charts the
count against seconds elapsed since start.

The chart is served as a web page with Server-Sent Events for live
updates, or drawn directly in the terminal.

Quick start:
  1. Point it at a counter: stepboard serve --url http://localhost:5000/
  2. Open http://localhost:8080 in your browser

Settings are layered: defaults < config file < STEPBOARD_* environment
variables < flags.

Example config:
  port: 8080
  poll_interval: 1s
  source:
    url: http://localhost:5000/?total_steps_taken
    extractor: json:steps`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this stepboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "stepboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	registerSettingsFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(versionCmd)
}
