package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/stepboard"
	"github.com/jpalmerr/stepboard/config"
	"github.com/jpalmerr/stepboard/internal/tui"
)

// tuiCmd draws the chart in the terminal instead of serving it.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Chart the step counter in the terminal",
	Long: `Chart the step counter in the terminal.

No HTTP server is started. Logs are discarded unless --log-file is set,
since the chart owns the screen.

Example:
  stepboard tui --url http://localhost:5000/?total_steps_taken
  stepboard tui -c config.yaml --log-file stepboard.log`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().String("log-file", "", "append logs to this file")
}

func runTUI(cmd *cobra.Command, args []string) error {
	v, err := newSettings(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if path := v.GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, cfg.Log)

	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}

	surface := tui.NewSurface()
	opts = append(opts,
		stepboard.WithHeadless(),
		stepboard.WithSurface(surface),
		stepboard.WithSampleCallback(func(r stepboard.SampleResult) {
			surface.Report(r.Err())
		}),
	)

	board, err := stepboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.NewModel(surface, board.Title(), board.Source().URL())
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	boardErr := make(chan error, 1)
	go func() {
		err := board.Start(ctx)
		if err != nil {
			program.Quit()
		}
		boardErr <- err
	}()

	_, runErr := program.Run()
	cancel()

	if err := <-boardErr; err != nil {
		return fmt.Errorf("board error: %w", err)
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal error: %w", runErr)
	}
	return nil
}
