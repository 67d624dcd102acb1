package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/stepboard"
)

func main() {
	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start mock server (see mock_server.go)
	go StartMockStepServer(ctx, ":5000")
	time.Sleep(100 * time.Millisecond)

	src, err := stepboard.NewSource("http://localhost:5000/?total_steps_taken",
		stepboard.WithTimeout(2*time.Second),
	)
	if err != nil {
		slog.Error("failed to create source", "error", err)
		os.Exit(1)
	}

	board, err := stepboard.New(
		stepboard.WithSource(src),
		stepboard.WithPollingInterval(time.Second),
		stepboard.WithPort(8080),
		stepboard.WithTitle("Step Counter Demo"),
		stepboard.WithSampleCallback(func(r stepboard.SampleResult) {
			if !r.OK() {
				slog.Warn("sample failed", "error", r.Err())
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Stepboard Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Mock counter on :5000 gains 4 steps per second      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	if err := board.Start(ctx); err != nil {
		slog.Error("stepboard error", "error", err)
		os.Exit(1)
	}
}
