// Standalone mock step counter for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver --simulate 1s
//
// Then in another terminal:
//
//	go run ./cmd/stepboard serve -c example/config.yaml
//
// Push a total by hand, as a device would:
//
//	curl 'http://localhost:5000/?total_steps_taken=120'
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/jpalmerr/stepboard/clock"
	"github.com/jpalmerr/stepboard/internal/logger"
	"github.com/jpalmerr/stepboard/internal/mockcounter"
)

func main() {
	addr := pflag.String("addr", ":5000", "listen address")
	simulate := pflag.Duration("simulate", 0, "add steps on this interval (0 disables)")
	step := pflag.Int64("step", 3, "steps added per simulated tick")
	start := pflag.Int64("start", 0, "initial step total")
	pflag.Parse()

	log := logger.New(os.Stderr, slog.LevelDebug, logger.FormatConsole)

	counter := mockcounter.New(log)
	counter.Set(*start)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *simulate > 0 {
		go counter.Simulate(ctx, clock.NewSystem(), *simulate, *step)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           counter,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Mock step counter listening on %s\n", *addr)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
