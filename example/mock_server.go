package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jpalmerr/stepboard/clock"
	"github.com/jpalmerr/stepboard/internal/mockcounter"
)

// StartMockStepServer serves a step counter on addr that gains a few
// steps every second. Call this in a goroutine before starting the board.
func StartMockStepServer(ctx context.Context, addr string) {
	counter := mockcounter.New(slog.Default())
	go counter.Simulate(ctx, clock.NewSystem(), time.Second, 4)

	srv := &http.Server{Addr: addr, Handler: counter, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("mock server error", "error", err)
	}
}
