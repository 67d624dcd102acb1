// Package mockcounter is a stand-in for the step-counter HTTP service.
//
// A device reports its running total with GET /?total_steps_taken=N.
// Every request, with or without the parameter, is answered with the
// current total as {"steps": N}.
package mockcounter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/stepboard/clock"
)

// QueryParam is the parameter devices use to push their total.
const QueryParam = "total_steps_taken"

// Counter holds the latest reported step total.
type Counter struct {
	steps  atomic.Int64
	pushes atomic.Int64
	logger *slog.Logger
}

// New returns a Counter starting at zero. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Counter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Counter{logger: logger}
}

// Steps returns the current total.
func (c *Counter) Steps() int64 {
	return c.steps.Load()
}

// Pushes returns how many device reports were accepted.
func (c *Counter) Pushes() int64 {
	return c.pushes.Load()
}

// Set replaces the total.
func (c *Counter) Set(n int64) {
	c.steps.Store(n)
}

// Add increments the total by n and returns the new value.
func (c *Counter) Add(n int64) int64 {
	return c.steps.Add(n)
}

type response struct {
	Steps int64 `json:"steps"`
}

// ServeHTTP records a pushed total, if present, and replies with the
// current one. A malformed total is rejected with 400.
func (c *Counter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if raw := r.URL.Query().Get(QueryParam); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "total_steps_taken must be a non-negative integer", http.StatusBadRequest)
			return
		}
		c.Set(n)
		c.pushes.Add(1)
		c.logger.Debug("steps pushed", "steps", n, "remote", r.RemoteAddr)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response{Steps: c.Steps()})
}

// Simulate adds step to the total on every tick of interval until ctx
// is done, like a device that keeps walking.
func (c *Counter) Simulate(ctx context.Context, clk clock.Clock, interval time.Duration, step int64) {
	if clk == nil {
		clk = clock.NewSystem()
	}
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			n := c.Add(step)
			c.logger.Debug("steps simulated", "steps", n)
		}
	}
}
