package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/stepboard/clock"
)

// OverlapPolicy decides what happens when a tick fires while the previous
// tick is still running.
type OverlapPolicy int

const (
	// OverlapSkip drops the new tick.
	OverlapSkip OverlapPolicy = iota

	// OverlapQueue keeps one pending tick and runs it as soon as the
	// in-flight tick returns. Further ticks are dropped while the slot
	// is taken.
	OverlapQueue
)

// String returns the policy name used in configuration and logs.
func (p OverlapPolicy) String() string {
	switch p {
	case OverlapSkip:
		return "skip"
	case OverlapQueue:
		return "queue"
	default:
		return fmt.Sprintf("OverlapPolicy(%d)", int(p))
	}
}

// TickFunc is the work performed on each tick. ctx is cancelled when the
// scheduler stops.
type TickFunc func(ctx context.Context)

// Scheduler fires a [TickFunc] at a fixed interval.
//
// The first tick fires one interval after [Scheduler.Start], never at t=0.
// Ticks run on their own goroutine so the timer loop never waits for one,
// but an in-flight guard admits at most one tick at a time. Ticks that
// collide with a running tick are handled by the [OverlapPolicy].
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	clock    clock.Clock
	policy   OverlapPolicy
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool

	tickMu   sync.Mutex
	inFlight bool
	pending  bool

	fired     atomic.Int64
	skipped   atomic.Int64
	queued    atomic.Int64
	completed atomic.Int64
}

// NewScheduler creates a new [Scheduler].
//
// Parameters:
//   - interval: time between ticks, must be positive
//   - clk: time source for the ticker (clock.System in production)
//   - policy: overlap handling for slow ticks
//   - logger: logger for skipped ticks and panic recovery
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop] or by cancelling the context passed to Start.
func NewScheduler(interval time.Duration, clk clock.Clock, policy OverlapPolicy, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		clock:    clk,
		policy:   policy,
		logger:   logger,
	}
}

// Start begins firing tick in a background goroutine.
//
// Start is non-blocking. The ticker is created before Start returns, so a
// virtual clock advanced right after Start is observed. If ctx is nil,
// context.Background() is used. Start is idempotent; subsequent calls
// after the first are no-ops. If Stop was called before Start, Start is a
// no-op.
func (s *Scheduler) Start(ctx context.Context, tick TickFunc) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	loopCtx := s.ctx
	ticker := s.clock.NewTicker(s.interval)
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C():
				s.fire(loopCtx, tick)
			}
		}
	}()
}

// Stop cancels the scheduler and waits for the loop and any in-flight
// tick to return.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Fired returns how many ticks the timer delivered.
func (s *Scheduler) Fired() int64 { return s.fired.Load() }

// Skipped returns how many ticks were dropped by the in-flight guard.
func (s *Scheduler) Skipped() int64 { return s.skipped.Load() }

// Queued returns how many ticks were deferred into the pending slot.
func (s *Scheduler) Queued() int64 { return s.queued.Load() }

// Completed returns how many ticks ran to completion.
func (s *Scheduler) Completed() int64 { return s.completed.Load() }

// InFlight reports whether a tick is currently running.
func (s *Scheduler) InFlight() bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	return s.inFlight
}

// fire is called from the timer loop only.
func (s *Scheduler) fire(ctx context.Context, tick TickFunc) {
	s.fired.Add(1)

	s.tickMu.Lock()
	if s.inFlight {
		if s.policy == OverlapQueue && !s.pending {
			s.pending = true
			s.tickMu.Unlock()
			s.queued.Add(1)
			s.logger.Debug("tick queued behind in-flight tick")
			return
		}
		s.tickMu.Unlock()
		s.skipped.Add(1)
		s.logger.Debug("tick skipped, previous tick still in flight",
			"policy", s.policy.String(),
		)
		return
	}
	s.inFlight = true
	s.tickMu.Unlock()

	// the loop goroutine holds a wg slot, so Add cannot race Stop's Wait
	s.wg.Add(1)
	go s.run(ctx, tick)
}

// run executes tick, then drains the pending slot.
func (s *Scheduler) run(ctx context.Context, tick TickFunc) {
	defer s.wg.Done()

	for {
		s.safeTick(ctx, tick)

		s.tickMu.Lock()
		if s.pending && ctx.Err() == nil {
			s.pending = false
			s.tickMu.Unlock()
			s.completed.Add(1)
			continue
		}
		s.pending = false
		s.inFlight = false
		s.tickMu.Unlock()

		// counted after the guard is released so observers never see a
		// completed tick that still blocks the next one
		s.completed.Add(1)
		return
	}
}

// safeTick calls tick with panic recovery so one bad tick cannot kill
// the polling loop.
func (s *Scheduler) safeTick(ctx context.Context, tick TickFunc) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tick panicked",
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	tick(ctx)
}
