// Package clock provides the time source used by stepboard.
//
// Every component that needs "now" or a periodic ticker takes a [Clock]
// instead of calling the time package directly. Production code uses
// [System]; tests use [Manual] to advance time deterministically without
// sleeping.
//
// An [Origin] is captured once when a board starts and converts later
// instants into whole elapsed seconds, which are used as chart x-values.
package clock

import "time"

// Clock supplies the current instant and periodic tickers.
//
// Implementations must be safe for concurrent use.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time

	// NewTicker returns a [Ticker] that fires every d. The first tick is
	// delivered after d has elapsed, never immediately.
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks on a channel until stopped.
//
// Like [time.Ticker], slow receivers miss ticks rather than queueing them.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// System is a [Clock] backed by the time package.
type System struct{}

// NewSystem returns the wall clock.
func NewSystem() System {
	return System{}
}

// Now returns time.Now(), which carries a monotonic reading.
func (System) Now() time.Time {
	return time.Now()
}

// NewTicker wraps [time.NewTicker].
func (System) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// Origin is the fixed start instant of a session.
//
// Origin is immutable; it is captured once and shared read-only by every
// component that needs elapsed time.
type Origin struct {
	start time.Time
}

// Capture records c.Now() as the session origin.
func Capture(c Clock) Origin {
	return Origin{start: c.Now()}
}

// OriginAt returns an Origin anchored at t.
func OriginAt(t time.Time) Origin {
	return Origin{start: t}
}

// Start returns the origin instant.
func (o Origin) Start() time.Time {
	return o.start
}

// IsZero reports whether the origin was never captured.
func (o Origin) IsZero() bool {
	return o.start.IsZero()
}

// ElapsedSeconds returns floor((now - origin) / 1s).
//
// The result is never negative: an instant before the origin maps to 0.
func (o Origin) ElapsedSeconds(now time.Time) int64 {
	d := now.Sub(o.start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
