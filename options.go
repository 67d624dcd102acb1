package stepboard

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jpalmerr/stepboard/clock"
	"github.com/jpalmerr/stepboard/internal/poller"
	"github.com/jpalmerr/stepboard/render"
)

// OverlapPolicy decides what happens to a tick that fires while the
// previous tick is still sampling.
type OverlapPolicy = poller.OverlapPolicy

const (
	// OverlapSkip drops the colliding tick. This is the default.
	OverlapSkip = poller.OverlapSkip

	// OverlapQueue runs one colliding tick right after the in-flight one.
	OverlapQueue = poller.OverlapQueue
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title           string
	source          Source
	pollingInterval time.Duration
	port            int
	logger          *slog.Logger
	clock           clock.Clock
	surfaces        []render.Surface
	headless        bool
	chart           render.ChartConfig
	overlap         OverlapPolicy
	sampleCallbacks []func(SampleResult)
}

// Option is a function that configures a [Board] instance during construction.
//
// Options return an error if validation fails.
type Option func(*boardConfig) error

// WithSource sets the telemetry endpoint. Defaults to [DefaultSource].
func WithSource(s Source) Option {
	return func(cfg *boardConfig) error {
		if s.url == "" || s.extractor == nil {
			return errors.New("source must be created with NewSource")
		}
		cfg.source = s
		return nil
	}
}

// WithPollingInterval sets how often the source is sampled.
//
// Defaults to 1 second. The first sample is taken one interval after
// [Board.Start], not immediately.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the web dashboard.
//
// Defaults to 8080. Port 0 binds any free port; see [Board.Addr].
//
// Returns an error if the port is outside 0-65535.
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("port must be between 0 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. Defaults to [slog.Default].
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock sets the time source for ticks and elapsed seconds.
// Tests pass a [clock.Manual].
//
// Returns an error if the clock is nil.
func WithClock(c clock.Clock) Option {
	return func(cfg *boardConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithSurface adds a chart surface next to the web dashboard.
//
// May be called multiple times. Nil surfaces are ignored.
func WithSurface(s render.Surface) Option {
	return func(cfg *boardConfig) error {
		if s != nil {
			cfg.surfaces = append(cfg.surfaces, s)
		}
		return nil
	}
}

// WithHeadless disables the web dashboard. The board then draws only on
// surfaces added with [WithSurface]; with none, Start fails with
// [render.ErrNoSurface].
func WithHeadless() Option {
	return func(cfg *boardConfig) error {
		cfg.headless = true
		return nil
	}
}

// WithChart replaces the chart config. Defaults to [render.DefaultConfig].
//
// Returns an error wrapping [render.ErrInvalidChart] if the config is not
// drawable.
func WithChart(c render.ChartConfig) Option {
	return func(cfg *boardConfig) error {
		if err := c.Validate(); err != nil {
			return err
		}
		cfg.chart = c
		return nil
	}
}

// WithOverlapPolicy sets how ticks that collide with an in-flight sample
// are handled. Defaults to [OverlapSkip].
func WithOverlapPolicy(p OverlapPolicy) Option {
	return func(cfg *boardConfig) error {
		switch p {
		case OverlapSkip, OverlapQueue:
			cfg.overlap = p
			return nil
		default:
			return errors.New("unknown overlap policy")
		}
	}
}

// WithSampleCallback registers a function called after every tick.
//
// The callback receives the [SampleResult] after the series and chart were
// updated. Callbacks run in registration order on the tick goroutine, so
// they must not block. Panics are recovered and logged.
//
// Example:
//
//	b, err := stepboard.New(
//	    stepboard.WithSampleCallback(func(r stepboard.SampleResult) {
//	        if !r.OK() {
//	            log.Printf("sample failed: %v", r.Err())
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithSampleCallback(cb func(SampleResult)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.sampleCallbacks = append(cfg.sampleCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title. Defaults to "Step Counter".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}
