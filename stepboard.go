package stepboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/stepboard/clock"
	"github.com/jpalmerr/stepboard/dashboard"
	"github.com/jpalmerr/stepboard/internal/poller"
	"github.com/jpalmerr/stepboard/internal/server"
	"github.com/jpalmerr/stepboard/render"
	"github.com/jpalmerr/stepboard/series"
)

const (
	defaultPollingInterval = time.Second
	defaultPort            = 8080
	defaultTitle           = "Step Counter"
)

// ErrAlreadyStarted is returned by a second call to [Board.Start].
var ErrAlreadyStarted = errors.New("board already started")

// Board samples the step counter and charts it.
//
// Board owns everything a run needs: the clock origin, the series, the
// chart handle, the sampler, and the scheduler. It is created using [New]
// with functional options and started with [Board.Start].
//
// The typical lifecycle is:
//
//	b, err := stepboard.New(stepboard.WithSource(src))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	b.Start(ctx) // blocks until context cancelled
type Board struct {
	title           string
	source          Source
	pollingInterval time.Duration
	port            int
	logger          *slog.Logger
	clock           clock.Clock
	surfaces        []render.Surface
	headless        bool
	chartConfig     render.ChartConfig
	overlap         OverlapPolicy
	sampleCallbacks []func(SampleResult)
	sessionID       string

	mu      sync.RWMutex
	state   State
	started bool
	addr    net.Addr

	// set once by launch, read by ticks
	origin    clock.Origin
	series    *series.Buffer
	chart     *render.Handle
	sampler   *poller.Sampler
	scheduler *poller.Scheduler
}

// New creates a new [Board] with the given options.
//
// Defaults:
//   - Source: [DefaultSource]
//   - Polling interval: 1 second
//   - Port: 8080
//   - Chart: [render.DefaultConfig]
//   - Overlap policy: [OverlapSkip]
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		title:           defaultTitle,
		source:          DefaultSource(),
		pollingInterval: defaultPollingInterval,
		port:            defaultPort,
		clock:           clock.NewSystem(),
		chart:           render.DefaultConfig(),
		overlap:         OverlapSkip,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		title:           cfg.title,
		source:          cfg.source,
		pollingInterval: cfg.pollingInterval,
		port:            cfg.port,
		logger:          logger,
		clock:           cfg.clock,
		surfaces:        cfg.surfaces,
		headless:        cfg.headless,
		chartConfig:     cfg.chart,
		overlap:         cfg.overlap,
		sampleCallbacks: cfg.sampleCallbacks,
		sessionID:       uuid.NewString(),
	}, nil
}

// Start initializes the chart, starts polling, and blocks until ctx is
// cancelled.
//
// Initialization captures the clock origin, mounts every surface, and
// binds the dashboard port unless the board is headless. If any step
// fails the error is returned and the board never reaches
// [StateRunning]. A second call returns [ErrAlreadyStarted].
//
// Returns nil on graceful shutdown.
func (b *Board) Start(ctx context.Context) error {
	if err := b.launch(ctx); err != nil {
		return err
	}
	if b.scheduler == nil {
		// ctx was already done
		return nil
	}

	<-ctx.Done()
	b.shutdown()
	return nil
}

// launch performs initialization and starts the scheduler without
// blocking.
func (b *Board) launch(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return ErrAlreadyStarted
	}
	b.started = true

	if ctx.Err() != nil {
		return nil
	}

	b.logger.Info("stepboard starting",
		"session_id", b.sessionID,
		"source", b.source.URL(),
		"interval", b.pollingInterval.String(),
		"overlap", b.overlap.String(),
	)

	b.origin = clock.Capture(b.clock)

	surfaces := append([]render.Surface{}, b.surfaces...)
	var hub *server.Hub
	if !b.headless {
		hub = server.NewHub()
		surfaces = append(surfaces, hub)
	}

	var surface render.Surface
	if len(surfaces) == 1 {
		surface = surfaces[0]
	} else {
		surface = render.Tee(surfaces...)
	}

	chart, err := render.Init(surface, b.chartConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize chart: %w", err)
	}

	if hub != nil {
		info := server.Info{
			Title:     b.title,
			SessionID: b.sessionID,
			StartedAt: b.origin.Start(),
		}
		httpServer := server.NewServer(chart, hub, b.port, dashboard.Assets, info, b.logger)
		if err := httpServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		b.addr = httpServer.Addr()
		b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.addr.(*net.TCPAddr).Port))
	}

	b.chart = chart
	b.series = series.NewBuffer()
	b.sampler = poller.NewSampler(b.pollerSource(), b.logger)
	b.scheduler = poller.NewScheduler(b.pollingInterval, b.clock, b.overlap, b.logger)

	b.state = StateRunning
	b.scheduler.Start(ctx, b.tick)
	return nil
}

// shutdown stops polling and waits for the in-flight tick.
func (b *Board) shutdown() {
	b.scheduler.Stop()
	b.sampler.Close()

	b.mu.Lock()
	b.state = StateStopped
	b.mu.Unlock()

	b.logger.Info("stepboard stopped", "points", b.series.Len())
}

// tick samples the source once and records the outcome.
func (b *Board) tick(ctx context.Context) {
	reading := b.sampler.Sample(ctx)
	if ctx.Err() != nil {
		// stopping; the request was cut short
		return
	}

	result := SampleResult{
		Index:       -1,
		URL:         b.source.URL(),
		StatusCode:  reading.StatusCode,
		Latency:     reading.Latency,
		CheckedAt:   reading.CheckedAt,
		RawResponse: copyBytes(reading.RawResponse),
	}

	if reading.OK() {
		s := series.At(b.origin, b.clock.Now(), reading.Value)
		b.series.Append(s)
		if err := b.chart.Update(s); err != nil {
			b.logger.Warn("chart redraw failed", "error", err.Error())
		}

		result.Sample = s
		result.Index = b.series.Len() - 1

		b.logger.Debug("sample recorded",
			"elapsed_s", s.ElapsedSeconds,
			"value", s.Value,
			"latency_ms", reading.Latency.Milliseconds(),
		)
	} else {
		result.Failure = &Failure{Kind: FailureKind(reading.Failure), Err: reading.Err}

		b.logger.Warn("sample failed",
			"kind", string(reading.Failure),
			"url", b.source.URL(),
			"status_code", reading.StatusCode,
			"error", reading.Err.Error(),
		)
	}

	for _, cb := range b.sampleCallbacks {
		invokeCallbackSafe(cb, result, b.logger)
	}
}

func (b *Board) pollerSource() poller.Source {
	return poller.Source{
		URL:       b.source.url,
		Headers:   copyMap(b.source.headers),
		Timeout:   b.source.timeout,
		Extractor: poller.ValueExtractor(b.source.extractor),
	}
}

// State returns the lifecycle state.
func (b *Board) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// SessionID returns the random identifier of this board.
func (b *Board) SessionID() string {
	return b.sessionID
}

// Addr returns the dashboard's bound address once running, or nil.
func (b *Board) Addr() net.Addr {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.addr
}

// Series returns a copy of the recorded samples, or nil before Start.
func (b *Board) Series() []series.Sample {
	b.mu.RLock()
	buf := b.series
	b.mu.RUnlock()
	if buf == nil {
		return nil
	}
	return buf.Snapshot()
}

// Chart returns a copy of the chart state. Before Start it holds only the
// config.
func (b *Board) Chart() render.Snapshot {
	b.mu.RLock()
	h := b.chart
	b.mu.RUnlock()
	if h == nil {
		return render.View{Config: b.chartConfig}.Snapshot()
	}
	return h.Snapshot()
}

// Source returns the configured telemetry source.
func (b *Board) Source() Source {
	return b.source
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// PollingInterval returns the configured interval between samples.
func (b *Board) PollingInterval() time.Duration {
	return b.pollingInterval
}

// Title returns the dashboard title.
func (b *Board) Title() string {
	return b.title
}

// copyBytes returns a copy of the byte slice, or nil if input is nil.
func copyBytes(bs []byte) []byte {
	if bs == nil {
		return nil
	}
	return append([]byte(nil), bs...)
}

// invokeCallbackSafe calls a sample callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(SampleResult), result SampleResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sample callback panicked",
				"panic", r,
				"index", result.Index,
			)
		}
	}()
	cb(result)
}
