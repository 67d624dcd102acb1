// Package stepboard charts a live step counter.
//
// A [Board] samples a numeric counter from an HTTP endpoint at a fixed
// interval (1 second by default) and plots the samples as a line chart of
// elapsed seconds against value. The chart is served as a web dashboard
// and can also be drawn on any [render.Surface], such as the terminal
// chart used by the CLI.
//
// # Quick Start
//
//	src, _ := stepboard.NewSource("http://localhost:5000/")
//	b, _ := stepboard.New(stepboard.WithSource(src))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Start(ctx) // blocks until context is cancelled
//
// # Sampling
//
// Every tick performs one GET. The body goes through a [ValueExtractor],
// by default [DefaultExtractor] which reads the numeric "steps" field of a
// JSON object. A successful tick appends one point to the series and
// redraws the chart. A failed tick is logged and changes nothing; its
// [Failure] is either [FailureTransport] or [FailureDecode]. Failed ticks
// are not retried.
//
// Ticks never overlap. A tick that fires while the previous sample is
// still in flight is dropped, or with [OverlapQueue] deferred until the
// in-flight sample completes.
//
// # Elapsed Time
//
// The clock origin is captured once when the board starts. Each sample is
// labelled with the whole seconds elapsed since the origin at the moment
// the read completed. Tests inject a [clock.Manual] via [WithClock].
//
// # Architecture
//
//   - clock: time source and elapsed-seconds origin
//   - series: append-only sample buffer
//   - render: chart state and the [render.Surface] contract
//   - internal/poller: sampler and tick scheduler
//   - internal/server: HTTP server with REST API and Server-Sent Events
//   - internal/tui: terminal chart surface
//   - dashboard: embedded web UI assets
package stepboard
