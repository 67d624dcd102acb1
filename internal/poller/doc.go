// Package poller samples the telemetry source on a fixed cadence.
//
// This package is internal to stepboard. The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and size limits
//   - [Sampler]: performs one read of the source and classifies the outcome
//   - [Scheduler]: fires ticks at a fixed interval with an in-flight guard
//   - [Reading]: the outcome of one sample, a value or a failure
//
// Users of the stepboard library should not need to interact with this
// package directly. Configuration is done through the main stepboard package.
package poller
