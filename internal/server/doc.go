// Package server provides the HTTP server for the stepboard web dashboard.
//
// This package is internal to stepboard and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded Chart.js page at "/"
//   - REST API: JSON snapshot of the chart at "/api/chart"
//   - Server-Sent Events: a snapshot followed by one event per point at "/api/sse"
//
// [Hub] is the web chart surface: the render bridge redraws onto it and it
// fans each new point out to connected browsers.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
