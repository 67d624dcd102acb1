// Package series provides the append-only time series behind the chart.
//
// A [Buffer] holds every [Sample] collected during a session in insertion
// order. Samples are never removed, reordered, or compacted; the buffer
// lives exactly as long as the process.
//
// The buffer is safe for concurrent use. Readers get copies, so the HTTP
// API and the terminal UI can read while the polling loop appends.
package series
