package stepboard

import (
	"errors"
	"time"

	"github.com/jpalmerr/stepboard/series"
)

// FailureKind classifies why a tick produced no sample.
type FailureKind string

const (
	// FailureTransport covers unreachable sources, timeouts, and non-2xx
	// responses.
	FailureTransport FailureKind = "transport"

	// FailureDecode covers bodies the [ValueExtractor] rejected.
	FailureDecode FailureKind = "decode"
)

// String returns the kind name.
func (k FailureKind) String() string {
	return string(k)
}

// Sentinels matched by [Failure] through errors.Is.
var (
	ErrTransport = errors.New("transport failure")
	ErrDecode    = errors.New("decode failure")
)

// Failure is the error of a tick that produced no sample.
//
//	var f *stepboard.Failure
//	if errors.As(err, &f) && f.Kind == stepboard.FailureDecode { ... }
//
// errors.Is(err, ErrTransport) and errors.Is(err, ErrDecode) also work.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind) + " failure"
	}
	return string(f.Kind) + ": " + f.Err.Error()
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the sentinel of the failure's kind.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrTransport:
		return f.Kind == FailureTransport
	case ErrDecode:
		return f.Kind == FailureDecode
	}
	return false
}

// SampleResult is the outcome of one tick.
//
// SampleResult is immutable after creation. RawResponse is a copy owned by
// the receiver.
type SampleResult struct {
	// Sample is the recorded point. Zero on failure.
	Sample series.Sample

	// Index is the position of Sample in the series, -1 on failure.
	Index int

	// Failure is nil on success.
	Failure *Failure

	// URL is the source URL that was read.
	URL string

	// StatusCode is the HTTP status code, zero if no response arrived.
	StatusCode int

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// CheckedAt is the wall time the request completed.
	CheckedAt time.Time

	// RawResponse contains the response body, limited to 1MB.
	RawResponse []byte
}

// OK reports whether the tick recorded a sample.
func (r SampleResult) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil.
func (r SampleResult) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// State is the lifecycle state of a [Board].
type State int

const (
	// StateUninitialized is a board that has not started.
	StateUninitialized State = iota

	// StateRunning is a board that is polling.
	StateRunning

	// StateStopped is a board whose context was cancelled.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
