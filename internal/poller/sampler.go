package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// FailureKind classifies why a sample produced no value.
type FailureKind string

const (
	// FailureNone marks a successful reading.
	FailureNone FailureKind = ""

	// FailureTransport covers unreachable sources and non-2xx responses.
	FailureTransport FailureKind = "transport"

	// FailureDecode covers bodies that are not valid JSON or lack a
	// numeric value at the configured field.
	FailureDecode FailureKind = "decode"
)

// ValueExtractor turns a response body into a typed number.
//
// This is the poller-internal version of stepboard.ValueExtractor.
type ValueExtractor func(body []byte) (float64, error)

// Source contains the configuration needed to sample the telemetry endpoint.
type Source struct {
	// URL is the target URL to read.
	URL string

	// Headers contains custom HTTP headers to send with requests.
	Headers map[string]string

	// Timeout is the per-request timeout. Zero means no extra bound.
	Timeout time.Duration

	// Extractor decodes the response body into a value.
	Extractor ValueExtractor
}

// Reading holds the outcome of one sample.
type Reading struct {
	// Value is the decoded counter value. Only meaningful when OK.
	Value float64

	// Failure is FailureNone on success.
	Failure FailureKind

	// Err describes the failure. nil on success.
	Err error

	// StatusCode is the HTTP status, zero if no response arrived.
	StatusCode int

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// CheckedAt is the wall time the reading completed.
	CheckedAt time.Time

	// RawResponse is the response body, limited to 1MB.
	RawResponse []byte
}

// OK reports whether the reading carries a value.
func (r Reading) OK() bool {
	return r.Failure == FailureNone
}

// Sampler reads the source once per call to [Sampler.Sample].
//
// Sampler never panics and never returns an error: every transport or
// decode problem is folded into the [Reading]. It does not retry.
type Sampler struct {
	source Source
	client *Client
	logger *slog.Logger
}

// NewSampler creates a Sampler for src.
func NewSampler(src Source, logger *slog.Logger) *Sampler {
	return &Sampler{
		source: src,
		client: NewClient(),
		logger: logger,
	}
}

// Sample performs one request and classifies the outcome.
func (s *Sampler) Sample(ctx context.Context) Reading {
	resp := s.client.Fetch(ctx, s.source.URL, s.source.Headers, s.source.Timeout)

	reading := Reading{
		StatusCode:  resp.StatusCode,
		Latency:     resp.Latency,
		CheckedAt:   time.Now(),
		RawResponse: resp.Body,
	}

	switch {
	case resp.Error != nil:
		reading.Failure = FailureTransport
		reading.Err = resp.Error
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		reading.Failure = FailureTransport
		reading.Err = fmt.Errorf("unexpected status %d", resp.StatusCode)
	case s.source.Extractor == nil:
		reading.Failure = FailureDecode
		reading.Err = errors.New("no value extractor configured")
	default:
		value, err := s.safeExtract(resp.Body)
		if err != nil {
			reading.Failure = FailureDecode
			reading.Err = err
		} else {
			reading.Value = value
		}
	}

	return reading
}

// Close releases idle connections.
func (s *Sampler) Close() {
	s.client.Close()
}

// safeExtract calls the extractor with panic recovery.
// If the extractor panics, it logs the full stack trace with a correlation ID
// and returns an error containing the ID.
func (s *Sampler) safeExtract(body []byte) (value float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			s.logger.Error("extractor panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)

			value = 0
			err = fmt.Errorf("extractor panic (correlation_id: %s)", correlationID)
		}
	}()
	return s.source.Extractor(body)
}
