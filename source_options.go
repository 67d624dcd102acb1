package stepboard

import (
	"errors"
	"time"
)

// sourceConfig holds mutable state during source construction.
type sourceConfig struct {
	headers   map[string]string
	timeout   time.Duration
	extractor ValueExtractor
}

// SourceOption configures a [Source] during construction.
//
// Built-in options: [WithHeaders], [WithTimeout], [WithExtractor].
type SourceOption func(*sourceConfig) error

// WithHeaders adds custom HTTP headers to every request.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	src, err := stepboard.NewSource(url,
//	    stepboard.WithHeaders("X-Device", "wrist-01"),
//	)
func WithHeaders(keyValues ...string) SourceOption {
	return func(cfg *sourceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the HTTP request timeout.
//
// A request that exceeds the timeout is a transport failure for that tick.
// Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) SourceOption {
	return func(cfg *sourceConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithExtractor sets how response bodies become a value.
//
// Returns an error if the extractor is nil.
func WithExtractor(e ValueExtractor) SourceOption {
	return func(cfg *sourceConfig) error {
		if e == nil {
			return errors.New("extractor cannot be nil")
		}
		cfg.extractor = e
		return nil
	}
}
