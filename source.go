package stepboard

import (
	"errors"
	"net/url"
	"time"
)

// DefaultURL is the telemetry endpoint polled when no source is configured.
const DefaultURL = "http://3.133.102.136:5000/?total_steps_taken"

const defaultSourceTimeout = 10 * time.Second

// Source is the remote endpoint that reports the step counter.
//
// Source is immutable after creation via [NewSource]. Getters return
// copies of mutable data.
type Source struct {
	url       string
	headers   map[string]string
	timeout   time.Duration
	extractor ValueExtractor
}

// URL returns the URL read on every tick.
func (s Source) URL() string {
	return s.url
}

// Headers returns a copy of the custom HTTP headers, or nil.
func (s Source) Headers() map[string]string {
	return copyMap(s.headers)
}

// Timeout returns the per-request timeout. Defaults to 10 seconds.
func (s Source) Timeout() time.Duration {
	return s.timeout
}

// Extractor returns the [ValueExtractor] applied to response bodies.
// Never nil for a Source built by [NewSource].
func (s Source) Extractor() ValueExtractor {
	return s.extractor
}

// NewSource creates a [Source] for rawURL.
//
// The URL must be absolute with an http or https scheme. Without
// [WithExtractor] the body is decoded by [DefaultExtractor].
//
// Example:
//
//	src, err := stepboard.NewSource("http://localhost:5000/",
//	    stepboard.WithTimeout(2*time.Second),
//	    stepboard.WithExtractor(stepboard.JSONNumberExtractor("data.steps")),
//	)
func NewSource(rawURL string, opts ...SourceOption) (Source, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Source{}, errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Source{}, errors.New("URL must have a scheme (http:// or https://)")
	}
	if parsedURL.Host == "" {
		return Source{}, errors.New("URL must have a host")
	}

	cfg := &sourceConfig{
		headers:   make(map[string]string),
		timeout:   defaultSourceTimeout,
		extractor: DefaultExtractor,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Source{}, err
		}
	}

	return Source{
		url:       rawURL,
		headers:   cfg.headers,
		timeout:   cfg.timeout,
		extractor: cfg.extractor,
	}, nil
}

// DefaultSource returns the source for [DefaultURL] with default settings.
func DefaultSource() Source {
	src, err := NewSource(DefaultURL)
	if err != nil {
		panic("stepboard: invalid default source: " + err.Error())
	}
	return src
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
