package stepboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ValueExtractor decodes a response body into the counter value.
//
// A ValueExtractor is the schema step between the transport and the series:
// it returns a typed number or an error, never a loosely typed value. Any
// error becomes a decode failure for that tick.
//
// Built-in extractors: [JSONNumberExtractor], [RegexNumberExtractor],
// [PlainNumberExtractor], and [FirstMatch] for composition.
//
// # Panic Safety
//
// Extractors are called within a panic recovery boundary. A panic becomes
// a decode failure carrying a correlation ID; the stack trace is logged.
type ValueExtractor func(body []byte) (float64, error)

// JSONNumberExtractor returns a [ValueExtractor] that reads a numeric JSON
// field addressed with dot notation.
//
// For example, "data.steps" reads {"data": {"steps": 42}}. The extractor
// fails when the body is not a JSON object, the field is missing, or the
// field holds anything but a finite number (strings such as "42" included).
func JSONNumberExtractor(path string) ValueExtractor {
	parts := strings.Split(path, ".")

	return func(body []byte) (float64, error) {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()

		var data interface{}
		if err := dec.Decode(&data); err != nil {
			return 0, fmt.Errorf("invalid JSON: %w", err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return 0, errors.New("invalid JSON: trailing data after value")
		}

		current := data
		for i, part := range parts {
			obj, ok := current.(map[string]interface{})
			if !ok {
				return 0, fmt.Errorf("field %q: parent is not an object", strings.Join(parts[:i+1], "."))
			}
			current, ok = obj[part]
			if !ok {
				return 0, fmt.Errorf("field %q missing", path)
			}
		}

		n, ok := current.(json.Number)
		if !ok {
			return 0, fmt.Errorf("field %q is %s, want number", path, jsonKind(current))
		}
		v, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", path, err)
		}
		return v, nil
	}
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// RegexNumberExtractor returns a [ValueExtractor] that parses the first
// capture group of pattern as a number.
//
// Returns an error if the pattern is invalid or has no capture group.
//
// Example:
//
//	// Match "steps=1234" in a plain-text body
//	extractor, err := stepboard.RegexNumberExtractor(`steps=(\d+)`)
func RegexNumberExtractor(pattern string) (ValueExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, errors.New("pattern must contain a capture group")
	}

	return func(body []byte) (float64, error) {
		matches := re.FindSubmatch(body)
		if len(matches) < 2 {
			return 0, fmt.Errorf("pattern %q did not match", pattern)
		}
		return parseNumber(string(matches[1]))
	}, nil
}

// MustRegexNumberExtractor is like [RegexNumberExtractor] but panics if
// the pattern is invalid.
func MustRegexNumberExtractor(pattern string) ValueExtractor {
	extractor, err := RegexNumberExtractor(pattern)
	if err != nil {
		panic("stepboard: invalid regex pattern: " + err.Error())
	}
	return extractor
}

// PlainNumberExtractor is a [ValueExtractor] for bodies that are a bare
// number, optionally surrounded by whitespace.
var PlainNumberExtractor ValueExtractor = func(body []byte) (float64, error) {
	return parseNumber(string(bytes.TrimSpace(body)))
}

// FirstMatch returns a [ValueExtractor] that tries extractors in order and
// returns the first value decoded without error.
//
// If every extractor fails, the errors are joined.
//
// Example:
//
//	// Accept {"steps": N} or a bare number
//	extractor := stepboard.FirstMatch(
//	    stepboard.JSONNumberExtractor("steps"),
//	    stepboard.PlainNumberExtractor,
//	)
func FirstMatch(extractors ...ValueExtractor) ValueExtractor {
	return func(body []byte) (float64, error) {
		errs := make([]error, 0, len(extractors))
		for _, extractor := range extractors {
			v, err := extractor(body)
			if err == nil {
				return v, nil
			}
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			return 0, errors.New("no extractors")
		}
		return 0, errors.Join(errs...)
	}
}

// DefaultExtractor reads the numeric top-level "steps" field.
var DefaultExtractor = JSONNumberExtractor("steps")

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}
