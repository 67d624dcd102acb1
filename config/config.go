// Package config provides YAML configuration parsing for stepboard.
//
// This package enables running stepboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Morning Walk
//	port: 8080
//	poll_interval: 1s
//	overlap: skip
//
//	source:
//	  url: ${STEPS_URL:-http://localhost:5000/?total_steps_taken}
//	  timeout: 5s
//	  extractor: json:steps
//
//	chart:
//	  color: red
//	  width: 2
//
//	log:
//	  level: info
//	  format: console
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/stepboard"
	"github.com/jpalmerr/stepboard/internal/logger"
	"github.com/jpalmerr/stepboard/render"
)

// minPollInterval is the smallest accepted polling interval.
const minPollInterval = 100 * time.Millisecond

const (
	defaultPort         = 8080
	defaultPollInterval = time.Second
)

// Config is the root configuration structure for stepboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "Step Counter" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the time between samples.
	// Accepts duration strings like "1s", "500ms". Defaults to 1s.
	PollInterval Duration `yaml:"poll_interval"`

	// Overlap is "skip" (default) or "queue".
	Overlap string `yaml:"overlap"`

	// Source is the telemetry endpoint.
	Source SourceConfig `yaml:"source"`

	// Chart overrides the default chart appearance.
	Chart ChartConfig `yaml:"chart"`

	// Log configures the CLI logger.
	Log LogConfig `yaml:"log"`
}

// SourceConfig defines the telemetry endpoint.
type SourceConfig struct {
	// URL is the endpoint URL. Defaults to stepboard.DefaultURL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Timeout is the request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Extractor determines how the response body becomes a value.
	// Can be shorthand ("json:steps", "regex:steps=(\\d+)", "text") or structured.
	Extractor ExtractorConfig `yaml:"extractor"`
}

// ChartConfig overrides fields of render.DefaultConfig. Empty fields keep
// the default.
type ChartConfig struct {
	SeriesName  string  `yaml:"series_name"`
	XTitle      string  `yaml:"x_title"`
	YTitle      string  `yaml:"y_title"`
	Color       string  `yaml:"color"`
	Width       int     `yaml:"width"`
	Placeholder []int64 `yaml:"placeholder"`
}

// LogConfig selects the CLI log level and format.
type LogConfig struct {
	// Level is debug, info, warn, or error. Defaults to info.
	Level string `yaml:"level"`

	// Format is console or json. Defaults to console.
	Format string `yaml:"format"`
}

// ExtractorConfig specifies how to read the value from a response.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	extractor: json:steps
//	extractor: json:data.steps
//	extractor: regex:steps=(\d+)
//	extractor: text
//	extractor: default
//
// Structured object:
//
//	extractor:
//	  type: json
//	  path: data.steps
type ExtractorConfig struct {
	// Type is the extractor type: "default", "json", "regex", "text".
	Type string

	// Path is the JSON field path (for type: json).
	Path string

	// Pattern is the regular expression (for type: regex).
	Pattern string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for ExtractorConfig.
func (e *ExtractorConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return e.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type    string `yaml:"type"`
			Path    string `yaml:"path"`
			Pattern string `yaml:"pattern"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		e.Type = raw.Type
		e.Path = raw.Path
		e.Pattern = raw.Pattern
		return nil
	}

	return fmt.Errorf("extractor must be a string or object, got %v", node.Kind)
}

// parseShorthand parses extractor shorthand syntax.
//
// Supported formats:
//   - "default" → {"steps": N}
//   - "text" → bare number body
//   - "json:path" → numeric JSON field
//   - "regex:pattern" → first capture group
func (e *ExtractorConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if idx := strings.Index(s, ":"); idx != -1 {
		e.Type = s[:idx]
		value := s[idx+1:]

		switch e.Type {
		case "json":
			e.Path = value
		case "regex":
			e.Pattern = value
		default:
			return fmt.Errorf("unknown extractor type %q", e.Type)
		}
		return nil
	}

	switch s {
	case "default", "text":
		e.Type = s
	default:
		return fmt.Errorf("unknown extractor %q (expected 'default', 'text', 'json:path', or 'regex:pattern')", s)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the source section are expanded after parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the source URL and header values.
// Defaults are applied for Port (8080), PollInterval (1s), and the source URL.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(defaultPollInterval)
	}
	if c.Overlap == "" {
		c.Overlap = "skip"
	}
	if c.Source.URL == "" {
		c.Source.URL = stepboard.DefaultURL
	}
}

// Validate checks a Config built or modified in code, such as one with
// CLI overrides applied.
func (c *Config) Validate() error {
	return c.expandAndValidate()
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", c.Port)
	}

	if _, err := ParseOverlap(c.Overlap); err != nil {
		return err
	}

	src := &c.Source
	expanded, err := expandEnvVars(src.URL)
	if err != nil {
		return fmt.Errorf("source: url: %w", err)
	}
	src.URL = expanded

	parsedURL, err := url.Parse(src.URL)
	if err != nil {
		return fmt.Errorf("source: invalid url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("source: url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("source: url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	for k, v := range src.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("source: headers[%s]: %w", k, err)
		}
		src.Headers[k] = expanded
	}

	if src.Timeout < 0 {
		return fmt.Errorf("source: timeout cannot be negative, got %s", src.Timeout.Duration())
	}

	if err := validateExtractor(&src.Extractor, "source"); err != nil {
		return err
	}

	if err := c.Chart.Build().Validate(); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	for i := 1; i < len(c.Chart.Placeholder); i++ {
		if c.Chart.Placeholder[i] < c.Chart.Placeholder[i-1] {
			return fmt.Errorf("chart: placeholder[%d] is smaller than placeholder[%d]", i, i-1)
		}
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	return nil
}

// validateExtractor validates an extractor configuration.
func validateExtractor(e *ExtractorConfig, context string) error {
	switch e.Type {
	case "", "default", "text":
		// no additional validation needed
	case "json":
		if e.Path == "" {
			return fmt.Errorf("%s: extractor type 'json' requires a path", context)
		}
	case "regex":
		if e.Pattern == "" {
			return fmt.Errorf("%s: extractor type 'regex' requires a pattern", context)
		}
		if _, err := stepboard.RegexNumberExtractor(e.Pattern); err != nil {
			return fmt.Errorf("%s: invalid regex: %w", context, err)
		}
	default:
		return fmt.Errorf("%s: unknown extractor type %q", context, e.Type)
	}

	return nil
}

// ParseOverlap maps "skip" or "queue" to an overlap policy.
func ParseOverlap(s string) (stepboard.OverlapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return stepboard.OverlapSkip, nil
	case "queue":
		return stepboard.OverlapQueue, nil
	default:
		return stepboard.OverlapSkip, fmt.Errorf("overlap must be skip or queue, got %q", s)
	}
}

// Build returns render.DefaultConfig with the non-empty fields applied.
func (c ChartConfig) Build() render.ChartConfig {
	cfg := render.DefaultConfig()
	if c.SeriesName != "" {
		cfg.SeriesName = c.SeriesName
	}
	if c.XTitle != "" {
		cfg.Axis.XTitle = c.XTitle
	}
	if c.YTitle != "" {
		cfg.Axis.YTitle = c.YTitle
	}
	if c.Color != "" {
		cfg.Style.Color = c.Color
	}
	if c.Width != 0 {
		cfg.Style.Width = c.Width
	}
	if len(c.Placeholder) > 0 {
		cfg.Axis.Placeholder = append([]int64(nil), c.Placeholder...)
	}
	return cfg
}
