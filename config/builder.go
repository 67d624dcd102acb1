package config

import (
	"log/slog"
	"sort"

	"github.com/jpalmerr/stepboard"
)

// BuildSource converts the source section into an SDK Source.
func BuildSource(sc SourceConfig) (stepboard.Source, error) {
	var opts []stepboard.SourceOption

	if sc.Timeout != 0 {
		opts = append(opts, stepboard.WithTimeout(sc.Timeout.Duration()))
	}

	if len(sc.Headers) > 0 {
		opts = append(opts, stepboard.WithHeaders(mapToKeyValuePairs(sc.Headers)...))
	}

	extractor, err := buildExtractor(sc.Extractor)
	if err != nil {
		return stepboard.Source{}, err
	}
	if extractor != nil {
		opts = append(opts, stepboard.WithExtractor(extractor))
	}

	return stepboard.NewSource(sc.URL, opts...)
}

// BuildOptions converts a parsed configuration into Board options.
//
// The logger is passed through as-is; the caller builds it from
// [Config.Log] so the same logger serves the CLI and the board.
func BuildOptions(cfg *Config, logger *slog.Logger) ([]stepboard.Option, error) {
	src, err := BuildSource(cfg.Source)
	if err != nil {
		return nil, err
	}

	overlap, err := ParseOverlap(cfg.Overlap)
	if err != nil {
		return nil, err
	}

	opts := []stepboard.Option{
		stepboard.WithSource(src),
		stepboard.WithPollingInterval(cfg.PollInterval.Duration()),
		stepboard.WithPort(cfg.Port),
		stepboard.WithChart(cfg.Chart.Build()),
		stepboard.WithOverlapPolicy(overlap),
	}
	if cfg.Title != "" {
		opts = append(opts, stepboard.WithTitle(cfg.Title))
	}
	if logger != nil {
		opts = append(opts, stepboard.WithLogger(logger))
	}
	return opts, nil
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// buildExtractor converts ExtractorConfig to a ValueExtractor.
// Returns nil for default/empty extractors (SDK uses DefaultExtractor).
func buildExtractor(ec ExtractorConfig) (stepboard.ValueExtractor, error) {
	switch ec.Type {
	case "", "default":
		return nil, nil
	case "text":
		return stepboard.PlainNumberExtractor, nil
	case "json":
		return stepboard.JSONNumberExtractor(ec.Path), nil
	case "regex":
		return stepboard.RegexNumberExtractor(ec.Pattern)
	default:
		// validation should catch this, but return nil as fallback
		return nil, nil
	}
}
