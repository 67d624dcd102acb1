package stepboard

import (
	"strings"
	"testing"
)

func TestJSONNumberExtractor(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		want    float64
		wantErr string
	}{
		// valid numbers
		{"integer", "steps", `{"steps": 42}`, 42, ""},
		{"zero", "steps", `{"steps": 0}`, 0, ""},
		{"float", "steps", `{"steps": 12.5}`, 12.5, ""},
		{"negative", "steps", `{"steps": -3}`, -3, ""},
		{"exponent", "steps", `{"steps": 1e3}`, 1000, ""},
		{"extra fields", "steps", `{"device": "w1", "steps": 7}`, 7, ""},
		{"nested", "data.steps", `{"data": {"steps": 99}}`, 99, ""},

		// decode failures
		{"invalid JSON", "steps", `not json`, 0, "invalid JSON"},
		{"empty body", "steps", ``, 0, "invalid JSON"},
		{"trailing text", "steps", `{"steps": 5} not json`, 0, "invalid JSON"},
		{"second value", "steps", `{"steps": 5}{"steps": 6}`, 0, "invalid JSON"},
		{"trailing bracket", "steps", `{"steps": 5}]`, 0, "invalid JSON"},
		{"trailing whitespace ok", "steps", "{\"steps\": 5}\n", 5, ""},
		{"missing field", "steps", `{"count": 1}`, 0, "missing"},
		{"string number", "steps", `{"steps": "42"}`, 0, "is string"},
		{"null", "steps", `{"steps": null}`, 0, "is null"},
		{"bool", "steps", `{"steps": true}`, 0, "is bool"},
		{"array", "steps", `{"steps": [1]}`, 0, "is array"},
		{"top-level array", "steps", `[1, 2]`, 0, "not an object"},
		{"nested parent not object", "data.steps", `{"data": 5}`, 0, "not an object"},
		{"nested missing", "data.steps", `{"data": {}}`, 0, "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSONNumberExtractor(tt.path)([]byte(tt.body))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got value %v", tt.wantErr, got)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultExtractor(t *testing.T) {
	v, err := DefaultExtractor([]byte(`{"steps": 15}`))
	if err != nil || v != 15 {
		t.Errorf("DefaultExtractor = %v, %v; want 15, nil", v, err)
	}

	if _, err := DefaultExtractor([]byte(`{"total_steps_taken": 15}`)); err == nil {
		t.Error("DefaultExtractor should only read the steps field")
	}
}

func TestRegexNumberExtractor(t *testing.T) {
	extractor, err := RegexNumberExtractor(`steps=(\d+(?:\.\d+)?)`)
	if err != nil {
		t.Fatalf("RegexNumberExtractor() error = %v", err)
	}

	tests := []struct {
		name    string
		body    string
		want    float64
		wantErr bool
	}{
		{"match", "device=w1 steps=1234", 1234, false},
		{"decimal", "steps=12.5", 12.5, false},
		{"no match", "count=3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractor([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegexNumberExtractor_InvalidPattern(t *testing.T) {
	if _, err := RegexNumberExtractor(`steps=(\d+`); err == nil {
		t.Error("expected error for invalid pattern")
	}
	if _, err := RegexNumberExtractor(`steps=\d+`); err == nil {
		t.Error("expected error for pattern without capture group")
	}
}

func TestRegexNumberExtractor_NonNumericCapture(t *testing.T) {
	extractor := MustRegexNumberExtractor(`steps=(\w+)`)
	if _, err := extractor([]byte("steps=many")); err == nil {
		t.Error("expected error for non-numeric capture")
	}
}

func TestMustRegexNumberExtractor_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustRegexNumberExtractor should panic on invalid pattern")
		}
	}()
	MustRegexNumberExtractor(`(`)
}

func TestPlainNumberExtractor(t *testing.T) {
	tests := []struct {
		body    string
		want    float64
		wantErr bool
	}{
		{"42", 42, false},
		{"  17\n", 17, false},
		{"3.25", 3.25, false},
		{"", 0, true},
		{"NaN", 0, true},
		{"+Inf", 0, true},
		{"ten", 0, true},
	}

	for _, tt := range tests {
		got, err := PlainNumberExtractor([]byte(tt.body))
		if (err != nil) != tt.wantErr {
			t.Errorf("PlainNumberExtractor(%q) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("PlainNumberExtractor(%q) = %v, want %v", tt.body, got, tt.want)
		}
	}
}

func TestFirstMatch(t *testing.T) {
	extractor := FirstMatch(JSONNumberExtractor("steps"), PlainNumberExtractor)

	if v, err := extractor([]byte(`{"steps": 5}`)); err != nil || v != 5 {
		t.Errorf("JSON body = %v, %v", v, err)
	}
	if v, err := extractor([]byte(`8`)); err != nil || v != 8 {
		t.Errorf("plain body = %v, %v", v, err)
	}

	_, err := extractor([]byte(`nope`))
	if err == nil {
		t.Fatal("expected error when all extractors fail")
	}
	if !strings.Contains(err.Error(), "invalid JSON") || !strings.Contains(err.Error(), "not a number") {
		t.Errorf("error should join every failure, got %v", err)
	}
}

func TestFirstMatch_Empty(t *testing.T) {
	if _, err := FirstMatch()([]byte("1")); err == nil {
		t.Error("FirstMatch() with no extractors should fail")
	}
}
