// Package render is the bridge between the series buffer and a chart surface.
//
// The bridge owns the chart state: a label axis (elapsed seconds), a data
// axis (values), and a static [ChartConfig] fixed at [Init]. Every
// [Handle.Update] appends one point to both axes and synchronously asks the
// [Surface] to redraw. There is no batching and no removal.
//
// Surfaces are pluggable: the web dashboard hub and the terminal chart both
// implement [Surface], and [Tee] fans one chart out to several.
package render

import (
	"errors"
	"fmt"
	"regexp"
)

// Kind is the chart type drawn by a surface.
type Kind string

// KindLine draws the series as a connected line.
const KindLine Kind = "line"

// DefaultElementID identifies the surface the chart is mounted on.
const DefaultElementID = "StepCounter"

// ErrInvalidChart is wrapped by every [ChartConfig.Validate] failure.
var ErrInvalidChart = errors.New("invalid chart config")

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// named colors accepted in addition to hex values
var namedColors = map[string]string{
	"red":    "#FF0000",
	"green":  "#008000",
	"blue":   "#0000FF",
	"orange": "#FFA500",
	"purple": "#800080",
	"black":  "#000000",
	"white":  "#FFFFFF",
	"gray":   "#808080",
}

// Axis describes the titles and placeholder labels of the chart.
type Axis struct {
	// XTitle is the label-axis title, e.g. "Time (s)".
	XTitle string `json:"x_title"`

	// YTitle is the value-axis title, e.g. "Steps".
	YTitle string `json:"y_title"`

	// Placeholder labels are shown until the first real point arrives.
	// They are cosmetic and never mixed with real elapsed seconds.
	Placeholder []int64 `json:"placeholder"`
}

// Style is the visual style of the single data series.
type Style struct {
	// Color is a CSS color name or hex value.
	Color string `json:"color"`

	// Width is the stroke width in pixels.
	Width int `json:"width"`
}

// ChartConfig is the static description of the chart. It is set once at
// [Init] and never mutated.
type ChartConfig struct {
	ElementID  string `json:"element_id"`
	Kind       Kind   `json:"kind"`
	SeriesName string `json:"series_name"`
	Axis       Axis   `json:"axis"`
	Style      Style  `json:"style"`
	Responsive bool   `json:"responsive"`
}

// DefaultPlaceholder returns the initial label set [1, 5, 10, ..., 100].
func DefaultPlaceholder() []int64 {
	labels := []int64{1}
	for v := int64(5); v <= 100; v += 5 {
		labels = append(labels, v)
	}
	return labels
}

// DefaultConfig returns the step-counter chart: a responsive red line of
// width 2 named "Steps" with axes "Time (s)" and "Steps".
func DefaultConfig() ChartConfig {
	return ChartConfig{
		ElementID:  DefaultElementID,
		Kind:       KindLine,
		SeriesName: "Steps",
		Axis: Axis{
			XTitle:      "Time (s)",
			YTitle:      "Steps",
			Placeholder: DefaultPlaceholder(),
		},
		Style: Style{
			Color: "red",
			Width: 2,
		},
		Responsive: true,
	}
}

// Validate checks the config is drawable.
func (c ChartConfig) Validate() error {
	if c.ElementID == "" {
		return fmt.Errorf("%w: element id is required", ErrInvalidChart)
	}
	if c.Kind != KindLine {
		return fmt.Errorf("%w: unsupported kind %q (only %q)", ErrInvalidChart, c.Kind, KindLine)
	}
	if c.SeriesName == "" {
		return fmt.Errorf("%w: series name is required", ErrInvalidChart)
	}
	if c.Axis.XTitle == "" || c.Axis.YTitle == "" {
		return fmt.Errorf("%w: both axis titles are required", ErrInvalidChart)
	}
	if c.Style.Width <= 0 {
		return fmt.Errorf("%w: stroke width must be positive, got %d", ErrInvalidChart, c.Style.Width)
	}
	if _, err := ColorHex(c.Style.Color); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChart, err)
	}
	return nil
}

// ColorHex resolves a named or hex color to a "#RRGGBB"/"#RGB" string.
func ColorHex(color string) (string, error) {
	if hex, ok := namedColors[color]; ok {
		return hex, nil
	}
	if hexColor.MatchString(color) {
		return color, nil
	}
	return "", fmt.Errorf("unknown color %q", color)
}

// clone returns a deep copy so callers cannot mutate the placeholder slice.
func (c ChartConfig) clone() ChartConfig {
	cp := c
	if c.Axis.Placeholder != nil {
		cp.Axis.Placeholder = append([]int64(nil), c.Axis.Placeholder...)
	}
	return cp
}
