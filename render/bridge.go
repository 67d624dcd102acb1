package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jpalmerr/stepboard/series"
)

// ErrNoSurface is returned by [Init] when there is nothing to draw on.
var ErrNoSurface = errors.New("render surface missing")

// Handle owns the chart state of one mounted surface.
//
// Update and Snapshot are safe for concurrent use.
type Handle struct {
	surface Surface
	config  ChartConfig

	mu      sync.RWMutex
	labels  []int64
	data    []float64
	redraws int
}

// Init validates cfg, mounts surface with it, and returns a [Handle] with
// empty axes. The config is copied; later changes to cfg have no effect.
func Init(surface Surface, cfg ChartConfig) (*Handle, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	if t, ok := surface.(tee); ok && len(t) == 0 {
		return nil, ErrNoSurface
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.clone()
	if err := surface.Mount(cfg); err != nil {
		return nil, fmt.Errorf("mount surface %q: %w", cfg.ElementID, err)
	}

	return &Handle{
		surface: surface,
		config:  cfg,
	}, nil
}

// Config returns the static chart config.
func (h *Handle) Config() ChartConfig {
	return h.config.clone()
}

// Update appends p to the label and data axes and redraws synchronously.
//
// The point is recorded even when the redraw fails; the error is returned
// so the caller can log it.
func (h *Handle) Update(p series.Sample) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.labels = append(h.labels, p.ElapsedSeconds)
	h.data = append(h.data, p.Value)
	h.redraws++

	return h.surface.Redraw(View{
		Config: h.config,
		Labels: h.labels,
		Data:   h.data,
	})
}

// Len returns the number of real points on the chart.
func (h *Handle) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.data)
}

// Redraws returns how many redraws were requested.
func (h *Handle) Redraws() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.redraws
}

// Snapshot returns a detached copy of the chart state.
func (h *Handle) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return View{Config: h.config, Labels: h.labels, Data: h.data}.Snapshot()
}

// DisplayLabels returns the labels a surface should show: the placeholder
// set while the chart is empty, the real elapsed seconds afterwards.
func (s Snapshot) DisplayLabels() []int64 {
	if len(s.Labels) == 0 {
		return append([]int64{}, s.Config.Axis.Placeholder...)
	}
	return s.Labels
}
