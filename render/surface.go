package render

import "errors"

// View is the chart state handed to [Surface.Redraw].
//
// Labels and Data alias the bridge's own axes and are only valid for the
// duration of the Redraw call. Surfaces that hand the view to another
// goroutine must copy it first (see [View.Snapshot]).
type View struct {
	Config ChartConfig
	Labels []int64
	Data   []float64
}

// Snapshot returns a copy of v that is safe to retain.
func (v View) Snapshot() Snapshot {
	return Snapshot{
		Config: v.Config.clone(),
		Labels: append([]int64{}, v.Labels...),
		Data:   append([]float64{}, v.Data...),
	}
}

// Snapshot is a detached copy of the chart state.
type Snapshot struct {
	Config ChartConfig `json:"config"`
	Labels []int64     `json:"labels"`
	Data   []float64   `json:"data"`
}

// Len returns the number of real points in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Data)
}

// Surface is a drawing target for one chart.
type Surface interface {
	// Mount prepares the surface once with the static chart config.
	// A Mount error is fatal to initialization.
	Mount(cfg ChartConfig) error

	// Redraw draws the current state. It must not block on slow
	// consumers.
	Redraw(v View) error
}

// Tee returns a Surface that mounts and redraws every surface in order.
// Nil surfaces are ignored.
func Tee(surfaces ...Surface) Surface {
	out := make(tee, 0, len(surfaces))
	for _, s := range surfaces {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type tee []Surface

func (t tee) Mount(cfg ChartConfig) error {
	for _, s := range t {
		if err := s.Mount(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Redraw draws on every surface even if an earlier one fails.
func (t tee) Redraw(v View) error {
	var errs []error
	for _, s := range t {
		if err := s.Redraw(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
