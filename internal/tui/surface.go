package tui

import (
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jpalmerr/stepboard/render"
)

// frameMsg carries a detached chart snapshot into the model.
type frameMsg struct {
	snap render.Snapshot
}

// statusMsg carries the outcome of the latest poll.
type statusMsg struct {
	err error
}

// Surface is the terminal chart's [render.Surface].
//
// Redraw never blocks: it keeps only the newest frame in a one-slot
// mailbox that the bubbletea model drains. Frames the model has not
// picked up yet are replaced, so the terminal always shows the latest
// state without slowing the polling loop.
type Surface struct {
	mu      sync.Mutex
	config  *render.ChartConfig
	redraws int

	frames   chan render.Snapshot
	statuses chan error
}

// NewSurface creates an unmounted terminal surface.
func NewSurface() *Surface {
	return &Surface{
		frames:   make(chan render.Snapshot, 1),
		statuses: make(chan error, 1),
	}
}

// Mount records the chart config and queues an empty frame so the
// model draws axes before the first point.
func (s *Surface) Mount(cfg render.ChartConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config != nil {
		return errors.New("terminal surface already mounted")
	}
	s.config = &cfg
	offer(s.frames, render.View{Config: cfg}.Snapshot())
	return nil
}

// Redraw copies v and offers it to the model.
func (s *Surface) Redraw(v render.View) error {
	s.mu.Lock()
	if s.config == nil {
		s.mu.Unlock()
		return errors.New("terminal surface not mounted")
	}
	s.redraws++
	s.mu.Unlock()

	offer(s.frames, v.Snapshot())
	return nil
}

// Report shows the outcome of a poll in the status bar. A nil err
// clears the last failure.
func (s *Surface) Report(err error) {
	offer(s.statuses, err)
}

// Redraws returns how many redraws the surface received.
func (s *Surface) Redraws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redraws
}

// waitForFrame blocks until a frame is available.
func (s *Surface) waitForFrame() tea.Cmd {
	return func() tea.Msg {
		return frameMsg{snap: <-s.frames}
	}
}

func (s *Surface) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		return statusMsg{err: <-s.statuses}
	}
}

// offer puts v into a one-slot channel, replacing any unread value.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
