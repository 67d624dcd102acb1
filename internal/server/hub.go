package server

import (
	"errors"
	"sync"

	"github.com/jpalmerr/stepboard/render"
)

// subscriberBuffer is the per-client channel size. Slow clients drop events.
const subscriberBuffer = 100

// Event is one message pushed to dashboard clients.
type Event struct {
	// Type is "snapshot" for the initial state or "point" for an update.
	Type string `json:"type"`

	// Index is the position of the point in the series (point events only).
	Index int `json:"index"`

	// Label is the elapsed-seconds x-value (point events only).
	Label int64 `json:"label"`

	// Value is the y-value (point events only).
	Value float64 `json:"value"`

	// Chart is the full state (snapshot events only).
	Chart *render.Snapshot `json:"chart,omitempty"`
}

// Hub is the web dashboard's [render.Surface].
//
// Redraw publishes the newest point to every subscriber with a non-blocking
// send: if a subscriber's buffer is full the event is dropped for that
// subscriber rather than blocking the polling loop. Clients recover the
// full state from the snapshot sent on (re)connect.
type Hub struct {
	mu      sync.RWMutex
	config  *render.ChartConfig
	redraws int

	subMu       sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewHub creates an unmounted Hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Mount records the chart config. Mounting twice is an error.
func (h *Hub) Mount(cfg render.ChartConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.config != nil {
		return errors.New("web surface already mounted")
	}
	h.config = &cfg
	return nil
}

// Mounted reports whether Mount succeeded.
func (h *Hub) Mounted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config != nil
}

// Redraw publishes the last point of v.
func (h *Hub) Redraw(v render.View) error {
	h.mu.Lock()
	if h.config == nil {
		h.mu.Unlock()
		return errors.New("web surface not mounted")
	}
	h.redraws++
	h.mu.Unlock()

	n := len(v.Data)
	if n == 0 || len(v.Labels) != n {
		return nil
	}

	h.publish(Event{
		Type:  "point",
		Index: n - 1,
		Label: v.Labels[n-1],
		Value: v.Data[n-1],
	})
	return nil
}

// Redraws returns how many redraws the hub received.
func (h *Hub) Redraws() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.redraws
}

// Subscribe creates a new subscription and returns a channel for receiving
// events.
//
// Caller must call [Hub.Unsubscribe] when done to prevent resource leaks.
func (h *Hub) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	h.subMu.Lock()
	h.subscribers[ch] = struct{}{}
	h.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (h *Hub) Unsubscribe(ch <-chan Event) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	for subCh := range h.subscribers {
		if subCh == ch {
			delete(h.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.subMu.RLock()
	defer h.subMu.RUnlock()
	return len(h.subscribers)
}

// publish sends ev to all subscribers without blocking.
func (h *Hub) publish(ev Event) {
	h.subMu.RLock()
	defer h.subMu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the event
		}
	}
}
