package series

import (
	"time"

	"github.com/jpalmerr/stepboard/clock"
)

// Sample is one (elapsed-seconds, value) observation.
//
// Sample is a value type and is never modified after creation.
type Sample struct {
	// ElapsedSeconds is whole seconds since the session origin.
	ElapsedSeconds int64 `json:"t"`

	// Value is the counter value read from the telemetry source.
	Value float64 `json:"v"`
}

// At builds a Sample keyed by the elapsed seconds between origin and now.
func At(origin clock.Origin, now time.Time, value float64) Sample {
	return Sample{
		ElapsedSeconds: origin.ElapsedSeconds(now),
		Value:          value,
	}
}

// Store defines the read/append surface of a series.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Append adds a sample at the end. It does not validate ordering
	// or deduplicate.
	Append(s Sample)

	// Len returns the number of samples appended so far.
	Len() int

	// Snapshot returns a copy of all samples in insertion order.
	Snapshot() []Sample
}
