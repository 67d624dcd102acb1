package series

import "sync"

// Buffer is the in-memory implementation of [Store].
//
// Buffer grows without bound for the life of the session.
type Buffer struct {
	mu      sync.RWMutex
	samples []Sample
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds s at the end of the series.
func (b *Buffer) Append(s Sample) {
	b.mu.Lock()
	b.samples = append(b.samples, s)
	b.mu.Unlock()
}

// Len returns the number of samples in the series.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// At returns the i-th sample. ok is false when i is out of range.
func (b *Buffer) At(i int) (s Sample, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if i < 0 || i >= len(b.samples) {
		return Sample{}, false
	}
	return b.samples[i], true
}

// Last returns the most recent sample. ok is false when the series is empty.
func (b *Buffer) Last() (s Sample, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.samples) == 0 {
		return Sample{}, false
	}
	return b.samples[len(b.samples)-1], true
}

// Snapshot returns a copy of the series in insertion order.
// Modifying the returned slice does not affect the buffer.
func (b *Buffer) Snapshot() []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

// IsChronological reports whether elapsed seconds never decrease across
// consecutive samples.
func (b *Buffer) IsChronological() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := 1; i < len(b.samples); i++ {
		if b.samples[i].ElapsedSeconds < b.samples[i-1].ElapsedSeconds {
			return false
		}
	}
	return true
}
