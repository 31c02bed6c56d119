// Package history keeps a bounded rolling window of temperature samples
// and derives summary statistics over it.
package history

import (
	"sync"

	"github.com/opd-ai/thermoguard/internal/classify"
)

// DefaultCapacity is the number of samples retained when no explicit
// capacity is configured.
const DefaultCapacity = 50

// Stats summarizes the retained window.
type Stats struct {
	// Count is the number of samples currently retained.
	Count int
	// Min and Max are the extremes of the samples' Max temperatures.
	Min float64
	Max float64
	// Avg is the mean of the samples' Max temperatures.
	Avg float64
}

// Buffer is a fixed-capacity ring of samples. Once full, each append
// evicts the oldest sample. Safe for concurrent use.
type Buffer struct {
	mu      sync.RWMutex
	samples []classify.Sample
	head    int
	size    int
}

// NewBuffer creates a Buffer retaining at most capacity samples.
// Non-positive capacities fall back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{samples: make([]classify.Sample, capacity)}
}

// Append records a sample, evicting the oldest when the window is full.
func (b *Buffer) Append(s classify.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples[b.head] = s
	b.head = (b.head + 1) % len(b.samples)
	if b.size < len(b.samples) {
		b.size++
	}
}

// Len returns the number of retained samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the maximum number of retained samples.
func (b *Buffer) Capacity() int { return len(b.samples) }

// Snapshot copies the retained samples oldest first.
func (b *Buffer) Snapshot() []classify.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]classify.Sample, 0, b.size)
	start := b.head - b.size
	if start < 0 {
		start += len(b.samples)
	}
	for i := 0; i < b.size; i++ {
		out = append(out, b.samples[(start+i)%len(b.samples)])
	}
	return out
}

// Latest returns the most recently appended sample. ok is false when
// the buffer is empty.
func (b *Buffer) Latest() (classify.Sample, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return classify.Sample{}, false
	}
	idx := b.head - 1
	if idx < 0 {
		idx += len(b.samples)
	}
	return b.samples[idx], true
}

// Stats computes min, max and mean over the retained samples' Max
// temperatures. A zero-count Stats is returned for an empty buffer.
func (b *Buffer) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return Stats{}
	}

	st := Stats{Count: b.size}
	start := b.head - b.size
	if start < 0 {
		start += len(b.samples)
	}
	var sum float64
	for i := 0; i < b.size; i++ {
		v := b.samples[(start+i)%len(b.samples)].Max
		if i == 0 || v < st.Min {
			st.Min = v
		}
		if i == 0 || v > st.Max {
			st.Max = v
		}
		sum += v
	}
	st.Avg = sum / float64(b.size)
	return st
}
