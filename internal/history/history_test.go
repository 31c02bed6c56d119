package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/opd-ai/thermoguard/internal/classify"
)

func sampleAt(max float64, seq int) classify.Sample {
	return classify.Sample{
		Timestamp: time.Unix(int64(seq), 0),
		Max:       max,
		Avg:       max,
		PerDevice: map[string]float64{"sda": max},
	}
}

func TestBufferEvictsOldest(t *testing.T) {
	b := NewBuffer(0)
	if b.Capacity() != DefaultCapacity {
		t.Fatalf("Capacity() = %d, want %d", b.Capacity(), DefaultCapacity)
	}

	for i := 0; i < 60; i++ {
		b.Append(sampleAt(float64(i), i))
	}

	if b.Len() != DefaultCapacity {
		t.Fatalf("Len() = %d, want %d", b.Len(), DefaultCapacity)
	}

	snap := b.Snapshot()
	if len(snap) != DefaultCapacity {
		t.Fatalf("Snapshot() length = %d, want %d", len(snap), DefaultCapacity)
	}
	// Samples 0..9 were evicted; the window holds 10..59 oldest first.
	for i, s := range snap {
		if want := float64(i + 10); s.Max != want {
			t.Fatalf("Snapshot()[%d].Max = %v, want %v", i, s.Max, want)
		}
	}
}

func TestBufferLatest(t *testing.T) {
	b := NewBuffer(3)

	if _, ok := b.Latest(); ok {
		t.Fatal("Latest() ok = true on empty buffer")
	}

	for i := 1; i <= 5; i++ {
		b.Append(sampleAt(float64(i*10), i))
		got, ok := b.Latest()
		if !ok || got.Max != float64(i*10) {
			t.Fatalf("Latest() after append %d = (%v, %v)", i, got.Max, ok)
		}
	}
}

func TestBufferStats(t *testing.T) {
	b := NewBuffer(4)

	if st := b.Stats(); st.Count != 0 {
		t.Fatalf("empty Stats() = %+v, want zero value", st)
	}

	for _, v := range []float64{30, 50, 40} {
		b.Append(sampleAt(v, 0))
	}
	st := b.Stats()
	if st.Count != 3 || st.Min != 30 || st.Max != 50 || st.Avg != 40 {
		t.Errorf("Stats() = %+v, want count 3, min 30, max 50, avg 40", st)
	}

	// Wrapping evicts 30; min moves up.
	b.Append(sampleAt(45, 0))
	b.Append(sampleAt(35, 0))
	st = b.Stats()
	if st.Count != 4 || st.Min != 35 || st.Max != 50 {
		t.Errorf("Stats() after wrap = %+v, want count 4, min 35, max 50", st)
	}
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	b := NewBuffer(2)
	b.Append(sampleAt(20, 0))

	snap := b.Snapshot()
	snap[0].Max = 99

	if got, _ := b.Latest(); got.Max != 20 {
		t.Errorf("buffer mutated through snapshot: Max = %v, want 20", got.Max)
	}
}

func TestBufferConcurrentAppend(t *testing.T) {
	b := NewBuffer(8)
	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				b.Append(sampleAt(float64(g), i))
				b.Stats()
				b.Snapshot()
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}
	if b.Len() != 8 {
		t.Errorf("Len() = %d, want full window of 8", b.Len())
	}
}

func ExampleBuffer_Stats() {
	b := NewBuffer(3)
	b.Append(classify.Sample{Max: 28})
	b.Append(classify.Sample{Max: 34})
	st := b.Stats()
	fmt.Printf("min=%.0f max=%.0f avg=%.0f\n", st.Min, st.Max, st.Avg)
	// Output: min=28 max=34 avg=31
}
