package sensor

import (
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
)

// gateState represents the availability state of a chain source.
type gateState int

const (
	// gateClosed means the source is available for reads.
	gateClosed gateState = iota
	// gateOpen means the source is disabled after a failure.
	gateOpen
)

// sourceGate tracks the availability of one source in the chain.
//
// The default configuration reproduces the historical behavior: a single
// read failure disables the source for the rest of the process lifetime.
// Setting a non-zero reprobe interval allows one probe read after the
// interval elapses; a successful probe closes the gate again.
type sourceGate struct {
	mu          sync.Mutex
	state       gateState
	lastFailure time.Time
	reprobe     time.Duration
	clk         clock.Clock
	failures    int64
}

func newSourceGate(reprobe time.Duration, clk clock.Clock) *sourceGate {
	if clk == nil {
		clk = clock.NewClock()
	}
	return &sourceGate{reprobe: reprobe, clk: clk}
}

// Allow reports whether a read attempt may proceed.
func (g *sourceGate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == gateClosed {
		return true
	}
	if g.reprobe <= 0 {
		return false
	}
	return g.clk.Since(g.lastFailure) >= g.reprobe
}

// RecordSuccess closes the gate after a successful read.
func (g *sourceGate) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = gateClosed
}

// RecordFailure opens the gate after a failed read.
func (g *sourceGate) RecordFailure() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = gateOpen
	g.lastFailure = g.clk.Now()
	g.failures++
}

// Disabled reports whether the gate is currently open.
func (g *sourceGate) Disabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == gateOpen
}

// Failures returns the total number of recorded failures.
func (g *sourceGate) Failures() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures
}
