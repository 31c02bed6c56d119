package alert

import (
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
)

// Evaluation is the outcome of feeding one temperature through the
// state machine.
type Evaluation struct {
	// Severity is the new current severity.
	Severity Severity
	// Previous is the severity before this evaluation.
	Previous Severity
	// Transitioned reports whether the severity changed.
	Transitioned bool
	// Breach reports whether the temperature sits at or above the
	// warning threshold. Breaches are reported every evaluation, not
	// only on transitions.
	Breach bool
}

// StateMachine tracks the current severity across evaluations. The
// state is updated unconditionally on every call so a recovered
// temperature immediately returns the machine to normal. Safe for
// concurrent use.
type StateMachine struct {
	mu             sync.Mutex
	clk            clock.Clock
	thresholds     Thresholds
	current        Severity
	lastTransition time.Time
}

// NewStateMachine creates a state machine starting at SeverityNormal.
// A nil clk falls back to the wall clock.
func NewStateMachine(t Thresholds, clk clock.Clock) *StateMachine {
	if clk == nil {
		clk = clock.NewClock()
	}
	return &StateMachine{clk: clk, thresholds: t}
}

// Evaluate classifies celsius against the thresholds and updates the
// current severity.
func (m *StateMachine) Evaluate(celsius float64) Evaluation {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.thresholds.Classify(celsius)
	ev := Evaluation{
		Severity:     next,
		Previous:     m.current,
		Transitioned: next != m.current,
		Breach:       next != SeverityNormal,
	}
	if ev.Transitioned {
		m.lastTransition = m.clk.Now()
	}
	m.current = next
	return ev
}

// Current returns the present severity.
func (m *StateMachine) Current() Severity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// LastTransition returns when the severity last changed. The zero time
// means no transition has happened yet.
func (m *StateMachine) LastTransition() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTransition
}

// Thresholds returns the active threshold pair.
func (m *StateMachine) Thresholds() Thresholds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.thresholds
}

// SetThresholds swaps in a new threshold pair after validating it. The
// new levels apply from the next evaluation; the current severity is
// left untouched until then.
func (m *StateMachine) SetThresholds(t Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = t
	return nil
}
