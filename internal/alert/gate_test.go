package alert

import (
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
)

func newTestGate(t0 time.Time) (*Gate, *fakeclock.FakeClock) {
	clk := fakeclock.NewFakeClock(t0)
	g := NewGate(GateConfig{Clock: clk})
	return g, clk
}

func TestGateDesktopSharedCooldown(t *testing.T) {
	g, clk := newTestGate(time.Now())

	if !g.TryFire(ChannelDesktop, SeverityWarning) {
		t.Fatal("first desktop fire blocked")
	}
	// A critical pop-up right after a warning one is still muted; the
	// desktop channel shares one timer.
	if g.TryFire(ChannelDesktop, SeverityCritical) {
		t.Fatal("desktop critical fired inside shared cooldown")
	}

	clk.Increment(29 * time.Second)
	if g.TryFire(ChannelDesktop, SeverityWarning) {
		t.Fatal("desktop fired at 29s, cooldown is 30s")
	}
	clk.Increment(time.Second)
	if !g.TryFire(ChannelDesktop, SeverityCritical) {
		t.Fatal("desktop blocked after full cooldown")
	}
}

func TestGateEmailSeveritiesIndependent(t *testing.T) {
	g, clk := newTestGate(time.Now())

	if !g.TryFire(ChannelEmail, SeverityWarning) {
		t.Fatal("first warning email blocked")
	}
	// Escalation to critical must not wait for the warning cooldown.
	if !g.TryFire(ChannelEmail, SeverityCritical) {
		t.Fatal("critical email blocked by warning cooldown")
	}

	if g.TryFire(ChannelEmail, SeverityWarning) {
		t.Fatal("warning email fired inside its own cooldown")
	}
	clk.Increment(DefaultEmailCooldown)
	if !g.TryFire(ChannelEmail, SeverityWarning) {
		t.Fatal("warning email blocked after full cooldown")
	}
}

func TestGateChannelsIndependent(t *testing.T) {
	g, _ := newTestGate(time.Now())

	if !g.TryFire(ChannelDesktop, SeverityWarning) {
		t.Fatal("desktop blocked")
	}
	if !g.TryFire(ChannelEmail, SeverityWarning) {
		t.Fatal("email blocked by desktop cooldown")
	}
}

func TestGateConsumesOnAttempt(t *testing.T) {
	g, clk := newTestGate(time.Now())

	// The window starts at the attempt, regardless of delivery outcome.
	g.TryFire(ChannelEmail, SeverityCritical)
	clk.Increment(30 * time.Second)
	if g.TryFire(ChannelEmail, SeverityCritical) {
		t.Fatal("critical email retried before cooldown elapsed")
	}
}

func TestGateTouchPushesRoutine(t *testing.T) {
	g, clk := newTestGate(time.Now())

	if !g.TryFire(ChannelEmail, SeverityNormal) {
		t.Fatal("first routine fire blocked")
	}
	clk.Increment(DefaultRoutineInterval - time.Minute)
	g.Touch(ChannelEmail, SeverityNormal)

	// Without the touch, the routine report would be due in a minute.
	clk.Increment(2 * time.Minute)
	if g.TryFire(ChannelEmail, SeverityNormal) {
		t.Fatal("routine fired despite recent touch")
	}
	if rem := g.Remaining(ChannelEmail, SeverityNormal); rem != DefaultRoutineInterval-2*time.Minute {
		t.Errorf("Remaining() = %v, want %v", rem, DefaultRoutineInterval-2*time.Minute)
	}
}
