package alert

import (
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
)

// Channel names a delivery path through the dispatcher.
type Channel string

const (
	ChannelDesktop Channel = "desktop"
	ChannelEmail   Channel = "email"
)

// Default cooldown windows.
const (
	DefaultDesktopCooldown = 30 * time.Second
	DefaultEmailCooldown   = 60 * time.Second
	DefaultRoutineInterval = time.Hour
)

type gateKey struct {
	channel  Channel
	severity Severity
}

// GateConfig tunes the cooldown windows. Zero durations keep the
// defaults.
type GateConfig struct {
	Clock clock.Clock
	// DesktopCooldown applies to desktop notifications of any severity;
	// the desktop channel shares a single timer so a warning pop-up
	// also delays a following critical one.
	DesktopCooldown time.Duration
	// EmailWarningCooldown and EmailCriticalCooldown run independently
	// of each other and of the desktop timer.
	EmailWarningCooldown  time.Duration
	EmailCriticalCooldown time.Duration
	// RoutineInterval paces the periodic status email. Any alert email
	// counts as contact and pushes the routine timer forward.
	RoutineInterval time.Duration
}

// Gate rate-limits deliveries per channel and severity. A fire attempt
// consumes the cooldown window whether or not the delivery afterwards
// succeeds, so a failing sink cannot cause a retry storm. Safe for
// concurrent use.
type Gate struct {
	mu        sync.Mutex
	clk       clock.Clock
	cooldowns map[gateKey]time.Duration
	last      map[gateKey]time.Time
}

// NewGate creates a Gate with the configured windows.
func NewGate(cfg GateConfig) *Gate {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewClock()
	}
	if cfg.DesktopCooldown <= 0 {
		cfg.DesktopCooldown = DefaultDesktopCooldown
	}
	if cfg.EmailWarningCooldown <= 0 {
		cfg.EmailWarningCooldown = DefaultEmailCooldown
	}
	if cfg.EmailCriticalCooldown <= 0 {
		cfg.EmailCriticalCooldown = DefaultEmailCooldown
	}
	if cfg.RoutineInterval <= 0 {
		cfg.RoutineInterval = DefaultRoutineInterval
	}
	return &Gate{
		clk: clk,
		cooldowns: map[gateKey]time.Duration{
			{ChannelDesktop, SeverityWarning}: cfg.DesktopCooldown,
			{ChannelEmail, SeverityWarning}:   cfg.EmailWarningCooldown,
			{ChannelEmail, SeverityCritical}:  cfg.EmailCriticalCooldown,
			{ChannelEmail, SeverityNormal}:    cfg.RoutineInterval,
		},
		last: make(map[gateKey]time.Time),
	}
}

// key collapses desktop severities onto the shared desktop timer. The
// email routine report is keyed under SeverityNormal.
func (g *Gate) key(ch Channel, sev Severity) gateKey {
	if ch == ChannelDesktop {
		return gateKey{ChannelDesktop, SeverityWarning}
	}
	return gateKey{ch, sev}
}

// TryFire reports whether a delivery on (ch, sev) is currently allowed
// and, if so, starts that key's cooldown window. The first attempt on a
// key always fires.
func (g *Gate) TryFire(ch Channel, sev Severity) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	k := g.key(ch, sev)
	if at, seen := g.last[k]; seen && g.clk.Since(at) < g.cooldowns[k] {
		return false
	}
	g.last[k] = g.clk.Now()
	return true
}

// Touch restarts the cooldown window for (ch, sev) without a delivery.
// The dispatcher uses it to push the routine email out after an alert
// email has already reached the recipient.
func (g *Gate) Touch(ch Channel, sev Severity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[g.key(ch, sev)] = g.clk.Now()
}

// Remaining returns how long until (ch, sev) may fire again. Zero means
// it may fire now.
func (g *Gate) Remaining(ch Channel, sev Severity) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	k := g.key(ch, sev)
	at, seen := g.last[k]
	if !seen {
		return 0
	}
	if rem := g.cooldowns[k] - g.clk.Since(at); rem > 0 {
		return rem
	}
	return 0
}
