package thermoguard

import (
	"expvar"
	"sync/atomic"
	"time"
)

// Metrics collects operational counters for a Monitor. Exposition goes
// through Go's expvar package and is served at /debug/vars by the HTTP
// status server.
//
// Thread-safe for concurrent use.
type Metrics struct {
	pollCycles       atomic.Int64
	pollErrors       atomic.Int64
	sourceFailovers  atomic.Int64
	syntheticSamples atomic.Int64
	desktopAlerts    atomic.Int64
	emailAlerts      atomic.Int64
	routineReports   atomic.Int64
	configReloads    atomic.Int64
	transitions      atomic.Int64

	pollLatencyNs    atomic.Int64
	pollLatencyCount atomic.Int64

	running         atomic.Int32
	currentSeverity atomic.Int32
	// lastMilliCelsius holds the latest max temperature in thousandths
	// of a degree so a float can live in an atomic integer.
	lastMilliCelsius atomic.Int64

	registered atomic.Bool
}

// NewMetrics creates an empty Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar publishes all metrics under the thermoguard_ prefix.
// Safe to call multiple times; subsequent calls are no-ops.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}

	expvar.Publish("thermoguard_poll_cycles_total", expvar.Func(func() any { return m.pollCycles.Load() }))
	expvar.Publish("thermoguard_poll_errors_total", expvar.Func(func() any { return m.pollErrors.Load() }))
	expvar.Publish("thermoguard_source_failovers_total", expvar.Func(func() any { return m.sourceFailovers.Load() }))
	expvar.Publish("thermoguard_synthetic_samples_total", expvar.Func(func() any { return m.syntheticSamples.Load() }))
	expvar.Publish("thermoguard_desktop_alerts_total", expvar.Func(func() any { return m.desktopAlerts.Load() }))
	expvar.Publish("thermoguard_email_alerts_total", expvar.Func(func() any { return m.emailAlerts.Load() }))
	expvar.Publish("thermoguard_routine_reports_total", expvar.Func(func() any { return m.routineReports.Load() }))
	expvar.Publish("thermoguard_config_reloads_total", expvar.Func(func() any { return m.configReloads.Load() }))
	expvar.Publish("thermoguard_severity_transitions_total", expvar.Func(func() any { return m.transitions.Load() }))

	expvar.Publish("thermoguard_running", expvar.Func(func() any { return m.running.Load() }))
	expvar.Publish("thermoguard_current_severity", expvar.Func(func() any { return m.currentSeverity.Load() }))
	expvar.Publish("thermoguard_last_temperature_celsius", expvar.Func(func() any {
		return float64(m.lastMilliCelsius.Load()) / 1000
	}))

	expvar.Publish("thermoguard_poll_latency_avg_ms", expvar.Func(func() any {
		count := m.pollLatencyCount.Load()
		if count == 0 {
			return float64(0)
		}
		return float64(m.pollLatencyNs.Load()) / float64(count) / 1e6
	}))
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	PollCycles       int64
	PollErrors       int64
	SourceFailovers  int64
	SyntheticSamples int64
	DesktopAlerts    int64
	EmailAlerts      int64
	RoutineReports   int64
	ConfigReloads    int64
	Transitions      int64

	Running         bool
	CurrentSeverity int
	LastCelsius     float64

	PollLatencyAvg time.Duration
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avg time.Duration
	if count := m.pollLatencyCount.Load(); count > 0 {
		avg = time.Duration(m.pollLatencyNs.Load() / count)
	}
	return MetricsSnapshot{
		PollCycles:       m.pollCycles.Load(),
		PollErrors:       m.pollErrors.Load(),
		SourceFailovers:  m.sourceFailovers.Load(),
		SyntheticSamples: m.syntheticSamples.Load(),
		DesktopAlerts:    m.desktopAlerts.Load(),
		EmailAlerts:      m.emailAlerts.Load(),
		RoutineReports:   m.routineReports.Load(),
		ConfigReloads:    m.configReloads.Load(),
		Transitions:      m.transitions.Load(),
		Running:          m.running.Load() > 0,
		CurrentSeverity:  int(m.currentSeverity.Load()),
		LastCelsius:      float64(m.lastMilliCelsius.Load()) / 1000,
		PollLatencyAvg:   avg,
	}
}

// IncrementPollCycles records a completed polling cycle.
func (m *Metrics) IncrementPollCycles() { m.pollCycles.Add(1) }

// IncrementPollErrors records a polling cycle that produced no sample.
func (m *Metrics) IncrementPollErrors() { m.pollErrors.Add(1) }

// IncrementSourceFailovers records a fall-through to a lower-priority
// sensor source.
func (m *Metrics) IncrementSourceFailovers() { m.sourceFailovers.Add(1) }

// IncrementSyntheticSamples records a cycle served by the simulation.
func (m *Metrics) IncrementSyntheticSamples() { m.syntheticSamples.Add(1) }

// IncrementDesktopAlerts records a delivered desktop notification.
func (m *Metrics) IncrementDesktopAlerts() { m.desktopAlerts.Add(1) }

// IncrementEmailAlerts records a delivered alert email.
func (m *Metrics) IncrementEmailAlerts() { m.emailAlerts.Add(1) }

// IncrementRoutineReports records a delivered routine status email.
func (m *Metrics) IncrementRoutineReports() { m.routineReports.Add(1) }

// IncrementConfigReloads records a settings reload.
func (m *Metrics) IncrementConfigReloads() { m.configReloads.Add(1) }

// IncrementTransitions records a severity change.
func (m *Metrics) IncrementTransitions() { m.transitions.Add(1) }

// SetRunning updates the running gauge.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.running.Store(1)
	} else {
		m.running.Store(0)
	}
}

// SetSeverity updates the current severity gauge.
func (m *Metrics) SetSeverity(sev int) { m.currentSeverity.Store(int32(sev)) }

// SetLastCelsius updates the latest temperature gauge.
func (m *Metrics) SetLastCelsius(celsius float64) {
	m.lastMilliCelsius.Store(int64(celsius * 1000))
}

// RecordPollLatency records the duration of one polling cycle.
func (m *Metrics) RecordPollLatency(d time.Duration) {
	m.pollLatencyNs.Add(d.Nanoseconds())
	m.pollLatencyCount.Add(1)
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	m.pollCycles.Store(0)
	m.pollErrors.Store(0)
	m.sourceFailovers.Store(0)
	m.syntheticSamples.Store(0)
	m.desktopAlerts.Store(0)
	m.emailAlerts.Store(0)
	m.routineReports.Store(0)
	m.configReloads.Store(0)
	m.transitions.Store(0)
	m.pollLatencyNs.Store(0)
	m.pollLatencyCount.Store(0)
	m.running.Store(0)
	m.currentSeverity.Store(0)
	m.lastMilliCelsius.Store(0)
}

var defaultMetrics = NewMetrics()

// DefaultMetrics returns the process-wide Metrics instance.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
