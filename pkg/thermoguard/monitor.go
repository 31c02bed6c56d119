package thermoguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/opd-ai/thermoguard/internal/alert"
	"github.com/opd-ai/thermoguard/internal/classify"
	"github.com/opd-ai/thermoguard/internal/config"
	"github.com/opd-ai/thermoguard/internal/history"
	"github.com/opd-ai/thermoguard/internal/notify"
	"github.com/opd-ai/thermoguard/internal/sensor"
)

// ErrAlreadyRunning is returned by Start when the monitor is running.
var ErrAlreadyRunning = errors.New("monitor already running")

// Monitor owns the two long-running loops: the polling loop that reads,
// classifies and evaluates temperatures, and the report loop that paces
// the routine status email. All accessors are safe for concurrent use
// while the loops run.
type Monitor struct {
	log     *slog.Logger
	clk     clock.Clock
	metrics *Metrics
	errs    *ErrorTracker

	store      *config.Store
	chain      *sensor.Chain
	sim        *sensor.Simulator
	machine    *alert.StateMachine
	dispatcher *alert.Dispatcher
	buffer     *history.Buffer
	watcher    *config.Watcher

	hostname        string
	reportInterval  time.Duration
	shutdownTimeout time.Duration
	watchConfig     bool
	watchDebounce   time.Duration

	mu         sync.RWMutex
	classifier *classify.Classifier
	refresh    time.Duration
	latest     classify.Sample
	haveLatest bool
	lastErr    error
	started    time.Time
	running    bool
	cancel     context.CancelFunc

	wg sync.WaitGroup

	subMu   sync.Mutex
	subs    map[int]chan classify.Sample
	nextSub int
}

// New builds a Monitor from opts, loading settings from disk when a
// settings path is configured.
func New(opts Options) (*Monitor, error) {
	log := opts.Logger
	if log == nil {
		log = DefaultLogger()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewClock()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = DefaultMetrics()
	}

	store := config.NewStore(opts.SettingsPath, log)
	settings := config.Defaults()
	if opts.SettingsPath != "" {
		loaded, err := store.Load()
		if err != nil {
			// A file that parses but fails validation is not fatal; the
			// daemon comes up on defaults and the operator fixes the file.
			log.Warn("settings rejected at startup, using defaults",
				"path", opts.SettingsPath,
				"error", err)
		}
		settings = loaded
	}

	hostname := opts.Hostname
	if hostname == "" {
		hostname = lookupHostname()
	}

	// The simulator lives outside the chain: it is the substitute the
	// monitor falls back to, never a peer of the hardware sources.
	sim := sensor.NewSimulator()
	sources := opts.Sources
	if sources == nil {
		sources = []sensor.Source{
			sensor.NewHwmonSource(),
			sensor.NewGopsutilSource(),
			sensor.NewSmartctlSource(),
		}
	}
	chain := sensor.NewChain(sensor.ChainConfig{
		ReprobeInterval: settings.ReprobeInterval(),
		Clock:           clk,
	}, sources...)

	desktop := opts.Desktop
	if desktop == nil {
		desktop = notify.NewDesktopNotifier()
	}
	email := opts.Email
	if email == nil && settings.Email.Server != "" {
		mailer, err := notify.NewEmailNotifier(settings.Email)
		if err != nil {
			return nil, fmt.Errorf("email config: %w", err)
		}
		email = mailer
	}

	errs := NewErrorTracker(0)
	gate := alert.NewGate(alert.GateConfig{Clock: clk})
	dispatcher := alert.NewDispatcher(alert.DispatcherConfig{
		Gate:     gate,
		Desktop:  &countingNotifier{inner: desktop, metrics: metrics, errs: errs},
		Email:    wrapEmail(email, metrics, errs),
		Logger:   log,
		Hostname: hostname,
	})
	dispatcher.SetEnabled(settings.AlertsEnabled)

	reportInterval := opts.ReportCheckInterval
	if reportInterval <= 0 {
		reportInterval = DefaultReportCheckInterval
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	return &Monitor{
		log:             log,
		clk:             clk,
		metrics:         metrics,
		errs:            errs,
		store:           store,
		chain:           chain,
		sim:             sim,
		machine:         alert.NewStateMachine(settings.Thresholds(), clk),
		dispatcher:      dispatcher,
		buffer:          history.NewBuffer(settings.HistorySize),
		hostname:        hostname,
		reportInterval:  reportInterval,
		shutdownTimeout: shutdownTimeout,
		watchConfig:     opts.WatchConfig,
		watchDebounce:   opts.WatchDebounce,
		classifier:      classify.New(settings.CalibrationOffset),
		refresh:         settings.RefreshInterval(),
		subs:            make(map[int]chan classify.Sample),
	}, nil
}

// Start launches the polling and reporting loops. The monitor stops
// when ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.running = true
	m.started = m.clk.Now()
	m.mu.Unlock()

	if m.watchConfig && m.store.Path() != "" {
		// Watch failures are not fatal; the daemon just loses hot
		// reload.
		w, err := config.NewWatcher(m.store, m.watchDebounce, func(s config.Settings) {
			m.ApplySettings(s)
		})
		if err != nil {
			m.log.Warn("settings watch unavailable", "error", err)
		} else {
			m.watcher = w
			w.Start()
		}
	}

	m.metrics.SetRunning(true)
	m.log.Info("monitor starting",
		"refresh", m.refreshInterval().String(),
		"host", m.hostname)

	m.wg.Add(2)
	go m.pollLoop(ctx)
	go m.reportLoop(ctx)
	return nil
}

// Stop cancels the loops and waits up to the shutdown timeout for them
// to drain.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	if m.watcher != nil {
		m.watcher.Stop()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(m.shutdownTimeout):
		m.log.Warn("shutdown timeout elapsed with loops still running")
	}

	m.metrics.SetRunning(false)
	m.log.Info("monitor stopped")
}

// pollLoop runs Poll on the refresh interval, backing off at a constant
// pace while polling fails outright.
func (m *Monitor) pollLoop(ctx context.Context) {
	defer m.wg.Done()

	retry := backoff.NewConstantBackOff(DefaultPollBackoff)
	for {
		wait := m.refreshInterval()
		if err := m.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.log.Error("poll failed", "error", err)
			wait = retry.NextBackOff()
		} else {
			retry.Reset()
		}

		timer := m.clk.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C():
		}
	}
}

// reportLoop drives the email channel: on each check it sends an alert
// email while a breach persists, or the routine status email once the
// long interval has elapsed.
func (m *Monitor) reportLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := m.clk.NewTicker(m.reportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			m.runReportCheck()
		}
	}
}

func (m *Monitor) runReportCheck() {
	latest, ok := m.Latest()
	if !ok {
		return
	}
	if m.dispatcher.CheckEmail(latest, m.machine.Current(), m.machine.Thresholds()) {
		m.metrics.IncrementRoutineReports()
	}
}

// Poll runs one acquisition cycle: read the source chain, classify the
// readings, evaluate severity, dispatch alerts and record history. It
// is exported for one-shot use by CLI commands.
func (m *Monitor) Poll(ctx context.Context) error {
	start := m.clk.Now()

	readings, err := m.chain.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		// Every source is down. The simulation keeps the pipeline
		// alive until hardware comes back.
		m.errs.Record(ErrorCategorySensor, err, m.clk.Now())
		m.metrics.IncrementSourceFailovers()
		readings, _ = m.sim.Read(ctx)
	}

	cls := m.currentClassifier()
	perDevice := cls.Classify(readings)
	synthetic := len(readings) > 0 && readings[0].Synthetic
	if len(perDevice) == 0 {
		// Hardware answered but nothing matched a storage device.
		simReadings, _ := m.sim.Read(ctx)
		perDevice = cls.Classify(simReadings)
		synthetic = true
	}

	sample, ok := classify.Aggregate(perDevice, synthetic, m.clk.Now())
	if !ok {
		m.metrics.IncrementPollErrors()
		err := errors.New("no temperature data available")
		m.errs.Record(ErrorCategoryClassify, err, m.clk.Now())
		m.setLastErr(err)
		return err
	}

	ev := m.machine.Evaluate(sample.Max)
	if ev.Transitioned {
		m.metrics.IncrementTransitions()
		m.log.Info("severity changed",
			"from", ev.Previous.String(),
			"to", ev.Severity.String(),
			"max_celsius", sample.Max)
	}
	m.dispatcher.Observe(sample, ev, m.machine.Thresholds())
	m.buffer.Append(sample)

	m.mu.Lock()
	m.latest = sample
	m.haveLatest = true
	m.lastErr = nil
	m.mu.Unlock()

	m.metrics.IncrementPollCycles()
	if synthetic {
		m.metrics.IncrementSyntheticSamples()
	}
	m.metrics.SetSeverity(int(ev.Severity))
	m.metrics.SetLastCelsius(sample.Max)
	m.metrics.RecordPollLatency(m.clk.Since(start))

	m.publish(sample)
	return nil
}

// ApplySettings pushes a new settings snapshot into the running
// monitor. The history capacity is fixed at construction; a change
// there takes effect on restart.
func (m *Monitor) ApplySettings(s config.Settings) {
	if err := m.machine.SetThresholds(s.Thresholds()); err != nil {
		m.errs.Record(ErrorCategoryConfig, err, m.clk.Now())
		m.log.Warn("settings rejected", "error", err)
		return
	}
	m.dispatcher.SetEnabled(s.AlertsEnabled)

	m.mu.Lock()
	m.refresh = s.RefreshInterval()
	m.classifier = classify.New(s.CalibrationOffset)
	m.mu.Unlock()

	m.store.SetCurrent(s)
	m.metrics.IncrementConfigReloads()
	m.log.Info("settings applied",
		"warning", s.WarningTemp,
		"critical", s.CriticalTemp,
		"refresh", s.RefreshInterval().String(),
		"alerts", s.AlertsEnabled)
}

// SetThresholds updates the alert thresholds and persists them when a
// settings file is configured.
func (m *Monitor) SetThresholds(t alert.Thresholds) error {
	if err := m.machine.SetThresholds(t); err != nil {
		return err
	}
	return m.persist(func(s *config.Settings) {
		s.WarningTemp = t.Warning
		s.CriticalTemp = t.Critical
	})
}

// SetRefreshInterval updates the polling period. It takes effect after
// the current wait.
func (m *Monitor) SetRefreshInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", d)
	}
	m.mu.Lock()
	m.refresh = d
	m.mu.Unlock()
	return m.persist(func(s *config.Settings) {
		s.RefreshSeconds = int(d / time.Second)
	})
}

// SetAlertsEnabled toggles alert delivery.
func (m *Monitor) SetAlertsEnabled(on bool) error {
	m.dispatcher.SetEnabled(on)
	return m.persist(func(s *config.Settings) { s.AlertsEnabled = on })
}

// persist applies mutate to the current settings and saves the result.
// Without a settings path the change stays in memory only.
func (m *Monitor) persist(mutate func(*config.Settings)) error {
	if m.store.Path() == "" {
		return nil
	}
	s := m.store.Current()
	mutate(&s)
	return m.store.Save(s)
}

// Settings returns the active settings snapshot.
func (m *Monitor) Settings() config.Settings {
	return m.store.Current()
}

// UpdateSettings validates, persists and applies a full settings
// snapshot.
func (m *Monitor) UpdateSettings(s config.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if m.store.Path() != "" {
		if err := m.store.Save(s); err != nil {
			return err
		}
	}
	m.ApplySettings(s)
	return nil
}

// Hostname returns the name used in alert and report text.
func (m *Monitor) Hostname() string {
	return m.hostname
}

// Latest returns the most recent sample. ok is false before the first
// successful poll.
func (m *Monitor) Latest() (classify.Sample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.haveLatest
}

// Severity returns the current alert severity.
func (m *Monitor) Severity() alert.Severity {
	return m.machine.Current()
}

// Thresholds returns the active threshold pair.
func (m *Monitor) Thresholds() alert.Thresholds {
	return m.machine.Thresholds()
}

// HistorySnapshot returns the retained samples oldest first.
func (m *Monitor) HistorySnapshot() []classify.Sample {
	return m.buffer.Snapshot()
}

// HistoryStats summarizes the retained window.
func (m *Monitor) HistoryStats() history.Stats {
	return m.buffer.Stats()
}

// SourceStatus reports the per-source state of the acquisition chain.
func (m *Monitor) SourceStatus() []sensor.SourceStatus {
	return m.chain.Status()
}

// Errors returns the monitor's error tracker.
func (m *Monitor) Errors() *ErrorTracker {
	return m.errs
}

// NextRoutineReport returns the time until the next routine status
// email may be sent. Zero means one is due at the next report check.
func (m *Monitor) NextRoutineReport() time.Duration {
	return m.dispatcher.RoutineRemaining()
}

// Health reports the monitor's aggregate health. Synthetic data or
// disabled sources degrade it; a stalled polling loop marks it
// unhealthy.
func (m *Monitor) Health() HealthCheck {
	m.mu.RLock()
	running := m.running
	started := m.started
	latest := m.latest
	haveLatest := m.haveLatest
	lastErr := m.lastErr
	refresh := m.refresh
	m.mu.RUnlock()

	now := m.clk.Now()
	hc := HealthCheck{
		Status:     HealthOK,
		Timestamp:  now,
		Components: make(map[string]ComponentHealth),
	}
	if running {
		hc.Uptime = now.Sub(started)
	}

	poll := ComponentHealth{Status: HealthOK, LastUpdated: latest.Timestamp}
	switch {
	case !running:
		poll.Status = HealthUnhealthy
		poll.Message = "monitor not running"
	case lastErr != nil:
		poll.Status = HealthUnhealthy
		poll.Message = lastErr.Error()
	case !haveLatest:
		poll.Status = HealthDegraded
		poll.Message = "no samples yet"
	case now.Sub(latest.Timestamp) > 3*refresh:
		poll.Status = HealthUnhealthy
		poll.Message = fmt.Sprintf("last sample %s ago", now.Sub(latest.Timestamp).Round(time.Second))
	}
	hc.Components["poll"] = poll

	sensors := ComponentHealth{Status: HealthOK, LastUpdated: latest.Timestamp}
	disabled := 0
	statuses := m.chain.Status()
	for _, st := range statuses {
		if st.Disabled {
			disabled++
		}
	}
	switch {
	case haveLatest && latest.Synthetic:
		sensors.Status = HealthDegraded
		sensors.Message = "running on simulated data"
	case disabled > 0:
		sensors.Status = HealthDegraded
		sensors.Message = fmt.Sprintf("%d of %d sources disabled", disabled, len(statuses))
	}
	hc.Components["sensors"] = sensors

	alerts := ComponentHealth{Status: HealthOK}
	for _, cat := range []ErrorCategory{ErrorCategoryNotify, ErrorCategoryEmail} {
		if last, ok := m.errs.Last(cat); ok {
			alerts.LastUpdated = last.Timestamp
			if now.Sub(last.Timestamp) < 10*time.Minute {
				alerts.Status = HealthDegraded
				alerts.Message = fmt.Sprintf("recent %s failure: %s", cat, last.Message)
			}
		}
	}
	hc.Components["alerts"] = alerts

	for _, c := range hc.Components {
		if c.Status == HealthUnhealthy {
			hc.Status = HealthUnhealthy
			hc.Message = c.Message
			break
		}
		if c.Status == HealthDegraded && hc.Status == HealthOK {
			hc.Status = HealthDegraded
			hc.Message = c.Message
		}
	}
	return hc
}

// Subscribe returns a channel receiving each new sample and a cancel
// function. Slow receivers miss samples rather than stalling the
// polling loop.
func (m *Monitor) Subscribe() (<-chan classify.Sample, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan classify.Sample, 16)
	m.subs[id] = ch

	return ch, func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}

func (m *Monitor) publish(s classify.Sample) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (m *Monitor) currentClassifier() *classify.Classifier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.classifier
}

func (m *Monitor) refreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh
}

func (m *Monitor) setLastErr(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// lookupHostname prefers gopsutil host info and falls back to the
// plain OS hostname.
func lookupHostname() string {
	if info, err := host.Info(); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "localhost"
}

// countingNotifier wraps a desktop sink with delivery and error
// accounting.
type countingNotifier struct {
	inner   alert.NotificationSink
	metrics *Metrics
	errs    *ErrorTracker
}

func (c *countingNotifier) Notify(title, message string) error {
	err := c.inner.Notify(title, message)
	if err == nil {
		c.metrics.IncrementDesktopAlerts()
	} else {
		c.errs.Record(ErrorCategoryNotify, err, time.Now())
	}
	return err
}

// countingMailer wraps an email sink with delivery and error
// accounting.
type countingMailer struct {
	inner   alert.EmailSink
	metrics *Metrics
	errs    *ErrorTracker
}

func (c *countingMailer) Send(subject, body string) error {
	err := c.inner.Send(subject, body)
	if err == nil {
		c.metrics.IncrementEmailAlerts()
	} else {
		c.errs.Record(ErrorCategoryEmail, err, time.Now())
	}
	return err
}

// wrapEmail preserves nil so the dispatcher can tell email is not
// configured.
func wrapEmail(inner alert.EmailSink, metrics *Metrics, errs *ErrorTracker) alert.EmailSink {
	if inner == nil {
		return nil
	}
	return &countingMailer{inner: inner, metrics: metrics, errs: errs}
}
