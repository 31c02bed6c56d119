package alert

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/opd-ai/thermoguard/internal/classify"
)

// NotificationSink delivers a desktop pop-up.
type NotificationSink interface {
	Notify(title, message string) error
}

// EmailSink delivers an email message.
type EmailSink interface {
	Send(subject, body string) error
}

// DispatcherConfig wires a Dispatcher. Desktop and Email may each be
// nil to disable that channel.
type DispatcherConfig struct {
	Gate     *Gate
	Desktop  NotificationSink
	Email    EmailSink
	Logger   *slog.Logger
	Hostname string
}

// Dispatcher fans severity breaches out to the configured channels,
// honoring the gate's cooldown windows, and produces the periodic
// status email. Delivery failures are logged and never propagate to
// the polling loop. Safe for concurrent use.
type Dispatcher struct {
	gate     *Gate
	desktop  NotificationSink
	email    EmailSink
	log      *slog.Logger
	hostname string

	mu          sync.Mutex
	enabled     bool
	periodMin   float64
	periodMax   float64
	periodSum   float64
	periodCount int
}

// NewDispatcher creates a Dispatcher with alerting enabled.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		gate:     cfg.Gate,
		desktop:  cfg.Desktop,
		email:    cfg.Email,
		log:      log,
		hostname: cfg.Hostname,
		enabled:  true,
	}
}

// SetEnabled toggles alert delivery. Period statistics keep
// accumulating either way so a later routine report stays accurate.
func (d *Dispatcher) SetEnabled(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = on
}

// Enabled reports whether alert delivery is active.
func (d *Dispatcher) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// Observe folds one sample and its evaluation into the dispatcher:
// period statistics always, a desktop notification when the evaluation
// is a breach and alerting is enabled. The email channel runs on the
// report cadence instead, through CheckEmail.
func (d *Dispatcher) Observe(s classify.Sample, ev Evaluation, th Thresholds) {
	d.mu.Lock()
	if d.periodCount == 0 || s.Max < d.periodMin {
		d.periodMin = s.Max
	}
	if d.periodCount == 0 || s.Max > d.periodMax {
		d.periodMax = s.Max
	}
	d.periodSum += s.Max
	d.periodCount++
	enabled := d.enabled
	d.mu.Unlock()

	if !ev.Breach || !enabled {
		return
	}
	d.deliverDesktop(s, ev, th)
}

// CheckEmail runs one report-cadence pass of the email channel: a
// breach severity sends an alert email under its per-severity cooldown,
// NORMAL sends the routine status report under the long interval. It
// reports whether a routine report went out.
func (d *Dispatcher) CheckEmail(latest classify.Sample, sev Severity, th Thresholds) bool {
	if sev != SeverityNormal {
		if d.Enabled() {
			d.deliverEmail(latest, sev, th)
		}
		return false
	}
	return d.SendRoutine(latest, th)
}

func (d *Dispatcher) deliverDesktop(s classify.Sample, ev Evaluation, th Thresholds) {
	if d.desktop == nil || !d.gate.TryFire(ChannelDesktop, ev.Severity) {
		return
	}
	title := fmt.Sprintf("Temperature %s", ev.Severity)
	if err := d.desktop.Notify(title, alertLine(s, ev.Severity, th)); err != nil {
		d.log.Error("desktop notification failed",
			"severity", ev.Severity.String(),
			"error", err)
		return
	}
	d.log.Info("desktop notification sent", "severity", ev.Severity.String(), "max_celsius", s.Max)
}

func (d *Dispatcher) deliverEmail(s classify.Sample, sev Severity, th Thresholds) {
	if d.email == nil || !d.gate.TryFire(ChannelEmail, sev) {
		return
	}
	subject := fmt.Sprintf("[thermoguard] %s temperature on %s", sev, d.hostname)
	if err := d.email.Send(subject, d.alertBody(s, sev, th)); err != nil {
		d.log.Error("alert email failed",
			"severity", sev.String(),
			"error", err)
		return
	}
	// An alert email already reached the recipient; the next routine
	// report can wait a full interval.
	d.gate.Touch(ChannelEmail, SeverityNormal)
	d.log.Info("alert email sent", "severity", sev.String(), "max_celsius", s.Max)
}

// RoutineRemaining returns the time until the next routine status email
// may go out.
func (d *Dispatcher) RoutineRemaining() time.Duration {
	return d.gate.Remaining(ChannelEmail, SeverityNormal)
}

// SendRoutine delivers the periodic status email and resets the period
// statistics, reporting whether a message went out. It is a no-op while
// the routine interval has not elapsed or no samples were observed
// since the last report.
func (d *Dispatcher) SendRoutine(latest classify.Sample, th Thresholds) bool {
	if d.email == nil {
		return false
	}
	d.mu.Lock()
	count := d.periodCount
	d.mu.Unlock()
	if count == 0 || !d.gate.TryFire(ChannelEmail, SeverityNormal) {
		return false
	}

	min, max, avg := d.resetPeriod()
	subject := fmt.Sprintf("[thermoguard] status report from %s", d.hostname)
	var b strings.Builder
	fmt.Fprintf(&b, "Current temperature: %.1f°C%s\n", latest.Max, syntheticTag(latest))
	fmt.Fprintf(&b, "Since last report: min %.1f°C, max %.1f°C, avg %.1f°C\n", min, max, avg)
	fmt.Fprintf(&b, "Thresholds: warning %.1f°C, critical %.1f°C\n", th.Warning, th.Critical)
	writeDeviceLines(&b, latest)

	if err := d.email.Send(subject, b.String()); err != nil {
		d.log.Error("routine email failed", "error", err)
		return false
	}
	d.log.Info("routine email sent", "period_max", max, "period_min", min)
	return true
}

// PeriodStats returns the min, max and mean observed since the last
// routine report without resetting them.
func (d *Dispatcher) PeriodStats() (min, max, avg float64, count int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.periodCount == 0 {
		return 0, 0, 0, 0
	}
	return d.periodMin, d.periodMax, d.periodSum / float64(d.periodCount), d.periodCount
}

func (d *Dispatcher) resetPeriod() (min, max, avg float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	min, max = d.periodMin, d.periodMax
	if d.periodCount > 0 {
		avg = d.periodSum / float64(d.periodCount)
	}
	d.periodMin, d.periodMax, d.periodSum, d.periodCount = 0, 0, 0, 0
	return min, max, avg
}

// alertLine is the single-line rendering used for desktop pop-ups.
func alertLine(s classify.Sample, sev Severity, th Thresholds) string {
	threshold := th.Warning
	if sev == SeverityCritical {
		threshold = th.Critical
	}
	return fmt.Sprintf("Drive temperature %.1f°C reached the %.1f°C %s threshold%s",
		s.Max, threshold, strings.ToLower(sev.String()), syntheticTag(s))
}

// alertBody is the multi-line rendering used for alert emails.
func (d *Dispatcher) alertBody(s classify.Sample, sev Severity, th Thresholds) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s at %s%s\n\n", sev, d.hostname,
		s.Timestamp.Format("2006-01-02 15:04:05"), syntheticTag(s))
	fmt.Fprintf(&b, "Hottest device: %.1f°C (warning %.1f°C, critical %.1f°C)\n",
		s.Max, th.Warning, th.Critical)
	writeDeviceLines(&b, s)
	return b.String()
}

func writeDeviceLines(b *strings.Builder, s classify.Sample) {
	for _, name := range s.Devices() {
		fmt.Fprintf(b, "  %s: %.1f°C\n", name, s.PerDevice[name])
	}
}

func syntheticTag(s classify.Sample) string {
	if s.Synthetic {
		return " [simulated]"
	}
	return ""
}
