package thermoguard

import (
	"log/slog"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/opd-ai/thermoguard/internal/alert"
	"github.com/opd-ai/thermoguard/internal/sensor"
)

// DefaultShutdownTimeout bounds how long Stop waits for the loops to
// drain.
const DefaultShutdownTimeout = 5 * time.Second

// DefaultReportCheckInterval is how often the report loop wakes up to
// see whether an alert or routine status email is due.
const DefaultReportCheckInterval = 30 * time.Second

// DefaultPollBackoff is how long the poll loop sleeps after a failed
// cycle before retrying, replacing the normal refresh interval.
const DefaultPollBackoff = 5 * time.Second

// Options configures a Monitor.
type Options struct {
	// SettingsPath locates the persisted settings file. Empty runs on
	// built-in defaults without persistence.
	SettingsPath string

	// Hostname appears in alert and report text. Empty means
	// os.Hostname.
	Hostname string

	// WatchConfig enables hot-reloading when the settings file changes
	// on disk.
	WatchConfig bool

	// WatchDebounce sets the reload debounce window. Zero means the
	// config package default.
	WatchDebounce time.Duration

	// ReportCheckInterval overrides how often the routine report
	// schedule is checked. Zero means DefaultReportCheckInterval.
	ReportCheckInterval time.Duration

	// ShutdownTimeout bounds Stop. Zero means DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// Logger receives structured log records. Nil means DefaultLogger.
	Logger *slog.Logger

	// Metrics collects operational counters. Nil means DefaultMetrics.
	Metrics *Metrics

	// Clock drives all timers and cooldowns. Nil means the wall clock.
	// Tests inject a fake clock here.
	Clock clock.Clock

	// Sources overrides the sensor acquisition chain. Nil builds the
	// standard chain: hwmon, gopsutil, smartctl. The simulator sits
	// outside the chain as the exhaustion fallback.
	Sources []sensor.Source

	// Desktop overrides the desktop notification sink. Nil uses the
	// platform notification daemon.
	Desktop alert.NotificationSink

	// Email overrides the email sink. Nil builds an SMTP sink from the
	// settings, or disables email when none is configured.
	Email alert.EmailSink
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{}
}
