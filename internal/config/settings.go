// Package config loads, persists and hot-reloads the daemon settings
// file.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/opd-ai/thermoguard/internal/alert"
	"github.com/opd-ai/thermoguard/internal/classify"
	"github.com/opd-ai/thermoguard/internal/history"
	"github.com/opd-ai/thermoguard/internal/notify"
)

// Default runtime intervals.
const (
	DefaultRefreshSeconds = 2
	DefaultListenAddr     = "127.0.0.1:9204"
)

// Settings is the persisted daemon configuration. The JSON field names
// are the on-disk format.
type Settings struct {
	WarningTemp       float64            `json:"warningTemp" mapstructure:"warningTemp"`
	CriticalTemp      float64            `json:"criticalTemp" mapstructure:"criticalTemp"`
	RefreshSeconds    int                `json:"refreshSeconds" mapstructure:"refreshSeconds"`
	AlertsEnabled     bool               `json:"alertsEnabled" mapstructure:"alertsEnabled"`
	CalibrationOffset float64            `json:"calibrationOffset" mapstructure:"calibrationOffset"`
	HistorySize       int                `json:"historySize" mapstructure:"historySize"`
	ReprobeSeconds    int                `json:"reprobeSeconds" mapstructure:"reprobeSeconds"`
	ListenAddr        string             `json:"listenAddr" mapstructure:"listenAddr"`
	Email             notify.EmailConfig `json:"email" mapstructure:"email"`
}

// Defaults returns the built-in settings used when no file exists or
// the file cannot be parsed.
func Defaults() Settings {
	return Settings{
		WarningTemp:       alert.DefaultWarningThreshold,
		CriticalTemp:      alert.DefaultCriticalThreshold,
		RefreshSeconds:    DefaultRefreshSeconds,
		AlertsEnabled:     true,
		CalibrationOffset: classify.DefaultOffset,
		HistorySize:       history.DefaultCapacity,
		ListenAddr:        DefaultListenAddr,
	}
}

// Validate checks cross-field consistency.
func (s Settings) Validate() error {
	if err := s.Thresholds().Validate(); err != nil {
		return err
	}
	if s.RefreshSeconds <= 0 {
		return fmt.Errorf("refreshSeconds must be positive, got %d", s.RefreshSeconds)
	}
	if s.HistorySize <= 0 {
		return fmt.Errorf("historySize must be positive, got %d", s.HistorySize)
	}
	// Email settings are only validated when email delivery is
	// actually configured.
	if s.Email.Server != "" {
		if err := s.Email.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Thresholds returns the alert thresholds as a pair.
func (s Settings) Thresholds() alert.Thresholds {
	return alert.Thresholds{Warning: s.WarningTemp, Critical: s.CriticalTemp}
}

// RefreshInterval returns the polling period.
func (s Settings) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshSeconds) * time.Second
}

// ReprobeInterval returns how long a failed sensor source stays
// disabled before being retried. Zero disables re-probing.
func (s Settings) ReprobeInterval() time.Duration {
	return time.Duration(s.ReprobeSeconds) * time.Second
}

// Store binds a settings file to an in-memory copy guarded for
// concurrent access.
type Store struct {
	path string
	log  *slog.Logger

	mu      sync.RWMutex
	current Settings
}

// NewStore creates a Store for path without touching the filesystem.
func NewStore(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{path: path, log: log, current: Defaults()}
}

// Path returns the settings file location.
func (st *Store) Path() string { return st.path }

// Current returns the active settings.
func (st *Store) Current() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// SetCurrent replaces the active settings without touching the file.
// Used when applied settings have no backing file to be saved to.
func (st *Store) SetCurrent(s Settings) {
	st.mu.Lock()
	st.current = s
	st.mu.Unlock()
}

// Load reads the settings file. A missing file or a file that fails to
// parse yields the defaults; only validation failures on a parsed file
// are treated as the operator's problem and keep the previous settings.
func (st *Store) Load() (Settings, error) {
	v := viper.New()
	v.SetConfigFile(st.path)
	v.SetConfigType("json")
	setDefaults(v)
	v.SetEnvPrefix("THERMOGUARD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			st.log.Info("settings file absent, using defaults", "path", st.path)
		} else {
			st.log.Warn("settings file unreadable, using defaults", "path", st.path, "error", err)
		}
		st.mu.Lock()
		st.current = Defaults()
		st.mu.Unlock()
		return Defaults(), nil
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		st.log.Warn("settings file malformed, using defaults", "path", st.path, "error", err)
		st.mu.Lock()
		st.current = Defaults()
		st.mu.Unlock()
		return Defaults(), nil
	}

	if err := s.Validate(); err != nil {
		return st.Current(), fmt.Errorf("settings validation: %w", err)
	}

	st.mu.Lock()
	st.current = s
	st.mu.Unlock()
	return s, nil
}

// Save validates s, persists it atomically and makes it current.
func (st *Store) Save(s Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("settings validation: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(st.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}
	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}

	st.mu.Lock()
	st.current = s
	st.mu.Unlock()
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("warningTemp", d.WarningTemp)
	v.SetDefault("criticalTemp", d.CriticalTemp)
	v.SetDefault("refreshSeconds", d.RefreshSeconds)
	v.SetDefault("alertsEnabled", d.AlertsEnabled)
	v.SetDefault("calibrationOffset", d.CalibrationOffset)
	v.SetDefault("historySize", d.HistorySize)
	v.SetDefault("reprobeSeconds", d.ReprobeSeconds)
	v.SetDefault("listenAddr", d.ListenAddr)
}
