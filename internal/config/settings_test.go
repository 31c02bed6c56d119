package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/opd-ai/thermoguard/internal/notify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStoreLoadMissingFileUsesDefaults(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "settings.json"), discardLogger())

	s, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(s, Defaults()) {
		t.Errorf("Load() = %+v, want defaults", s)
	}
}

func TestStoreLoadMalformedFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	st := NewStore(path, discardLogger())

	s, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults without error", err)
	}
	if s.WarningTemp != Defaults().WarningTemp {
		t.Errorf("WarningTemp = %v, want default", s.WarningTemp)
	}
}

func TestStoreLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"warningTemp": 40, "criticalTemp": 50}`), 0o600); err != nil {
		t.Fatal(err)
	}
	st := NewStore(path, discardLogger())

	s, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.WarningTemp != 40 || s.CriticalTemp != 50 {
		t.Errorf("thresholds = %v/%v, want 40/50", s.WarningTemp, s.CriticalTemp)
	}
	if s.RefreshSeconds != DefaultRefreshSeconds {
		t.Errorf("RefreshSeconds = %d, want default %d", s.RefreshSeconds, DefaultRefreshSeconds)
	}
	if !s.AlertsEnabled {
		t.Error("AlertsEnabled default lost")
	}
}

func TestStoreLoadInvalidThresholdsKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"warningTemp": 60, "criticalTemp": 50}`), 0o600); err != nil {
		t.Fatal(err)
	}
	st := NewStore(path, discardLogger())

	s, err := st.Load()
	if err == nil {
		t.Fatal("Load() accepted inverted thresholds")
	}
	if !reflect.DeepEqual(s, Defaults()) {
		t.Errorf("Load() returned %+v, want previous (default) settings", s)
	}
}

func TestStoreSetCurrent(t *testing.T) {
	st := NewStore("", discardLogger())

	s := Defaults()
	s.WarningTemp = 33
	s.CriticalTemp = 44
	st.SetCurrent(s)

	if got := st.Current(); got.WarningTemp != 33 || got.CriticalTemp != 44 {
		t.Errorf("Current() = %v/%v after SetCurrent, want 33/44", got.WarningTemp, got.CriticalTemp)
	}
}

func TestStoreSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	st := NewStore(path, discardLogger())

	want := Defaults()
	want.WarningTemp = 42
	want.CriticalTemp = 48
	want.RefreshSeconds = 10
	want.Email = notify.EmailConfig{
		Server: "smtp.example.com",
		Port:   465,
		Sender: "nas@example.com",
		To:     []string{"ops@example.com"},
	}

	if err := st.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if st.Current().WarningTemp != 42 {
		t.Error("Save() did not update current settings")
	}

	st2 := NewStore(path, discardLogger())
	got, err := st2.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.WarningTemp != 42 || got.CriticalTemp != 48 || got.RefreshSeconds != 10 {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
	if got.Email.Server != "smtp.example.com" || len(got.Email.To) != 1 {
		t.Errorf("email config lost in round trip: %+v", got.Email)
	}
}

func TestStoreSaveRejectsInvalid(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "settings.json"), discardLogger())

	bad := Defaults()
	bad.WarningTemp = 99
	if err := st.Save(bad); err == nil {
		t.Fatal("Save() accepted warning above critical")
	}
	if _, err := os.Stat(st.Path()); !os.IsNotExist(err) {
		t.Error("invalid settings were written to disk")
	}
}

func TestSettingsIntervals(t *testing.T) {
	if got := Defaults().RefreshInterval(); got != 2*time.Second {
		t.Errorf("default RefreshInterval() = %v, want 2s", got)
	}

	s := Defaults()
	s.RefreshSeconds = 5
	s.ReprobeSeconds = 300

	if s.RefreshInterval() != 5*time.Second {
		t.Errorf("RefreshInterval() = %v", s.RefreshInterval())
	}
	if s.ReprobeInterval() != 5*time.Minute {
		t.Errorf("ReprobeInterval() = %v", s.ReprobeInterval())
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"warningTemp": 17, "criticalTemp": 20}`), 0o600); err != nil {
		t.Fatal(err)
	}
	st := NewStore(path, discardLogger())
	if _, err := st.Load(); err != nil {
		t.Fatal(err)
	}

	changed := make(chan Settings, 1)
	w, err := NewWatcher(st, 20*time.Millisecond, func(s Settings) {
		select {
		case changed <- s:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Start()
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`{"warningTemp": 30, "criticalTemp": 35}`), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-changed:
		if s.WarningTemp != 30 {
			t.Errorf("reloaded WarningTemp = %v, want 30", s.WarningTemp)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload within 5s")
	}

	if st.Current().WarningTemp != 30 {
		t.Errorf("store not updated after reload: %v", st.Current().WarningTemp)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	st := NewStore(path, discardLogger())

	changed := make(chan Settings, 1)
	w, err := NewWatcher(st, 20*time.Millisecond, func(s Settings) { changed <- s })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Start()
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
		t.Fatal("watcher reacted to an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
