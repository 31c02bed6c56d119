package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of filesystem events an
// editor or atomic save produces into one reload.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher reloads the settings store when its file changes on disk.
type Watcher struct {
	fw       *fsnotify.Watcher
	store    *Store
	debounce time.Duration
	onChange func(Settings)

	stopCh    chan struct{}
	stoppedCh chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewWatcher creates a Watcher for the store's file. onChange is called
// with the freshly loaded settings after each debounced reload; it may
// be nil. The containing directory is watched rather than the file so
// atomic renames from editors are seen.
func NewWatcher(store *Store, debounce time.Duration, onChange func(Settings)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if err := fw.Add(filepath.Dir(store.Path())); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		fw:        fw,
		store:     store,
		debounce:  debounce,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}, nil
}

// Start begins watching in a goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.loop()
}

// Stop ends the watch and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Watcher) loop() {
	defer close(w.stoppedCh)
	defer w.fw.Close()

	baseName := filepath.Base(w.store.Path())

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return

		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != baseName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceTimer = nil
			debounceCh = nil
			s, err := w.store.Load()
			if err != nil {
				w.store.log.Warn("settings reload rejected", "error", err)
				continue
			}
			w.store.log.Info("settings reloaded", "path", w.store.Path())
			if w.onChange != nil {
				w.onChange(s)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.store.log.Warn("settings watch error", "error", err)
		}
	}
}
