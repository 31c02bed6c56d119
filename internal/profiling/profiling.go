// Package profiling backs the daemon's --cpuprofile and --memprofile
// flags with runtime/pprof.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// Session is one profiling run spanning the daemon's lifetime. CPU
// sampling starts at Begin and both profiles are written at End.
type Session struct {
	mu      sync.Mutex
	cpuPath string
	memPath string
	cpuFile *os.File
	active  bool
}

// Begin starts a profiling session. An empty cpuPath skips CPU
// sampling; an empty memPath skips the heap snapshot at End.
func Begin(cpuPath, memPath string) (*Session, error) {
	s := &Session{cpuPath: cpuPath, memPath: memPath, active: true}
	if cpuPath == "" {
		return s, nil
	}

	f, err := os.Create(cpuPath)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile %s: %w", cpuPath, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("start cpu profile: %w", err)
	}
	s.cpuFile = f
	return s, nil
}

// Active reports whether the session has not ended yet.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// End stops CPU sampling and writes the heap profile. Calling End on a
// finished session is an error.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return errors.New("profiling session already ended")
	}
	s.active = false

	var errs []error
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := s.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cpu profile: %w", err))
		}
		s.cpuFile = nil
	}
	if s.memPath != "" {
		if err := WriteHeapProfile(s.memPath); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteHeapProfile snapshots the heap to path after a garbage
// collection pass.
func WriteHeapProfile(path string) error {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heap profile %s: %w", path, err)
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("write heap profile: %w", err)
	}
	return nil
}
