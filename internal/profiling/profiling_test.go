package profiling

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionWithoutPathsIsNoop(t *testing.T) {
	s, err := Begin("", "")
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if !s.Active() {
		t.Error("session not active after Begin")
	}
	if err := s.End(); err != nil {
		t.Errorf("End() error = %v", err)
	}
	if s.Active() {
		t.Error("session still active after End")
	}
}

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cpuPath := filepath.Join(dir, "cpu.prof")
	memPath := filepath.Join(dir, "mem.prof")

	s, err := Begin(cpuPath, memPath)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := s.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	for _, path := range []string{cpuPath, memPath} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("profile %s not written: %v", path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("profile %s is empty", path)
		}
	}
}

func TestSessionEndTwice(t *testing.T) {
	s, err := Begin("", "")
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := s.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := s.End(); err == nil {
		t.Error("second End() did not fail")
	}
}

func TestBeginFailsOnBadCPUPath(t *testing.T) {
	if _, err := Begin(filepath.Join(t.TempDir(), "missing", "cpu.prof"), ""); err == nil {
		t.Error("Begin() accepted an uncreatable cpu profile path")
	}
}

func TestWriteHeapProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.prof")
	if err := WriteHeapProfile(path); err != nil {
		t.Fatalf("WriteHeapProfile() error = %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Error("heap profile missing or empty")
	}
}
