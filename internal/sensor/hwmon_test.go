package sensor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeSensorFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestHwmonSourceMissingDirectory(t *testing.T) {
	src := &HwmonSource{hwmonPath: "/nonexistent/hwmon"}
	if _, err := src.Read(context.Background()); err == nil {
		t.Fatal("Read() error = nil, want error for missing hwmon directory")
	}
}

func TestHwmonSourceReadsDriveDevice(t *testing.T) {
	tmpDir := t.TempDir()

	hwmon0 := filepath.Join(tmpDir, "hwmon0")
	if err := os.MkdirAll(filepath.Join(hwmon0, "device"), 0o755); err != nil {
		t.Fatalf("failed to create hwmon0: %v", err)
	}
	writeSensorFile(t, hwmon0, "name", "drivetemp\n")
	writeSensorFile(t, filepath.Join(hwmon0, "device"), "model", "Samsung SSD 970 EVO\n")
	writeSensorFile(t, hwmon0, "temp1_input", "35000\n")
	writeSensorFile(t, hwmon0, "temp1_label", "Composite\n")
	writeSensorFile(t, hwmon0, "temp1_max", "55000\n")
	writeSensorFile(t, hwmon0, "temp1_crit", "70000\n")

	hwmon1 := filepath.Join(tmpDir, "hwmon1")
	if err := os.MkdirAll(hwmon1, 0o755); err != nil {
		t.Fatalf("failed to create hwmon1: %v", err)
	}
	writeSensorFile(t, hwmon1, "name", "coretemp\n")
	writeSensorFile(t, hwmon1, "temp1_input", "48000\n")

	src := &HwmonSource{hwmonPath: tmpDir}
	readings, err := src.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("Read() returned %d readings, want 2", len(readings))
	}

	byDevice := make(map[string]Reading)
	for _, r := range readings {
		byDevice[r.Device] = r
	}

	drive, ok := byDevice["Samsung SSD 970 EVO"]
	if !ok {
		t.Fatal("drivetemp reading not keyed by device model")
	}
	if drive.Sensor != "Composite" {
		t.Errorf("Sensor = %q, want %q", drive.Sensor, "Composite")
	}
	if drive.Celsius != 35.0 {
		t.Errorf("Celsius = %v, want 35.0", drive.Celsius)
	}
	if drive.High != 55.0 || drive.Crit != 70.0 {
		t.Errorf("High/Crit = %v/%v, want 55.0/70.0", drive.High, drive.Crit)
	}
	if drive.Synthetic {
		t.Error("hardware reading flagged synthetic")
	}

	core, ok := byDevice["coretemp"]
	if !ok {
		t.Fatal("coretemp reading missing; chip name fallback broken")
	}
	if core.Sensor != "temp1" {
		t.Errorf("Sensor = %q, want label fallback %q", core.Sensor, "temp1")
	}
	if core.Celsius != 48.0 {
		t.Errorf("Celsius = %v, want 48.0", core.Celsius)
	}
}

func TestHwmonSourceSkipsMalformedSensor(t *testing.T) {
	tmpDir := t.TempDir()
	hwmon0 := filepath.Join(tmpDir, "hwmon0")
	if err := os.MkdirAll(hwmon0, 0o755); err != nil {
		t.Fatalf("failed to create hwmon0: %v", err)
	}
	writeSensorFile(t, hwmon0, "name", "acpitz\n")
	writeSensorFile(t, hwmon0, "temp1_input", "garbage\n")
	writeSensorFile(t, hwmon0, "temp2_input", "41000\n")

	src := &HwmonSource{hwmonPath: tmpDir}
	readings, err := src.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("Read() returned %d readings, want 1 (malformed skipped)", len(readings))
	}
	if readings[0].Celsius != 41.0 {
		t.Errorf("Celsius = %v, want 41.0", readings[0].Celsius)
	}
}
