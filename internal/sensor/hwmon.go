package sensor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// HwmonSource reads temperature sensors from /sys/class/hwmon. It is the
// highest-priority hardware source: the kernel exposes drive temperatures
// here via the drivetemp and nvme drivers without any external tooling.
type HwmonSource struct {
	hwmonPath string
}

// NewHwmonSource creates an HwmonSource with the default sysfs path.
func NewHwmonSource() *HwmonSource {
	return &HwmonSource{hwmonPath: "/sys/class/hwmon"}
}

// Name implements Source.
func (s *HwmonSource) Name() string { return "hwmon" }

// Read implements Source. A missing hwmon directory is reported as an
// error so the chain can fall through to the next source.
func (s *HwmonSource) Read(ctx context.Context) ([]Reading, error) {
	if _, err := os.Stat(s.hwmonPath); err != nil {
		return nil, fmt.Errorf("hwmon not present: %w", err)
	}

	entries, err := os.ReadDir(s.hwmonPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.hwmonPath, err)
	}

	now := time.Now()
	var readings []Reading
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(entry.Name(), "hwmon") {
			continue
		}
		devicePath := filepath.Join(s.hwmonPath, entry.Name())
		readings = append(readings, s.readDevice(devicePath, now)...)
	}
	return readings, nil
}

// readDevice collects every temp*_input sensor under one hwmon device.
func (s *HwmonSource) readDevice(devicePath string, now time.Time) []Reading {
	name := readTrimmed(filepath.Join(devicePath, "name"))
	if name == "" {
		name = filepath.Base(devicePath)
	}
	device := s.deviceModel(devicePath, name)

	entries, err := os.ReadDir(devicePath)
	if err != nil {
		return nil
	}

	var readings []Reading
	for _, entry := range entries {
		fileName := entry.Name()
		if !strings.HasPrefix(fileName, "temp") || !strings.HasSuffix(fileName, "_input") {
			continue
		}
		sensorType := strings.TrimSuffix(fileName, "_input")

		input, err := readMilliCelsius(filepath.Join(devicePath, fileName))
		if err != nil {
			continue
		}

		label := readTrimmed(filepath.Join(devicePath, sensorType+"_label"))
		if label == "" {
			label = sensorType
		}

		r := Reading{
			Source:    s.Name(),
			Device:    device,
			Sensor:    label,
			Celsius:   input,
			Timestamp: now,
		}
		if maxC, err := readMilliCelsius(filepath.Join(devicePath, sensorType+"_max")); err == nil {
			r.High = maxC
		}
		if critC, err := readMilliCelsius(filepath.Join(devicePath, sensorType+"_crit")); err == nil {
			r.Crit = critC
		}
		readings = append(readings, r)
	}
	return readings
}

// deviceModel resolves a human-readable owning-device name. Block-device
// backed hwmon entries (drivetemp, nvme) expose the drive model under
// device/model; everything else falls back to the chip name.
func (s *HwmonSource) deviceModel(devicePath, chipName string) string {
	if model := readTrimmed(filepath.Join(devicePath, "device", "model")); model != "" {
		return model
	}
	return chipName
}

func readTrimmed(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func readMilliCelsius(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return float64(v) / 1000.0, nil
}
