package sensor

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SmartctlSource reads SATA drive temperatures via smartctl. It is the
// lowest-priority hardware source and reports itself unavailable when
// the binary is not installed.
type SmartctlSource struct {
	// glob lists candidate block devices; overridable in tests.
	glob string
	// run executes a command and returns its stdout; overridable in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
	// lookPath finds the smartctl binary; overridable in tests.
	lookPath func(string) (string, error)
}

// NewSmartctlSource creates a SmartctlSource scanning /dev/sd?.
func NewSmartctlSource() *SmartctlSource {
	return &SmartctlSource{
		glob: "/dev/sd?",
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		lookPath: exec.LookPath,
	}
}

// Name implements Source.
func (s *SmartctlSource) Name() string { return "smartctl" }

// Read implements Source.
func (s *SmartctlSource) Read(ctx context.Context) ([]Reading, error) {
	if _, err := s.lookPath("smartctl"); err != nil {
		return nil, fmt.Errorf("smartctl not installed: %w", err)
	}

	devices, _ := filepath.Glob(s.glob)
	now := time.Now()
	var readings []Reading
	for _, dev := range devices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := s.run(ctx, "smartctl", "-A", dev)
		if err != nil {
			continue
		}
		temp, ok := parseSmartTemp(string(out))
		if !ok {
			continue
		}

		model := s.deviceModel(ctx, dev)
		if model == "" {
			model = filepath.Base(dev)
		}
		readings = append(readings, Reading{
			Source:    s.Name(),
			Device:    model,
			Sensor:    "Drive Temperature",
			Celsius:   temp,
			Timestamp: now,
		})
	}
	return readings, nil
}

// deviceModel extracts the drive model string from smartctl -i output.
func (s *SmartctlSource) deviceModel(ctx context.Context, dev string) string {
	out, err := s.run(ctx, "smartctl", "-i", dev)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(out), "\n") {
		for _, prefix := range []string{"Device Model:", "Model Number:"} {
			if strings.HasPrefix(line, prefix) {
				return strings.TrimSpace(strings.TrimPrefix(line, prefix))
			}
		}
	}
	return ""
}

// parseSmartTemp extracts the raw temperature value from a SMART
// attribute table. Attribute 194 wins over 190 when both are present.
// The raw value column may carry a suffix like "32 (Min/Max 21/45)";
// only the leading integer is used.
func parseSmartTemp(output string) (float64, bool) {
	var airflow float64
	var haveAirflow bool
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 10 {
			continue
		}
		name := fields[1]
		if name != "Temperature_Celsius" && name != "Airflow_Temperature_Cel" {
			continue
		}
		v, err := strconv.ParseFloat(fields[9], 64)
		if err != nil {
			continue
		}
		if name == "Temperature_Celsius" {
			return v, true
		}
		airflow, haveAirflow = v, true
	}
	return airflow, haveAirflow
}
