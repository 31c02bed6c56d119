package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/sensors"
)

// GopsutilSource reads temperatures through gopsutil's cross-platform
// sensors API. It sits below hwmon in the chain: the readings carry only
// a flat sensor key, no owning device, so classification is coarser.
type GopsutilSource struct {
	// temperatures allows tests to substitute the platform call.
	temperatures func(ctx context.Context) ([]sensors.TemperatureStat, error)
}

// NewGopsutilSource creates a GopsutilSource backed by the live platform.
func NewGopsutilSource() *GopsutilSource {
	return &GopsutilSource{temperatures: sensors.TemperaturesWithContext}
}

// Name implements Source.
func (s *GopsutilSource) Name() string { return "gopsutil" }

// Read implements Source.
func (s *GopsutilSource) Read(ctx context.Context) ([]Reading, error) {
	stats, err := s.temperatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("sensors temperatures: %w", err)
	}

	now := time.Now()
	readings := make([]Reading, 0, len(stats))
	for _, st := range stats {
		if st.Temperature <= 0 {
			continue
		}
		readings = append(readings, Reading{
			Source:    s.Name(),
			Sensor:    st.SensorKey,
			Celsius:   st.Temperature,
			High:      st.High,
			Crit:      st.Critical,
			Timestamp: now,
		})
	}
	return readings, nil
}
