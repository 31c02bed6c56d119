// Package classify filters raw sensor readings down to the storage
// devices being monitored and aggregates them into per-cycle samples.
package classify

import (
	"sort"
	"strings"
	"time"

	"github.com/opd-ai/thermoguard/internal/sensor"
)

// DefaultOffset is the calibration correction, in degrees Celsius,
// subtracted from every accepted hardware reading. Drive-internal
// sensors are known to read high relative to ambient-referenced values.
const DefaultOffset = 10.0

// storageKeywords match sensor or device names belonging to storage
// hardware. Matching is case-insensitive substring search.
var storageKeywords = []string{
	"hdd", "ssd", "disk", "drive", "nvme", "sata",
	"hard disk", "solid state", "samsung", "crucial",
	"western digital", "seagate", "kingston", "adata",
	"sandisk", "intel ssd", "toshiba", "hitachi",
}

// Classifier decides which raw readings belong to tracked storage
// devices and applies the calibration offset to accepted values.
type Classifier struct {
	offset   float64
	keywords []string
}

// New creates a Classifier with the given calibration offset and the
// default storage keyword vocabulary.
func New(offset float64) *Classifier {
	return &Classifier{offset: offset, keywords: storageKeywords}
}

// Offset returns the configured calibration offset.
func (c *Classifier) Offset() float64 { return c.offset }

// Classify maps accepted readings to deviceName -> adjusted temperature.
// Readings are keyed by device name when present, else by sensor name;
// duplicate keys keep the last-seen value. The calibration offset is
// applied exactly once per accepted hardware reading; synthetic readings
// pass through unadjusted since they are already ambient-referenced.
func (c *Classifier) Classify(readings []sensor.Reading) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range readings {
		if !r.Synthetic && !c.matches(r) {
			continue
		}
		key := r.Device
		if key == "" {
			key = r.Sensor
		}
		value := r.Celsius
		if !r.Synthetic {
			value -= c.offset
		}
		out[key] = value
	}
	return out
}

// matches reports whether a reading belongs to a storage device, judged
// by its sensor name and owning-device name.
func (c *Classifier) matches(r sensor.Reading) bool {
	sensorName := strings.ToLower(r.Sensor)
	deviceName := strings.ToLower(r.Device)
	for _, kw := range c.keywords {
		if strings.Contains(deviceName, kw) || strings.Contains(sensorName, kw) {
			return true
		}
	}
	return false
}

// Sample is the per-cycle aggregate over all classified devices. It is
// owned by the polling cycle that produced it and is immutable afterward.
type Sample struct {
	// Timestamp is when the cycle's readings were aggregated.
	Timestamp time.Time
	// Max is the hottest classified device temperature.
	Max float64
	// Avg is the mean across classified devices.
	Avg float64
	// PerDevice maps device name to its adjusted temperature.
	PerDevice map[string]float64
	// Synthetic marks samples derived from the simulation fallback.
	Synthetic bool
}

// Aggregate folds a classification result into a Sample. ok is false
// when no device matched, in which case the caller should substitute
// the simulation fallback.
func Aggregate(perDevice map[string]float64, synthetic bool, now time.Time) (Sample, bool) {
	if len(perDevice) == 0 {
		return Sample{}, false
	}

	s := Sample{
		Timestamp: now,
		PerDevice: perDevice,
		Synthetic: synthetic,
	}
	first := true
	var sum float64
	for _, v := range perDevice {
		if first || v > s.Max {
			s.Max = v
		}
		first = false
		sum += v
	}
	s.Avg = sum / float64(len(perDevice))
	return s, true
}

// Devices returns the sample's device names in stable sorted order.
func (s Sample) Devices() []string {
	names := make([]string, 0, len(s.PerDevice))
	for name := range s.PerDevice {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
