// Package sensor provides hardware temperature acquisition for storage
// monitoring. It defines a common Reading type, a Source interface for
// heterogeneous temperature providers (sysfs hwmon, gopsutil, smartctl,
// simulation), and a priority Chain that falls back between them.
package sensor

import (
	"errors"
	"time"
)

// ErrSourceUnavailable indicates a single source cannot currently be read.
var ErrSourceUnavailable = errors.New("sensor source unavailable")

// ErrChainExhausted indicates every source in the chain failed. Callers
// must substitute a simulated reading rather than stop sampling.
var ErrChainExhausted = errors.New("all sensor sources exhausted")

// Reading represents a single temperature reading from one sensor.
// Readings are immutable once created.
type Reading struct {
	// Source is the name of the Source that produced this reading.
	Source string
	// Device is the owning hardware device, when known
	// (e.g., "Samsung SSD 970", "nvme0"). May be empty.
	Device string
	// Sensor is the sensor label (e.g., "Temperature", "Composite").
	Sensor string
	// Celsius is the temperature in degrees Celsius.
	Celsius float64
	// High is the high-temperature threshold reported by the hardware,
	// zero if unavailable.
	High float64
	// Crit is the critical-temperature threshold reported by the hardware,
	// zero if unavailable.
	Crit float64
	// Synthetic marks readings produced by the simulation fallback rather
	// than real hardware. Consumers must be able to distinguish the two.
	Synthetic bool
	// Timestamp is when the reading was taken.
	Timestamp time.Time
}

// Key returns a stable identifier for the underlying sensor.
func (r Reading) Key() string {
	if r.Device != "" {
		return r.Device + "/" + r.Sensor
	}
	return r.Sensor
}
