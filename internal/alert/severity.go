// Package alert turns temperature samples into severity transitions and
// delivers cooldown-gated notifications over desktop and email channels.
package alert

import (
	"errors"
	"fmt"
)

// Severity classifies a temperature relative to the configured
// thresholds. Ordering is meaningful: higher values are more severe.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarning
	SeverityCritical
)

// String returns the uppercase severity label used in alert text.
func (s Severity) String() string {
	switch s {
	case SeverityNormal:
		return "NORMAL"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Default threshold values in degrees Celsius.
const (
	DefaultWarningThreshold  = 17.0
	DefaultCriticalThreshold = 20.0
)

// ErrThresholdOrder rejects threshold pairs where the warning level does
// not sit strictly below the critical level.
var ErrThresholdOrder = errors.New("warning must be lower than critical")

// Thresholds holds the two alert trigger levels. Comparison against
// samples is inclusive: a value equal to a threshold triggers it.
type Thresholds struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

// DefaultThresholds returns the built-in threshold pair.
func DefaultThresholds() Thresholds {
	return Thresholds{Warning: DefaultWarningThreshold, Critical: DefaultCriticalThreshold}
}

// Validate checks threshold ordering.
func (t Thresholds) Validate() error {
	if t.Warning >= t.Critical {
		return ErrThresholdOrder
	}
	return nil
}

// Classify maps a temperature to its severity.
func (t Thresholds) Classify(celsius float64) Severity {
	switch {
	case celsius >= t.Critical:
		return SeverityCritical
	case celsius >= t.Warning:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}
