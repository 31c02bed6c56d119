package thermoguard

import "time"

// HealthStatus represents the health state of the monitor or one of
// its components.
type HealthStatus string

const (
	// HealthOK indicates normal operation on hardware sensors.
	HealthOK HealthStatus = "ok"
	// HealthDegraded indicates the monitor is running but on a
	// fallback path, typically simulated data or disabled sources.
	HealthDegraded HealthStatus = "degraded"
	// HealthUnhealthy indicates the monitor is not producing samples.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth describes one component inside a HealthCheck.
type ComponentHealth struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastUpdated time.Time    `json:"lastUpdated"`
}

// HealthCheck is the aggregate health report served at /healthz.
type HealthCheck struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     time.Duration              `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
	Message    string                     `json:"message,omitempty"`
}

// IsHealthy reports whether the overall status is HealthOK.
func (h HealthCheck) IsHealthy() bool { return h.Status == HealthOK }

// IsDegraded reports whether the overall status is HealthDegraded.
func (h HealthCheck) IsDegraded() bool { return h.Status == HealthDegraded }

// IsUnhealthy reports whether the overall status is HealthUnhealthy.
func (h HealthCheck) IsUnhealthy() bool { return h.Status == HealthUnhealthy }
