package types

import (
	"time"
)

// HealthState represents the health state of the graph database connection.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// String returns the string representation of HealthState
func (s HealthState) String() string {
	return string(s)
}

// HealthStatus is the result of a health probe, suitable for JSON output
// to external monitoring.
type HealthStatus struct {
	State     HealthState   `json:"state" yaml:"state"`
	Message   string        `json:"message,omitempty" yaml:"message,omitempty"`
	URI       string        `json:"uri,omitempty" yaml:"uri,omitempty"`
	Latency   time.Duration `json:"latency" yaml:"latency"`
	CheckedAt time.Time     `json:"checked_at" yaml:"checked_at"`
}

// Healthy creates a HealthStatus in the healthy state.
func Healthy(message string) HealthStatus {
	return HealthStatus{State: HealthStateHealthy, Message: message, CheckedAt: time.Now()}
}

// Unhealthy creates a HealthStatus in the unhealthy state.
func Unhealthy(message string) HealthStatus {
	return HealthStatus{State: HealthStateUnhealthy, Message: message, CheckedAt: time.Now()}
}

// IsHealthy returns true if the health state is healthy.
func (h HealthStatus) IsHealthy() bool {
	return h.State == HealthStateHealthy
}
