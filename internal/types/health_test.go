package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthStatus(t *testing.T) {
	healthy := Healthy("graph database reachable")
	assert.True(t, healthy.IsHealthy())
	assert.Equal(t, "healthy", healthy.State.String())
	assert.False(t, healthy.CheckedAt.IsZero())

	unhealthy := Unhealthy("connection refused")
	assert.False(t, unhealthy.IsHealthy())
	assert.Equal(t, "connection refused", unhealthy.Message)
}

func TestHealthStatus_JSON(t *testing.T) {
	status := Unhealthy("")
	status.URI = "bolt://localhost:7687"
	status.Latency = 12 * time.Millisecond

	data, err := json.Marshal(status)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "unhealthy", fields["state"])
	assert.Equal(t, "bolt://localhost:7687", fields["uri"])
	assert.NotContains(t, fields, "message", "empty message is omitted")

	var back HealthStatus
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, status.Latency, back.Latency)
	assert.True(t, status.CheckedAt.Equal(back.CheckedAt))
}
