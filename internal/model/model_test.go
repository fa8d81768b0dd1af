package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendash/cansim/pkg/telemetry"
)

func TestFromSnapshot(t *testing.T) {
	snap := telemetry.NewSnapshot(125847.5, 20)
	snap.Speed = 88
	snap.RPM = 3200
	snap.Gear = "4"
	snap.FuelLevel = 24
	snap.DeriveWarnings()

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	row, err := FromSnapshot(snap, 3, at)
	require.NoError(t, err)

	assert.Equal(t, uint(3), row.SessionID)
	assert.Equal(t, at, row.Time)
	assert.Equal(t, 88.0, row.Speed)
	assert.Equal(t, "4", row.Gear)
	assert.True(t, row.FuelWarning)

	var channels map[string]any
	require.NoError(t, json.Unmarshal(row.Channels, &channels))
	assert.Equal(t, 3200.0, channels[telemetry.ChanRPM])
	assert.Equal(t, true, channels[telemetry.ChanFuelWarning])
}

func TestFromSession(t *testing.T) {
	start := time.Now().UTC()
	row := FromSession(telemetry.Session{
		Profile:   "city-loop",
		VehicleID: "SIM-1",
		StartTime: start,
		TickRate:  20,
	})

	assert.Equal(t, "city-loop", row.Profile)
	assert.Equal(t, "SIM-1", row.VehicleID)
	assert.Equal(t, start, row.StartTime)
	assert.Equal(t, 20.0, row.TickRate)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "sessions", (*Session)(nil).TableName())
	assert.Equal(t, "snapshots", (*SnapshotRecord)(nil).TableName())
	assert.Equal(t, "perf_samples", (*PerfRecord)(nil).TableName())
}
