package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/opendash/cansim/pkg/telemetry"
)

// FromSnapshot flattens a telemetry snapshot into its database row. The full
// channel map is serialized into the JSON column.
func FromSnapshot(s telemetry.Snapshot, sessionID uint, at time.Time) (SnapshotRecord, error) {
	channels, err := json.Marshal(s.Channels())
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("failed to serialize channels: %w", err)
	}

	return SnapshotRecord{
		Time:        at,
		SessionID:   sessionID,
		Speed:       s.Speed,
		RPM:         s.RPM,
		Gear:        s.Gear,
		EngineTemp:  s.EngineTemp,
		FuelLevel:   s.FuelLevel,
		Odometer:    s.Odometer,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		FuelWarning: s.FuelWarning,
		Channels:    channels,
	}, nil
}

// FromSession converts the in-memory session to its database row.
func FromSession(s telemetry.Session) Session {
	return Session{
		Profile:   s.Profile,
		VehicleID: s.VehicleID,
		StartTime: s.StartTime,
		TickRate:  s.TickRate,
	}
}
