package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels lists every struct representing a table in the schema.
var DatabaseModels = []interface{}{
	&Session{},
	&SnapshotRecord{},
	&PerfRecord{},
}

// Session is one recording run of the simulator.
type Session struct {
	gorm.Model
	Profile   string    `json:"profile" gorm:"size:127"`
	VehicleID string    `json:"vehicleId" gorm:"size:127;index:idx_sessions_vehicle_id"`
	StartTime time.Time `json:"startTime"`
	TickRate  float64   `json:"tickRate"`
	TrackWKT  string    `json:"trackWkt"` // driven route, filled on session end
}

func (*Session) TableName() string {
	return "sessions"
}

// SnapshotRecord is one persisted tick. The frequently queried gauges get
// their own columns; the full channel map rides along as JSON.
type SnapshotRecord struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Time      time.Time `json:"time" gorm:"index:idx_snapshots_time"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_snapshots_session_id"`
	Session   Session   `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`

	Speed       float64 `json:"speed"`
	RPM         float64 `json:"rpm"`
	Gear        string  `json:"gear" gorm:"size:3"`
	EngineTemp  float64 `json:"engineTemp"`
	FuelLevel   float64 `json:"fuelLevel"`
	Odometer    float64 `json:"odometer"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	FuelWarning bool    `json:"fuelWarning"`

	Channels datatypes.JSON `json:"channels"`
}

func (*SnapshotRecord) TableName() string {
	return "snapshots"
}

// PerfRecord is one reading of the tick-loop performance monitor.
type PerfRecord struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Time      time.Time `json:"time" gorm:"index:idx_perf_time"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_perf_session_id"`
	Session   Session   `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`

	AverageMs     float64 `json:"averageMs"`
	MinMs         float64 `json:"minMs"`
	MaxMs         float64 `json:"maxMs"`
	Ticks         uint64  `json:"ticks"`
	Good          bool    `json:"good"`
	WriteQueueLen int     `json:"writeQueueLen"`
	ObserverCount int     `json:"observerCount"`
	DroppedFrames uint64  `json:"droppedFrames"`
}

func (*PerfRecord) TableName() string {
	return "perf_samples"
}
