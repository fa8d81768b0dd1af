package telemetry

import "time"

// Snapshot is one complete, immutable view of the simulated vehicle state.
// It is a plain value type: assignment copies it, so the simulator can hand
// copies to observers without sharing mutable state.
type Snapshot struct {
	Time time.Time `json:"time"`
	Tick uint64    `json:"tick"`

	// Motion
	Speed    float64 `json:"speed"`
	RPM      float64 `json:"rpm"`
	Gear     string  `json:"gear"`
	Throttle float64 `json:"throttle_position"` // 0..1
	Brake    float64 `json:"brake_position"`    // 0..1

	// Engine
	EngineLoad    float64 `json:"engine_load"` // percent
	Torque        float64 `json:"torque"`      // Nm
	Power         float64 `json:"power"`       // kW
	BoostPressure float64 `json:"boost_pressure"`
	MassAirFlow   float64 `json:"mass_air_flow"` // g/s
	TimingAdvance float64 `json:"timing_advance"`

	// Temperatures (°C)
	EngineTemp       float64 `json:"engine_temp"`
	CoolantTemp      float64 `json:"coolant_temp"`
	OilTemp          float64 `json:"oil_temp"`
	ExhaustTemp      float64 `json:"exhaust_temp"`
	TransmissionTemp float64 `json:"transmission_temp"`
	IntakeAirTemp    float64 `json:"intake_air_temp"`
	CabinTemp        float64 `json:"cabin_temp"`
	AmbientTemp      float64 `json:"ambient_temp"`

	// Fuel
	FuelLevel       float64 `json:"fuel_level"`               // percent
	FuelConsumption float64 `json:"instant_fuel_consumption"` // l/h
	FuelPressure    float64 `json:"fuel_pressure"`            // bar
	RailPressure    float64 `json:"fuel_rail_pressure"`       // bar
	OilPressure     float64 `json:"oil_pressure"`             // bar

	// Electrical
	BatteryVoltage   float64 `json:"battery_voltage"`
	AlternatorOutput float64 `json:"alternator_output"` // amps

	// Wheels and brakes
	WheelSpeedFL   float64 `json:"wheel_speed_fl"`
	WheelSpeedFR   float64 `json:"wheel_speed_fr"`
	WheelSpeedRL   float64 `json:"wheel_speed_rl"`
	WheelSpeedRR   float64 `json:"wheel_speed_rr"`
	BrakeTempFront float64 `json:"brake_temp_front"`
	BrakeTempRear  float64 `json:"brake_temp_rear"`
	TirePressureFL float64 `json:"tire_pressure_fl"`
	TirePressureFR float64 `json:"tire_pressure_fr"`
	TirePressureRL float64 `json:"tire_pressure_rl"`
	TirePressureRR float64 `json:"tire_pressure_rr"`

	// Trip
	Odometer  float64 `json:"odometer"`   // km
	TripMeter float64 `json:"trip_meter"` // km
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Heading   float64 `json:"heading"` // degrees, 0 = north

	// Diagnostics
	EcoScore   float64 `json:"eco_score"` // 0..100
	DrivePhase string  `json:"drive_phase"`

	// Warning flags, derived from the values above each tick
	FuelWarning    bool `json:"fuel_warning"`
	OilWarning     bool `json:"oil_warning"`
	EngineWarning  bool `json:"engine_warning"`
	BatteryWarning bool `json:"battery_warning"`
	BrakeWarning   bool `json:"brake_warning"`
	ABSWarning     bool `json:"abs_warning"`
}

// NewSnapshot returns the initial vehicle state: engine idling in park with a
// warm engine, three quarters of a tank, and the odometer at the given seed.
func NewSnapshot(odometerSeed, ambientTemp float64) Snapshot {
	return Snapshot{
		Time:             time.Now(),
		Speed:            0,
		RPM:              IdleRPM,
		Gear:             GearPark,
		EngineTemp:       90,
		CoolantTemp:      88,
		OilTemp:          85,
		ExhaustTemp:      180,
		TransmissionTemp: 80,
		IntakeAirTemp:    ambientTemp + 5,
		CabinTemp:        ambientTemp,
		AmbientTemp:      ambientTemp,
		FuelLevel:        75,
		FuelPressure:     3.5,
		RailPressure:     35,
		OilPressure:      2.0,
		BatteryVoltage:   12.6,
		BrakeTempFront:   25,
		BrakeTempRear:    25,
		TirePressureFL:   2.4,
		TirePressureFR:   2.4,
		TirePressureRL:   2.3,
		TirePressureRR:   2.3,
		Odometer:         odometerSeed,
		TimingAdvance:    15,
		EcoScore:         100,
		DrivePhase:       "idle",
	}
}

// DeriveWarnings recomputes every warning flag from the snapshot's current
// values. Purely threshold based.
func (s *Snapshot) DeriveWarnings() {
	s.FuelWarning = s.FuelLevel < FuelWarningLevel
	s.OilWarning = s.OilPressure < OilWarningPressure
	s.EngineWarning = s.EngineTemp > EngineWarningTemp
	s.BatteryWarning = s.BatteryVoltage < BatteryWarningLow || s.BatteryVoltage > BatteryWarningHigh
	s.BrakeWarning = s.BrakeTempFront > BrakeWarningTemp || s.BrakeTempRear > BrakeWarningTemp
	// ABS fault is modeled as a wheel speed sensor disagreeing with the
	// vehicle speed beyond sensor tolerance.
	s.ABSWarning = false
	if s.Speed > 1 {
		for _, w := range []float64{s.WheelSpeedFL, s.WheelSpeedFR, s.WheelSpeedRL, s.WheelSpeedRR} {
			if w < s.Speed*0.85 || w > s.Speed*1.15 {
				s.ABSWarning = true
				break
			}
		}
	}
}

// Channels returns the snapshot as a channel-name → value map. The key set is
// identical for every snapshot produced by the same simulator.
func (s Snapshot) Channels() map[string]any {
	return map[string]any{
		ChanSpeed:            s.Speed,
		ChanRPM:              s.RPM,
		ChanGear:             s.Gear,
		ChanThrottle:         s.Throttle,
		ChanBrake:            s.Brake,
		ChanEngineLoad:       s.EngineLoad,
		ChanTorque:           s.Torque,
		ChanPower:            s.Power,
		ChanBoostPressure:    s.BoostPressure,
		ChanMassAirFlow:      s.MassAirFlow,
		ChanTimingAdvance:    s.TimingAdvance,
		ChanEngineTemp:       s.EngineTemp,
		ChanCoolantTemp:      s.CoolantTemp,
		ChanOilTemp:          s.OilTemp,
		ChanExhaustTemp:      s.ExhaustTemp,
		ChanTransmissionTemp: s.TransmissionTemp,
		ChanIntakeAirTemp:    s.IntakeAirTemp,
		ChanCabinTemp:        s.CabinTemp,
		ChanAmbientTemp:      s.AmbientTemp,
		ChanFuelLevel:        s.FuelLevel,
		ChanFuelConsumption:  s.FuelConsumption,
		ChanFuelPressure:     s.FuelPressure,
		ChanRailPressure:     s.RailPressure,
		ChanOilPressure:      s.OilPressure,
		ChanBatteryVoltage:   s.BatteryVoltage,
		ChanAlternator:       s.AlternatorOutput,
		ChanWheelSpeedFL:     s.WheelSpeedFL,
		ChanWheelSpeedFR:     s.WheelSpeedFR,
		ChanWheelSpeedRL:     s.WheelSpeedRL,
		ChanWheelSpeedRR:     s.WheelSpeedRR,
		ChanBrakeTempFront:   s.BrakeTempFront,
		ChanBrakeTempRear:    s.BrakeTempRear,
		ChanTirePressureFL:   s.TirePressureFL,
		ChanTirePressureFR:   s.TirePressureFR,
		ChanTirePressureRL:   s.TirePressureRL,
		ChanTirePressureRR:   s.TirePressureRR,
		ChanOdometer:         s.Odometer,
		ChanTripMeter:        s.TripMeter,
		ChanLatitude:         s.Latitude,
		ChanLongitude:        s.Longitude,
		ChanHeading:          s.Heading,
		ChanEcoScore:         s.EcoScore,
		ChanDrivePhase:       s.DrivePhase,
		ChanFuelWarning:      s.FuelWarning,
		ChanOilWarning:       s.OilWarning,
		ChanEngineWarning:    s.EngineWarning,
		ChanBatteryWarning:   s.BatteryWarning,
		ChanBrakeWarning:     s.BrakeWarning,
		ChanABSWarning:       s.ABSWarning,
	}
}

// Session identifies one simulator run for storage and streaming backends.
type Session struct {
	ID        uint      `json:"id"`
	Profile   string    `json:"profile"`
	VehicleID string    `json:"vehicleId"`
	StartTime time.Time `json:"startTime"`
	TickRate  float64   `json:"tickRate"` // ticks per second
}

// UploadMetadata describes an exported recording for the dashboard API.
type UploadMetadata struct {
	Profile     string  `json:"profile"`
	VehicleID   string  `json:"vehicleId"`
	DurationSec float64 `json:"durationSec"`
	Snapshots   int     `json:"snapshots"`
}
