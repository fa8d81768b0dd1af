// Package telemetry defines the vehicle state snapshot that the simulator
// publishes each tick, the fixed channel names consumers key on, and the
// warning thresholds derived from them.
package telemetry

// Channel names. Every consumer-visible value in a Snapshot is addressable
// under one of these keys via Snapshot.Channels. The set is fixed at
// initialization: a channel present in one snapshot is present in all of them.
const (
	ChanSpeed            = "speed"
	ChanRPM              = "rpm"
	ChanGear             = "gear"
	ChanThrottle         = "throttle_position"
	ChanBrake            = "brake_position"
	ChanEngineLoad       = "engine_load"
	ChanTorque           = "torque"
	ChanPower            = "power"
	ChanBoostPressure    = "boost_pressure"
	ChanMassAirFlow      = "mass_air_flow"
	ChanTimingAdvance    = "timing_advance"
	ChanEngineTemp       = "engine_temp"
	ChanCoolantTemp      = "coolant_temp"
	ChanOilTemp          = "oil_temp"
	ChanExhaustTemp      = "exhaust_temp"
	ChanTransmissionTemp = "transmission_temp"
	ChanIntakeAirTemp    = "intake_air_temp"
	ChanCabinTemp        = "cabin_temp"
	ChanAmbientTemp      = "ambient_temp"
	ChanFuelLevel        = "fuel_level"
	ChanFuelConsumption  = "instant_fuel_consumption"
	ChanFuelPressure     = "fuel_pressure"
	ChanRailPressure     = "fuel_rail_pressure"
	ChanOilPressure      = "oil_pressure"
	ChanBatteryVoltage   = "battery_voltage"
	ChanAlternator       = "alternator_output"
	ChanWheelSpeedFL     = "wheel_speed_fl"
	ChanWheelSpeedFR     = "wheel_speed_fr"
	ChanWheelSpeedRL     = "wheel_speed_rl"
	ChanWheelSpeedRR     = "wheel_speed_rr"
	ChanBrakeTempFront   = "brake_temp_front"
	ChanBrakeTempRear    = "brake_temp_rear"
	ChanTirePressureFL   = "tire_pressure_fl"
	ChanTirePressureFR   = "tire_pressure_fr"
	ChanTirePressureRL   = "tire_pressure_rl"
	ChanTirePressureRR   = "tire_pressure_rr"
	ChanOdometer         = "odometer"
	ChanTripMeter        = "trip_meter"
	ChanLatitude         = "latitude"
	ChanLongitude        = "longitude"
	ChanHeading          = "heading"
	ChanEcoScore         = "eco_score"
	ChanDrivePhase       = "drive_phase"
	ChanFuelWarning      = "fuel_warning"
	ChanOilWarning       = "oil_warning"
	ChanEngineWarning    = "engine_warning"
	ChanBatteryWarning   = "battery_warning"
	ChanBrakeWarning     = "brake_warning"
	ChanABSWarning       = "abs_warning"
)

// Gear positions. Forward gears are "1".."8" depending on the configured
// gearbox; P and N are only valid at standstill.
const (
	GearPark    = "P"
	GearNeutral = "N"
	GearReverse = "R"
)

// Warning thresholds. Flags are recomputed from scratch each tick, no
// hysteresis.
const (
	FuelWarningLevel   = 25.0  // percent
	OilWarningPressure = 1.5   // bar
	EngineWarningTemp  = 115.0 // °C
	BrakeWarningTemp   = 250.0 // °C
	BatteryWarningLow  = 11.8  // volts
	BatteryWarningHigh = 14.6  // volts
)

// Physical bounds enforced on every published snapshot.
const (
	MaxSpeed   = 250.0 // km/h
	IdleRPM    = 800.0
	MinRPM     = 600.0
	RedlineRPM = 8000.0
)
