package thermal

import "math"

// State holds the coupled temperature channels in °C.
type State struct {
	Engine     float64
	Coolant    float64
	Oil        float64
	Exhaust    float64
	BrakeFront float64
	BrakeRear  float64
	Cabin      float64
	IntakeAir  float64
}

// Inputs are the per-tick operating conditions the model responds to.
type Inputs struct {
	Load     float64 // percent [0,100]
	Speed    float64 // km/h
	Brake    float64 // [0,1]
	Ambient  float64 // °C
	BoostBar float64
}

// Channel bounds.
const (
	MinEngineTemp = 60.0
	MaxEngineTemp = 130.0
	MinBrakeTemp  = 25.0
	MaxBrakeTemp  = 300.0
)

// per-channel approach rates (fraction of remaining gap per second)
const (
	kEngine  = 0.015
	kCoolant = 0.5 // coolant and oil track the engine closely
	kOil     = 0.3
	kExhaust = 0.05
	kBrake   = 0.06
	kCabin   = 0.01
	kIntake  = 0.10
)

// Model advances the coupled temperature state. Coolant and oil are slaved to
// the engine temperature so the cross-channel bands hold at every step, not
// only at equilibrium.
type Model struct{}

// New returns the thermal model.
func New() *Model {
	return &Model{}
}

// InitialState returns warmed-up defaults around the given ambient
// temperature.
func InitialState(ambient float64) State {
	return State{
		Engine:     90,
		Coolant:    88,
		Oil:        85,
		Exhaust:    240,
		BrakeFront: math.Max(MinBrakeTemp, ambient+10),
		BrakeRear:  math.Max(MinBrakeTemp, ambient+8),
		Cabin:      22,
		IntakeAir:  ambient + 10,
	}
}

// approach moves old toward target by a first-order step.
func approach(old, target, k, dt float64) float64 {
	return old + (target-old)*math.Min(1, k*dt)
}

// Advance computes the next temperature state after dt seconds under in.
func (m *Model) Advance(s State, in Inputs, dt float64) State {
	var next State

	// engine settles higher under load, airflow at speed sheds heat
	engineTarget := 85 + in.Load*0.28
	if in.Speed > 50 {
		engineTarget -= 5
	}
	next.Engine = clamp(approach(s.Engine, engineTarget, kEngine, dt), MinEngineTemp, MaxEngineTemp)

	// coolant runs a few degrees under the block, oil a few over
	next.Coolant = approach(s.Coolant, next.Engine-3, kCoolant, dt)
	next.Oil = approach(s.Oil, next.Engine+6, kOil, dt)

	exhaustTarget := next.Engine + 150 + in.Load*3
	next.Exhaust = approach(s.Exhaust, exhaustTarget, kExhaust, dt)
	if next.Exhaust < next.Engine {
		next.Exhaust = next.Engine
	}

	// brakes heat with braking effort scaled by speed, cool toward ambient
	brakeHeat := in.Brake * (80 + in.Speed*1.8)
	frontTarget := clamp(in.Ambient+10+brakeHeat*1.15, MinBrakeTemp, MaxBrakeTemp)
	rearTarget := clamp(in.Ambient+8+brakeHeat, MinBrakeTemp, MaxBrakeTemp)
	next.BrakeFront = clamp(approach(s.BrakeFront, frontTarget, kBrake, dt), MinBrakeTemp, MaxBrakeTemp)
	next.BrakeRear = clamp(approach(s.BrakeRear, rearTarget, kBrake, dt), MinBrakeTemp, MaxBrakeTemp)
	if next.BrakeRear > next.BrakeFront {
		next.BrakeRear = next.BrakeFront
	}

	// climate control holds the cabin near 22
	next.Cabin = approach(s.Cabin, 22, kCabin, dt)

	intakeTarget := in.Ambient + 10 + in.BoostBar*15
	next.IntakeAir = approach(s.IntakeAir, intakeTarget, kIntake, dt)

	return next
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
