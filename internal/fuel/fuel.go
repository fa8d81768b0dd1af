package fuel

import (
	"math"

	"github.com/opendash/cansim/pkg/telemetry"
)

const (
	tankCapacityL = 55.0

	// consumption model
	idleLitersPerHour = 0.9
	maxLitersPerHour  = 28.0

	basePressureBar = 3.5
	railIdleBar     = 45.0
	railMaxBar      = 180.0
)

// System tracks the fuel level and derives the pressure and consumption
// channels. The level only moves down inside Consume; Refuel is the single
// way up.
type System struct {
	levelPercent float64
}

// New returns a fuel system at the given starting level (percent, clamped to
// [0,100]).
func New(levelPercent float64) *System {
	return &System{levelPercent: clamp(levelPercent, 0, 100)}
}

// Level returns the current fill level in percent.
func (s *System) Level() float64 {
	return s.levelPercent
}

// Warning reports whether the low-fuel threshold has been crossed.
func (s *System) Warning() bool {
	return s.levelPercent < telemetry.FuelWarningLevel
}

// Consumption returns instantaneous consumption in liters per hour for the
// given operating point.
func (s *System) Consumption(rpm, loadPercent, speed float64) float64 {
	if s.levelPercent <= 0 {
		return 0
	}
	revFactor := clamp((rpm-telemetry.IdleRPM)/(telemetry.RedlineRPM-telemetry.IdleRPM), 0, 1)
	demand := 0.75*(loadPercent/100) + 0.25*revFactor
	return idleLitersPerHour + demand*(maxLitersPerHour-idleLitersPerHour)
}

// Consume burns fuel for dt seconds at the given operating point and returns
// the consumption rate used (l/h). The level never rises here and never goes
// below zero.
func (s *System) Consume(rpm, loadPercent, speed, dt float64) float64 {
	rate := s.Consumption(rpm, loadPercent, speed)
	burnedL := rate * dt / 3600.0
	s.levelPercent = math.Max(0, s.levelPercent-burnedL/tankCapacityL*100)
	return rate
}

// Refuel raises the level by the given percent of tank capacity, clamped to
// a full tank. This is the only operation that increases the level.
func (s *System) Refuel(percent float64) {
	if percent <= 0 {
		return
	}
	s.levelPercent = clamp(s.levelPercent+percent, 0, 100)
}

// Pressure returns low-side fuel pressure in bar. Sags slightly as the tank
// runs dry.
func (s *System) Pressure() float64 {
	sag := 0.0
	if s.levelPercent < 10 {
		sag = (10 - s.levelPercent) * 0.05
	}
	return basePressureBar - sag
}

// RailPressure returns the high-pressure rail value in bar for the operating
// point.
func (s *System) RailPressure(rpm, loadPercent float64) float64 {
	revFactor := clamp((rpm-telemetry.IdleRPM)/(telemetry.RedlineRPM-telemetry.IdleRPM), 0, 1)
	return railIdleBar + (railMaxBar-railIdleBar)*clamp(0.6*loadPercent/100+0.4*revFactor, 0, 1)
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
