package electrical

// Battery voltage envelope.
const (
	MinVoltage = 11.5
	MaxVoltage = 14.8

	restingVoltage  = 12.6
	chargingVoltage = 14.2

	// alternator starts contributing just above idle
	alternatorCutInRPM = 900.0
	maxAlternatorAmps  = 120.0
)

// System models the battery and alternator. Voltage eases between resting
// and charging levels depending on whether the alternator is spinning fast
// enough to carry the load.
type System struct {
	voltage float64
}

// New returns an electrical system at resting voltage.
func New() *System {
	return &System{voltage: restingVoltage}
}

// Voltage returns the current battery voltage.
func (s *System) Voltage() float64 {
	return s.voltage
}

// AlternatorOutput returns alternator current in amps for the operating
// point. Zero below the cut-in RPM.
func (s *System) AlternatorOutput(rpm, loadPercent float64) float64 {
	if rpm <= alternatorCutInRPM {
		return 0
	}
	spin := (rpm - alternatorCutInRPM) / 2500.0
	if spin > 1 {
		spin = 1
	}
	demand := 0.3 + 0.7*loadPercent/100
	return maxAlternatorAmps * spin * demand
}

// Advance updates the battery voltage for dt seconds at the operating point
// and returns the new voltage together with the alternator output.
func (s *System) Advance(rpm, loadPercent, dt float64) (voltage, alternatorAmps float64) {
	amps := s.AlternatorOutput(rpm, loadPercent)

	target := restingVoltage
	if amps > 0 {
		target = chargingVoltage
		// heavy accessory load drags the bus down a touch
		target -= loadPercent / 100 * 0.3
	}

	k := 0.5 * dt
	if k > 1 {
		k = 1
	}
	s.voltage += (target - s.voltage) * k

	if s.voltage < MinVoltage {
		s.voltage = MinVoltage
	}
	if s.voltage > MaxVoltage {
		s.voltage = MaxVoltage
	}
	return s.voltage, amps
}
