package scenario

import "fmt"

// Phase is one segment of the scripted driving cycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseAccelerate Phase = "accelerate"
	PhaseCruise     Phase = "cruise"
	PhaseBrake      Phase = "brake"
)

type segment struct {
	phase       Phase
	duration    float64 // seconds
	targetSpeed float64 // km/h
}

// The free-running cycle: idle at a light, pull away, hold a cruise, brake
// back to a stop. Loops forever.
var schedule = []segment{
	{PhaseIdle, 10, 0},
	{PhaseAccelerate, 25, 90},
	{PhaseCruise, 40, 90},
	{PhaseBrake, 15, 0},
}

// Script is the self-driving scenario clock. Advance moves the clock and
// reports the active phase and its target speed; Force jumps to the start of
// a named phase.
type Script struct {
	clock float64
	cycle float64
}

// NewScript returns a script positioned at the start of the idle phase.
func NewScript() *Script {
	var total float64
	for _, seg := range schedule {
		total += seg.duration
	}
	return &Script{cycle: total}
}

// Advance moves the scenario clock by dt seconds and returns the phase now
// active and its target speed.
func (s *Script) Advance(dt float64) (Phase, float64) {
	s.clock += dt
	for s.clock >= s.cycle {
		s.clock -= s.cycle
	}
	seg := s.segmentAt(s.clock)
	return seg.phase, seg.targetSpeed
}

// Phase returns the currently active phase without advancing the clock.
func (s *Script) Phase() Phase {
	return s.segmentAt(s.clock).phase
}

// Force jumps the clock to the start of the named phase. Unknown phases are
// rejected.
func (s *Script) Force(phase Phase) error {
	var offset float64
	for _, seg := range schedule {
		if seg.phase == phase {
			s.clock = offset
			return nil
		}
		offset += seg.duration
	}
	return fmt.Errorf("unknown driving phase %q", phase)
}

func (s *Script) segmentAt(clock float64) segment {
	var offset float64
	for _, seg := range schedule {
		if clock < offset+seg.duration {
			return seg
		}
		offset += seg.duration
	}
	return schedule[0]
}

// Control is the proportional driver: it converts the gap between target and
// actual speed into throttle and brake demands in [0,1]. Throttle tops out
// at 0.8 so the script never pins the pedal.
func Control(targetSpeed, speed float64) (throttle, brake float64) {
	diff := targetSpeed - speed
	if diff > 0 {
		throttle = diff * 0.05
		if throttle > 0.8 {
			throttle = 0.8
		}
		return throttle, 0
	}
	brake = -diff * 0.08
	if brake > 1 {
		brake = 1
	}
	// small deadband so cruise doesn't ride the brakes
	if brake < 0.04 {
		brake = 0
	}
	return 0, brake
}
