package thermal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCouplingBandsHoldUnderLoadSwings(t *testing.T) {
	m := New()
	s := InitialState(20)

	// alternate hard load and coastdown, checking the cross-channel bands
	// every step
	inputs := []Inputs{
		{Load: 95, Speed: 30, Brake: 0, Ambient: 20},
		{Load: 0, Speed: 120, Brake: 0.8, Ambient: 20},
		{Load: 60, Speed: 90, Brake: 0, Ambient: 20, BoostBar: 1.2},
		{Load: 10, Speed: 0, Brake: 0, Ambient: 20},
	}

	const dt = 0.05
	for phase, in := range inputs {
		for i := 0; i < 6000; i++ { // 5 minutes per phase
			s = m.Advance(s, in, dt)

			assert.LessOrEqual(t, math.Abs(s.Coolant-s.Engine), 5.0, "phase %d tick %d", phase, i)
			assert.LessOrEqual(t, math.Abs(s.Oil-s.Engine), 10.0, "phase %d tick %d", phase, i)
			assert.GreaterOrEqual(t, s.Exhaust, s.Engine, "phase %d tick %d", phase, i)
			assert.GreaterOrEqual(t, s.BrakeFront, s.BrakeRear, "phase %d tick %d", phase, i)

			assert.GreaterOrEqual(t, s.Engine, MinEngineTemp)
			assert.LessOrEqual(t, s.Engine, MaxEngineTemp)
			assert.GreaterOrEqual(t, s.BrakeFront, MinBrakeTemp)
			assert.LessOrEqual(t, s.BrakeFront, MaxBrakeTemp)
			assert.GreaterOrEqual(t, s.BrakeRear, MinBrakeTemp)
			assert.LessOrEqual(t, s.BrakeRear, MaxBrakeTemp)
		}
	}
}

func TestEngineWarmsUnderLoad(t *testing.T) {
	m := New()
	s := InitialState(20)
	start := s.Engine

	for i := 0; i < 6000; i++ {
		s = m.Advance(s, Inputs{Load: 100, Speed: 20, Ambient: 20}, 0.05)
	}
	assert.Greater(t, s.Engine, start)
}

func TestBrakesHeatThenCool(t *testing.T) {
	m := New()
	s := InitialState(20)

	for i := 0; i < 2000; i++ {
		s = m.Advance(s, Inputs{Load: 0, Speed: 130, Brake: 1, Ambient: 20}, 0.05)
	}
	hot := s.BrakeFront
	assert.Greater(t, hot, 100.0)

	for i := 0; i < 6000; i++ {
		s = m.Advance(s, Inputs{Load: 10, Speed: 60, Brake: 0, Ambient: 20}, 0.05)
	}
	assert.Less(t, s.BrakeFront, hot)
}

func TestIntakeAirFollowsBoost(t *testing.T) {
	m := New()
	s := InitialState(20)

	for i := 0; i < 2000; i++ {
		s = m.Advance(s, Inputs{Load: 80, Speed: 100, Ambient: 20, BoostBar: 1.5}, 0.05)
	}
	assert.Greater(t, s.IntakeAir, 40.0)
}

func TestLargeDtStaysStable(t *testing.T) {
	m := New()
	s := InitialState(20)

	// a stalled loop delivering a huge dt must not overshoot past the target
	s = m.Advance(s, Inputs{Load: 100, Speed: 0, Ambient: 20}, 600)
	assert.LessOrEqual(t, s.Engine, MaxEngineTemp)
	assert.LessOrEqual(t, math.Abs(s.Coolant-s.Engine), 5.0)
	assert.LessOrEqual(t, math.Abs(s.Oil-s.Engine), 10.0)
}
