package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptCoversAllPhases(t *testing.T) {
	s := NewScript()

	seen := map[Phase]bool{}
	for i := 0; i < 2000; i++ { // 100s at 50ms
		phase, _ := s.Advance(0.05)
		seen[phase] = true
	}

	for _, phase := range []Phase{PhaseIdle, PhaseAccelerate, PhaseCruise, PhaseBrake} {
		assert.True(t, seen[phase], "phase %s never scheduled", phase)
	}
}

func TestScriptCycles(t *testing.T) {
	s := NewScript()
	assert.Equal(t, PhaseIdle, s.Phase())

	// one full cycle lands back in idle
	s.Advance(90)
	assert.Equal(t, PhaseIdle, s.Phase())
}

func TestForce(t *testing.T) {
	s := NewScript()
	require.NoError(t, s.Force(PhaseCruise))
	assert.Equal(t, PhaseCruise, s.Phase())

	_, target := s.Advance(0.05)
	assert.Equal(t, 90.0, target)

	assert.Error(t, s.Force(Phase("drift")))
}

func TestControlProportional(t *testing.T) {
	throttle, brake := Control(90, 30)
	assert.Greater(t, throttle, 0.0)
	assert.LessOrEqual(t, throttle, 0.8)
	assert.Zero(t, brake)

	throttle, brake = Control(0, 80)
	assert.Zero(t, throttle)
	assert.Greater(t, brake, 0.0)
	assert.LessOrEqual(t, brake, 1.0)

	// near-zero gap coasts
	throttle, brake = Control(90, 90.2)
	assert.Zero(t, throttle)
	assert.Zero(t, brake)
}
