package fuel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelMonotoneWithoutRefuel(t *testing.T) {
	s := New(75)
	prev := s.Level()
	for i := 0; i < 10000; i++ {
		s.Consume(3000, 60, 90, 0.05)
		assert.LessOrEqual(t, s.Level(), prev)
		prev = s.Level()
	}
	assert.Less(t, s.Level(), 75.0)
}

func TestWarningBelowThreshold(t *testing.T) {
	s := New(26)
	assert.False(t, s.Warning())

	// 200 one-second ticks at high load
	for i := 0; i < 200 && !s.Warning(); i++ {
		s.Consume(4000, 90, 110, 1)
	}
	assert.True(t, s.Warning())
	assert.Less(t, s.Level(), 25.0)
}

func TestLevelNeverNegative(t *testing.T) {
	s := New(0.01)
	for i := 0; i < 1000; i++ {
		s.Consume(8000, 100, 250, 10)
	}
	assert.GreaterOrEqual(t, s.Level(), 0.0)
}

func TestConsumptionScalesWithLoad(t *testing.T) {
	s := New(50)
	assert.Greater(t, s.Consumption(3000, 90, 100), s.Consumption(3000, 20, 100))
	assert.Greater(t, s.Consumption(6000, 50, 100), s.Consumption(1500, 50, 100))
}

func TestRefuel(t *testing.T) {
	s := New(10)
	s.Refuel(40)
	assert.InDelta(t, 50, s.Level(), 1e-9)

	s.Refuel(80)
	assert.Equal(t, 100.0, s.Level())

	s.Refuel(-5) // ignored
	assert.Equal(t, 100.0, s.Level())
}

func TestPressureSagsWhenNearlyEmpty(t *testing.T) {
	full := New(80)
	low := New(2)
	assert.Greater(t, full.Pressure(), low.Pressure())
}

func TestRailPressureBounds(t *testing.T) {
	s := New(50)
	idle := s.RailPressure(800, 0)
	max := s.RailPressure(8000, 100)
	assert.InDelta(t, railIdleBar, idle, 1e-9)
	assert.InDelta(t, railMaxBar, max, 1e-9)
	assert.Greater(t, s.RailPressure(4000, 70), idle)
}
