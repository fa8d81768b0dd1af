package transmission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendash/cansim/internal/config"
)

func newLogic(t *testing.T, transType string, maxGears int) *Logic {
	t.Helper()
	l, err := New(config.TransmissionConfig{Type: transType, MaxGears: maxGears})
	require.NoError(t, err)
	return l
}

func TestNewValidation(t *testing.T) {
	_, err := New(config.TransmissionConfig{Type: "sequential", MaxGears: 6})
	assert.Error(t, err)

	_, err = New(config.TransmissionConfig{Type: TypeAutomatic, MaxGears: 0})
	assert.Error(t, err)

	_, err = New(config.TransmissionConfig{Type: TypeAutomatic, MaxGears: 9})
	assert.Error(t, err)
}

func TestOptimalGearStandstill(t *testing.T) {
	l := newLogic(t, TypeAutomatic, 6)
	assert.Equal(t, 0, l.OptimalGear(0, 800, 0, 0, false))
	assert.Equal(t, 0, l.OptimalGear(0.3, 800, 0.5, 1, false))
}

func TestOptimalGearMonotoneInSpeed(t *testing.T) {
	l := newLogic(t, TypeAutomatic, 6)
	prev := 0
	for speed := 1.0; speed <= 250; speed += 1 {
		gear := l.OptimalGear(speed, 3000, 0.5, prev, false)
		assert.GreaterOrEqual(t, gear, prev, "speed %.0f", speed)
		assert.LessOrEqual(t, gear, 6)
		prev = gear
	}
	assert.Equal(t, 6, prev)
}

func TestOptimalGearRespectsMaxGears(t *testing.T) {
	l := newLogic(t, TypeAutomatic, 4)
	assert.Equal(t, 4, l.OptimalGear(200, 3000, 0.5, 4, false))
}

func TestOptimalGearKickdown(t *testing.T) {
	l := newLogic(t, TypeAutomatic, 6)
	normal := l.OptimalGear(70, 3000, 0.9, 4, false)
	kicked := l.OptimalGear(70, 3000, 0.9, 4, true)
	assert.Equal(t, normal-1, kicked)
}

func TestShiftDurationTable(t *testing.T) {
	tests := []struct {
		transType string
		want      time.Duration
	}{
		{TypeManual, 300 * time.Millisecond},
		{TypeAutomatic, 400 * time.Millisecond},
		{TypeDualClutch, 150 * time.Millisecond},
		{TypeCVT, 0},
	}
	for _, tt := range tests {
		t.Run(tt.transType, func(t *testing.T) {
			l := newLogic(t, tt.transType, 6)
			assert.Equal(t, tt.want, l.ShiftDuration(3))
		})
	}
}

func TestTemperatureBounded(t *testing.T) {
	l := newLogic(t, TypeAutomatic, 6)

	temp := 90.0
	for i := 0; i < 1000; i++ {
		temp = l.Temperature(8000, temp, 1)
		assert.GreaterOrEqual(t, temp, MinTemp)
		assert.LessOrEqual(t, temp, MaxTemp)
	}
	// sustained full load runs hot
	assert.Greater(t, temp, 110.0)

	for i := 0; i < 1000; i++ {
		temp = l.Temperature(800, temp, 0)
		assert.GreaterOrEqual(t, temp, MinTemp)
	}
	// cools back toward the floor
	assert.Less(t, temp, 90.0)
}

func TestGearLabel(t *testing.T) {
	assert.Equal(t, "N", GearLabel(0))
	assert.Equal(t, "3", GearLabel(3))
}
