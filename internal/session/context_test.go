package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextDefaults(t *testing.T) {
	c := NewContext()
	assert.False(t, c.Active())
	assert.Equal(t, "no session", c.Get().Profile)
}

func TestBegin(t *testing.T) {
	c := NewContext()
	s := c.Begin("city-loop", "SIM-1", 20)

	assert.True(t, c.Active())
	assert.Equal(t, s, c.Get())
	assert.Equal(t, "SIM-1", s.VehicleID)
	assert.Equal(t, 20.0, s.TickRate)
	assert.False(t, s.StartTime.IsZero())
}

func TestSetReplacesSession(t *testing.T) {
	c := NewContext()
	c.Begin("city-loop", "SIM-1", 20)

	updated := *c.Get()
	updated.ID = 42
	c.Set(&updated)

	assert.Equal(t, uint(42), c.Get().ID)
}
