// Package session tracks the active recording session shared between the
// simulator, the storage backends and the status monitor.
package session

import (
	"sync"
	"time"

	"github.com/opendash/cansim/pkg/telemetry"
)

// Context holds the current session. Zero session means nothing is being
// recorded yet.
type Context struct {
	mu      sync.RWMutex
	session *telemetry.Session
}

// NewContext creates a Context with a placeholder session.
func NewContext() *Context {
	return &Context{
		session: &telemetry.Session{Profile: "no session"},
	}
}

// Get returns the current session.
func (c *Context) Get() *telemetry.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Active reports whether a real session has been started.
func (c *Context) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil && !c.session.StartTime.IsZero()
}

// Begin installs a new session for the given vehicle and tick rate and
// returns it.
func (c *Context) Begin(profile, vehicleID string, tickRate float64) *telemetry.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &telemetry.Session{
		Profile:   profile,
		VehicleID: vehicleID,
		StartTime: time.Now().UTC(),
		TickRate:  tickRate,
	}
	return c.session
}

// Set replaces the current session, e.g. after a storage backend assigned
// its persistent ID.
func (c *Context) Set(s *telemetry.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}
