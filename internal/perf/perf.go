package perf

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is how many tick durations the rolling statistics cover.
const DefaultWindow = 256

// DefaultGoodThresholdMs is the rolling-average budget for a 50ms tick.
const DefaultGoodThresholdMs = 5.0

// State is one reading of the rolling statistics.
type State struct {
	AverageMs float64
	MinMs     float64
	MaxMs     float64
	Ticks     uint64
	Good      bool
}

// Monitor keeps a bounded ring of tick durations and derives rolling
// statistics from it. Safe for concurrent use; the tick loop records, the
// status goroutine reads.
type Monitor struct {
	mu          sync.Mutex
	window      []float64 // milliseconds
	next        int
	filled      bool
	ticks       uint64
	thresholdMs float64
}

// New returns a monitor with the given window size and "performance is
// acceptable" threshold in milliseconds. Non-positive arguments fall back to
// the defaults.
func New(windowSize int, thresholdMs float64) *Monitor {
	if windowSize <= 0 {
		windowSize = DefaultWindow
	}
	if thresholdMs <= 0 {
		thresholdMs = DefaultGoodThresholdMs
	}
	return &Monitor{
		window:      make([]float64, windowSize),
		thresholdMs: thresholdMs,
	}
}

// Record appends one tick duration to the rolling window.
func (m *Monitor) Record(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.window[m.next] = ms
	m.next++
	if m.next == len(m.window) {
		m.next = 0
		m.filled = true
	}
	m.ticks++
}

// State returns the rolling statistics. Before any tick is recorded all
// figures are zero and Good is true.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	samples := m.window
	if !m.filled {
		samples = m.window[:m.next]
	}
	if len(samples) == 0 {
		return State{Good: true}
	}

	avg := stat.Mean(samples, nil)
	return State{
		AverageMs: avg,
		MinMs:     floats.Min(samples),
		MaxMs:     floats.Max(samples),
		Ticks:     m.ticks,
		Good:      avg < m.thresholdMs,
	}
}
