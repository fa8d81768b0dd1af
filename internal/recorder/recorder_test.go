package recorder

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendash/cansim/internal/config"
	"github.com/opendash/cansim/internal/engine"
	"github.com/opendash/cansim/internal/geo"
	"github.com/opendash/cansim/internal/perf"
	"github.com/opendash/cansim/internal/sim"
	"github.com/opendash/cansim/internal/transmission"
	"github.com/opendash/cansim/pkg/telemetry"
)

type countingBackend struct {
	mu        sync.Mutex
	snapshots int
	perf      int
	lastTick  uint64
}

func (b *countingBackend) Init() error                             { return nil }
func (b *countingBackend) Close() error                            { return nil }
func (b *countingBackend) BeginSession(s *telemetry.Session) error { return nil }
func (b *countingBackend) EndSession() error                       { return nil }

func (b *countingBackend) RecordPerfSample(p *perf.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.perf++
	return nil
}

func (b *countingBackend) RecordSnapshot(s *telemetry.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots++
	b.lastTick = s.Tick
	return nil
}

func (b *countingBackend) counts() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshots, b.perf
}

func newTestSim(t *testing.T) *sim.Simulator {
	t.Helper()

	eng, err := engine.New(config.EngineConfig{
		DisplacementL: 2.0, Cylinders: 4, CompressionRatio: 10.5, Turbo: true,
	})
	require.NoError(t, err)
	trans, err := transmission.New(config.TransmissionConfig{Type: transmission.TypeAutomatic, MaxGears: 6})
	require.NoError(t, err)

	route, err := geo.NewRoute(config.RouteConfig{
		OriginLat: 52.52, OriginLon: 13.405, RadiusKm: 2.5,
	})
	require.NoError(t, err)

	s, err := sim.New(sim.Options{
		Engine:       eng,
		Transmission: trans,
		Route:        route,
		TickInterval: 2 * time.Millisecond,
		Seed:         7,
	})
	require.NoError(t, err)
	return s
}

func TestForwardsSnapshotsAndPerfSamples(t *testing.T) {
	s := newTestSim(t)
	backend := &countingBackend{}
	rec := New(s, backend, nil, "test-vehicle", nil)

	rec.Start()
	require.NoError(t, s.Start())

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snaps, _ := backend.counts()
		if snaps >= perfSampleEvery*2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.Stop()
	rec.Stop()

	snaps, perfSamples := backend.counts()
	require.GreaterOrEqual(t, snaps, perfSampleEvery*2)
	assert.GreaterOrEqual(t, perfSamples, 2)
	assert.Greater(t, backend.lastTick, uint64(0))
}

func TestStopWithoutStart(t *testing.T) {
	s := newTestSim(t)
	rec := New(s, &countingBackend{}, nil, "test-vehicle", nil)
	rec.Stop() // must not panic or block
}

func TestStartAfterSimulatorClosed(t *testing.T) {
	s := newTestSim(t)
	require.NoError(t, s.Start())
	s.Stop()

	backend := &countingBackend{}
	rec := New(s, backend, nil, "test-vehicle", nil)
	rec.Start()
	rec.Stop()

	snaps, _ := backend.counts()
	assert.Zero(t, snaps)
}
