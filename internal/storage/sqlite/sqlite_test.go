package sqlite

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendash/cansim/internal/model"
	"github.com/opendash/cansim/internal/perf"
	"github.com/opendash/cansim/pkg/telemetry"
)

// newTestBackend falls back to the in-memory SQLite database since no
// Postgres is reachable in tests.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	b := New(Config{
		DumpInterval: time.Hour,
		DumpPath:     filepath.Join(t.TempDir(), "history.db"),
	}, zerolog.Nop(), slog.Default())
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	require.True(t, b.db.ShouldSaveLocal)
	return b
}

func TestBeginSessionAssignsID(t *testing.T) {
	b := newTestBackend(t)

	session := &telemetry.Session{
		Profile:   "test drive",
		VehicleID: "SIM-1",
		StartTime: time.Now().UTC(),
		TickRate:  20,
	}
	require.NoError(t, b.BeginSession(session))
	assert.NotZero(t, session.ID)
}

func TestRecordRequiresSession(t *testing.T) {
	b := newTestBackend(t)

	snap := telemetry.NewSnapshot(1000, 20)
	assert.Error(t, b.RecordSnapshot(&snap))
	assert.Error(t, b.RecordPerfSample(&perf.State{}))
	assert.Error(t, b.EndSession())
}

func TestSnapshotsFlushInBatches(t *testing.T) {
	b := newTestBackend(t)

	session := &telemetry.Session{Profile: "batch", StartTime: time.Now().UTC(), TickRate: 20}
	require.NoError(t, b.BeginSession(session))

	for i := 0; i < 50; i++ {
		snap := telemetry.NewSnapshot(1000, 20)
		snap.Tick = uint64(i + 1)
		snap.Time = time.Now().UTC()
		require.NoError(t, b.RecordSnapshot(&snap))
	}
	require.NoError(t, b.RecordPerfSample(&perf.State{AverageMs: 0.8, Good: true}))

	assert.Equal(t, 50, b.WriteQueueLen())
	b.flush()
	assert.Zero(t, b.WriteQueueLen())

	var count int64
	require.NoError(t, b.db.DB.Model(&model.SnapshotRecord{}).
		Where("session_id = ?", session.ID).Count(&count).Error)
	assert.EqualValues(t, 50, count)

	require.NoError(t, b.db.DB.Model(&model.PerfRecord{}).
		Where("session_id = ?", session.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	assert.Greater(t, b.LastWriteDuration(), time.Duration(0))
}

func TestEndSessionStoresTrack(t *testing.T) {
	b := newTestBackend(t)

	session := &telemetry.Session{Profile: "track", StartTime: time.Now().UTC(), TickRate: 20}
	require.NoError(t, b.BeginSession(session))

	for i := 0; i < 5; i++ {
		snap := telemetry.NewSnapshot(1000, 20)
		snap.Time = time.Now().UTC()
		snap.Latitude = 52.52 + float64(i)*0.001
		snap.Longitude = 13.405
		require.NoError(t, b.RecordSnapshot(&snap))
	}
	require.NoError(t, b.EndSession())

	var row model.Session
	require.NoError(t, b.db.DB.First(&row, session.ID).Error)
	assert.Contains(t, row.TrackWKT, "LINESTRING")
}
