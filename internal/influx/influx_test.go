package influx

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendash/cansim/internal/perf"
	"github.com/opendash/cansim/pkg/telemetry"
)

func TestSnapshotPoint(t *testing.T) {
	snap := telemetry.NewSnapshot(125847.5, 20)
	snap.Speed = 88.5
	snap.Latitude = 52.52
	snap.Longitude = 13.405

	point := SnapshotPoint(&snap, "SIM-1")
	assert.Equal(t, "snapshot", point.Name())

	tags := map[string]string{}
	for _, tag := range point.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, "SIM-1", tags["vehicle"])
	assert.Equal(t, telemetry.GearPark, tags["gear"])

	fields := map[string]any{}
	for _, field := range point.FieldList() {
		fields[field.Key] = field.Value
	}
	assert.Equal(t, 88.5, fields[telemetry.ChanSpeed])
	require.Contains(t, fields, "position_x")
	require.Contains(t, fields, "position_y")
	assert.NotZero(t, fields["position_x"])

	// strings ride as tags, not duplicated into fields
	assert.NotContains(t, fields, telemetry.ChanGear)
}

func TestWriteSnapshotFallsBackToBackupWriter(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(zerolog.Nop(), "")
	m.BackupWriter = gzip.NewWriter(&buf)

	snap := telemetry.NewSnapshot(0, 20)
	snap.Speed = 42

	require.NoError(t, m.WriteSnapshot(&snap, "SIM-1"))
	require.NoError(t, m.BackupWriter.Close())

	gr, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	line, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Contains(t, string(line), "snapshot,")
	assert.Contains(t, string(line), "vehicle=SIM-1")
}

func TestWritePointWithoutClientOrBackup(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	snap := telemetry.NewSnapshot(0, 20)
	assert.Error(t, m.WriteSnapshot(&snap, "SIM-1"))
}

func TestPerfPoint(t *testing.T) {
	point := PerfPoint(&perf.State{AverageMs: 1.25, MaxMs: 4, Ticks: 1200, Good: true}, "SIM-1")
	assert.Equal(t, "tick_perf", point.Name())

	fields := map[string]any{}
	for _, field := range point.FieldList() {
		fields[field.Key] = field.Value
	}
	assert.Equal(t, 1.25, fields["average_ms"])
	assert.Equal(t, int64(1200), fields["ticks"])
	assert.Equal(t, true, fields["good"])
}
