// Package memory buffers a recording session in process memory and exports
// it to a JSON file when the session ends.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/opendash/cansim/internal/config"
	"github.com/opendash/cansim/internal/perf"
	"github.com/opendash/cansim/pkg/telemetry"
)

// Backend keeps the session's snapshots in memory, bounded by MaxSnapshots.
// When the bound is hit the oldest snapshots are discarded, so an export
// always holds the most recent window of the drive.
type Backend struct {
	cfg config.MemoryConfig

	mu          sync.RWMutex
	session     *telemetry.Session
	snapshots   []telemetry.Snapshot
	perfSamples []perf.State

	lastExportPath string
	lastExportMeta telemetry.UploadMetadata
}

// New creates a memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// BeginSession resets the buffers and starts recording for the session.
func (b *Backend) BeginSession(s *telemetry.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.snapshots = nil
	b.perfSamples = nil
	return nil
}

// EndSession exports the buffered recording and clears the session.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return fmt.Errorf("no session in progress")
	}

	if err := b.export(); err != nil {
		return err
	}
	b.session = nil
	return nil
}

// RecordSnapshot appends one tick to the buffer.
func (b *Backend) RecordSnapshot(s *telemetry.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return fmt.Errorf("no session in progress")
	}

	if b.cfg.MaxSnapshots > 0 && len(b.snapshots) >= b.cfg.MaxSnapshots {
		b.snapshots = b.snapshots[1:]
	}
	b.snapshots = append(b.snapshots, *s)
	return nil
}

// RecordPerfSample appends one performance reading.
func (b *Backend) RecordPerfSample(p *perf.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return fmt.Errorf("no session in progress")
	}
	b.perfSamples = append(b.perfSamples, *p)
	return nil
}

// SnapshotCount returns how many snapshots are currently buffered.
func (b *Backend) SnapshotCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.snapshots)
}

// ExportedFilePath returns the path of the last exported recording.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// ExportMetadata returns metadata describing the last exported recording.
func (b *Backend) ExportMetadata() telemetry.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMeta
}

func (b *Backend) duration() time.Duration {
	if len(b.snapshots) < 2 {
		return 0
	}
	return b.snapshots[len(b.snapshots)-1].Time.Sub(b.snapshots[0].Time)
}
