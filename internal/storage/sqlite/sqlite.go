// Package sqlite persists session history through gorm, preferring Postgres
// and falling back to in-memory SQLite with periodic disk dumps. Snapshots
// are queued and flushed in batches so the tick loop never waits on the
// database.
package sqlite

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/opendash/cansim/internal/database"
	"github.com/opendash/cansim/internal/geo"
	"github.com/opendash/cansim/internal/model"
	"github.com/opendash/cansim/internal/perf"
	"github.com/opendash/cansim/internal/queue"
	"github.com/opendash/cansim/pkg/telemetry"
)

const flushInterval = time.Second

// Config holds the relational backend settings.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string
}

// Backend implements storage.Backend on top of the database manager.
type Backend struct {
	cfg Config
	db  *database.Manager
	log *slog.Logger

	snapshots *queue.Queue[model.SnapshotRecord]
	perf      *queue.Queue[model.PerfRecord]

	mu        sync.Mutex
	sessionID uint
	track     []geo.Waypoint

	lastWrite atomic.Int64 // nanoseconds

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// New creates the relational backend. The zerolog logger feeds the database
// manager; slog covers everything else.
func New(cfg Config, dbLog zerolog.Logger, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		cfg:       cfg,
		db:        database.NewManager(dbLog),
		log:       log,
		snapshots: queue.New[model.SnapshotRecord](4096),
		perf:      queue.New[model.PerfRecord](256),
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Init connects, migrates the schema and starts the flush loop.
func (b *Backend) Init() error {
	if err := b.db.Connect(); err != nil {
		return fmt.Errorf("database connect failed: %w", err)
	}
	if err := b.db.Setup(); err != nil {
		return fmt.Errorf("database setup failed: %w", err)
	}
	if b.db.ShouldSaveLocal {
		b.db.SqliteFilePath = b.cfg.DumpPath
	}

	go b.flushLoop()
	return nil
}

// Close drains the queues and shuts the connection down.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() {
		close(b.stopChan)
		<-b.doneChan
	})

	b.flush()
	if b.db.ShouldSaveLocal && b.db.SqliteFilePath != "" {
		if err := b.db.DumpMemoryToDisk(); err != nil {
			b.log.Error("Final database dump failed", "error", err)
		}
	}
	if b.db.SqlDB != nil {
		return b.db.SqlDB.Close()
	}
	return nil
}

// BeginSession inserts the session row and assigns its ID back.
func (b *Backend) BeginSession(s *telemetry.Session) error {
	row := model.FromSession(*s)
	if err := b.db.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	s.ID = row.ID

	b.mu.Lock()
	b.sessionID = row.ID
	b.track = nil
	b.mu.Unlock()

	b.log.Info("Session started", "sessionId", row.ID, "profile", s.Profile)
	return nil
}

// EndSession flushes pending rows and stores the driven track on the
// session.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	sessionID := b.sessionID
	track := b.track
	b.sessionID = 0
	b.track = nil
	b.mu.Unlock()

	if sessionID == 0 {
		return fmt.Errorf("no session in progress")
	}

	b.flush()

	if wkt, err := geo.TrackWKT(track); err == nil {
		if err := b.db.DB.Model(&model.Session{}).
			Where("id = ?", sessionID).
			Update("track_wkt", wkt).Error; err != nil {
			return fmt.Errorf("failed to store track: %w", err)
		}
	}

	if b.db.ShouldSaveLocal && b.db.SqliteFilePath != "" {
		return b.db.DumpMemoryToDisk()
	}
	return nil
}

// RecordSnapshot queues one tick for the next batch write.
func (b *Backend) RecordSnapshot(s *telemetry.Snapshot) error {
	b.mu.Lock()
	sessionID := b.sessionID
	if sessionID != 0 && (s.Latitude != 0 || s.Longitude != 0) {
		if n := len(b.track); n == 0 ||
			b.track[n-1].Lat != s.Latitude || b.track[n-1].Lon != s.Longitude {
			b.track = append(b.track, geo.Waypoint{Lat: s.Latitude, Lon: s.Longitude})
		}
	}
	b.mu.Unlock()

	if sessionID == 0 {
		return fmt.Errorf("no session in progress")
	}

	row, err := model.FromSnapshot(*s, sessionID, s.Time)
	if err != nil {
		return err
	}
	b.snapshots.Push(row)
	return nil
}

// RecordPerfSample queues one performance reading.
func (b *Backend) RecordPerfSample(p *perf.State) error {
	b.mu.Lock()
	sessionID := b.sessionID
	b.mu.Unlock()

	if sessionID == 0 {
		return fmt.Errorf("no session in progress")
	}

	b.perf.Push(model.PerfRecord{
		Time:          time.Now().UTC(),
		SessionID:     sessionID,
		AverageMs:     p.AverageMs,
		MinMs:         p.MinMs,
		MaxMs:         p.MaxMs,
		Ticks:         p.Ticks,
		Good:          p.Good,
		WriteQueueLen: b.snapshots.Len(),
	})
	return nil
}

// WriteQueueLen returns the number of snapshots waiting for the next batch.
func (b *Backend) WriteQueueLen() int {
	return b.snapshots.Len()
}

// LastWriteDuration returns how long the most recent batch write took.
func (b *Backend) LastWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

// Database exposes the underlying connection manager for status reporting.
func (b *Backend) Database() *database.Manager {
	return b.db
}

func (b *Backend) flushLoop() {
	defer close(b.doneChan)

	flushTicker := time.NewTicker(flushInterval)
	defer flushTicker.Stop()

	dumpInterval := b.cfg.DumpInterval
	if dumpInterval <= 0 {
		dumpInterval = 3 * time.Minute
	}
	dumpTicker := time.NewTicker(dumpInterval)
	defer dumpTicker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-flushTicker.C:
			b.flush()
		case <-dumpTicker.C:
			if b.db.ShouldSaveLocal && b.db.SqliteFilePath != "" {
				if err := b.db.DumpMemoryToDisk(); err != nil {
					b.log.Error("Periodic database dump failed", "error", err)
				}
			}
		}
	}
}

func (b *Backend) flush() {
	start := time.Now()

	if rows := b.snapshots.Drain(); len(rows) > 0 {
		if err := b.db.DB.Create(&rows).Error; err != nil {
			b.log.Error("Snapshot batch write failed", "rows", len(rows), "error", err)
		}
	}
	if rows := b.perf.Drain(); len(rows) > 0 {
		if err := b.db.DB.Create(&rows).Error; err != nil {
			b.log.Error("Perf batch write failed", "rows", len(rows), "error", err)
		}
	}

	b.lastWrite.Store(int64(time.Since(start)))
}
