// Package monitor runs the background status goroutine: once a second it
// snapshots the tick-loop health, writes it to a status file and records it
// with the session history.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/opendash/cansim/internal/logging"
	"github.com/opendash/cansim/internal/model"
	"github.com/opendash/cansim/internal/session"
	"github.com/opendash/cansim/internal/sim"
	"github.com/opendash/cansim/internal/storage"
)

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	DB              *gorm.DB
	LogManager      *logging.SlogManager
	Session         *session.Context
	Sim             *sim.Simulator
	Backend         storage.Backend
	StatusDir       string
	IsDatabaseValid func() bool
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status captures one reading of the simulator's health.
type Status struct {
	Time          time.Time `json:"time"`
	Profile       string    `json:"profile"`
	TickAverageMs float64   `json:"tickAverageMs"`
	TickMaxMs     float64   `json:"tickMaxMs"`
	Ticks         uint64    `json:"ticks"`
	Good          bool      `json:"good"`
	Observers     int       `json:"observers"`
	DroppedFrames uint64    `json:"droppedFrames"`
	WriteQueueLen int       `json:"writeQueueLen"`
}

// GetProgramStatus returns the current status as printable JSON lines plus
// its database row.
func (s *Service) GetProgramStatus() (output []string, record model.PerfRecord) {
	perfState := s.deps.Sim.Perf()

	queueLen := 0
	if q, ok := s.deps.Backend.(storage.QueueLenProvider); ok {
		queueLen = q.WriteQueueLen()
	}

	status := Status{
		Time:          time.Now().UTC(),
		Profile:       s.deps.Session.Get().Profile,
		TickAverageMs: perfState.AverageMs,
		TickMaxMs:     perfState.MaxMs,
		Ticks:         perfState.Ticks,
		Good:          perfState.Good,
		Observers:     s.deps.Sim.Observers(),
		DroppedFrames: s.deps.Sim.DroppedFrames(),
		WriteQueueLen: queueLen,
	}

	record = model.PerfRecord{
		Time:          status.Time,
		SessionID:     s.deps.Session.Get().ID,
		AverageMs:     perfState.AverageMs,
		MinMs:         perfState.MinMs,
		MaxMs:         perfState.MaxMs,
		Ticks:         perfState.Ticks,
		Good:          perfState.Good,
		WriteQueueLen: queueLen,
		ObserverCount: status.Observers,
		DroppedFrames: status.DroppedFrames,
	}

	statusStr, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		statusStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(statusStr))

	return output, record
}

// Start starts the status monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine")

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer statusFile.Close()

		for {
			select {
			case <-stop:
				return
			default:
				time.Sleep(1000 * time.Millisecond)

				if !s.deps.Session.Active() {
					continue
				}

				statusStr, record := s.GetProgramStatus()

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					for _, line := range statusStr {
						statusFile.WriteString(line + "\n")
					}
				}

				if s.deps.IsDatabaseValid != nil && s.deps.IsDatabaseValid() {
					if err := s.deps.DB.Create(&record).Error; err != nil {
						logger.Error("Error writing perf record", "error", err)
					}
				}

				if !record.Good {
					logger.Warn("Tick loop over budget",
						"averageMs", record.AverageMs,
						"maxMs", record.MaxMs)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
		s.isRunning = false
	}
}
