// Package control wires the external command surface to the simulator,
// session state and storage backend.
package control

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/opendash/cansim/internal/api"
	"github.com/opendash/cansim/internal/dispatcher"
	"github.com/opendash/cansim/internal/logging"
	"github.com/opendash/cansim/internal/session"
	"github.com/opendash/cansim/internal/sim"
	"github.com/opendash/cansim/internal/storage"
	"github.com/opendash/cansim/pkg/telemetry"
)

// Dependencies holds everything the command handlers touch.
type Dependencies struct {
	Sim        *sim.Simulator
	Session    *session.Context
	Backend    storage.Backend
	LogManager *logging.SlogManager
	Uploader   *api.Client // nil when no upload server is configured
	VehicleID  string
	TickRate   float64
}

// Service provides handler methods for the control commands.
type Service struct {
	deps Dependencies
}

// NewService creates a control service.
func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// RegisterHandlers registers all control command handlers with the
// dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Read-only queries - sync so the caller gets the result back.
	d.Register(":STATUS:", s.handleStatus)
	d.Register(":PERF:", s.handlePerf)

	// Driver input can arrive every frame - buffered.
	d.Register(":DRIVER:INPUT:", s.handleDriverInput, dispatcher.Buffered(256))
	d.Register(":DRIVER:CLEAR:", s.handleDriverClear)

	d.Register(":REFUEL:", s.handleRefuel, dispatcher.Logged())
	d.Register(":SCENARIO:", s.handleScenario, dispatcher.Logged())

	// Session lifecycle - sync so the backend has committed before the
	// caller continues.
	d.Register(":SESSION:START:", s.handleSessionStart, dispatcher.Logged())
	d.Register(":SESSION:END:", s.handleSessionEnd, dispatcher.Logged())
}

func (s *Service) handleStatus(c dispatcher.Command) (any, error) {
	snap := s.deps.Sim.State()
	sess := s.deps.Session.Get()

	return fmt.Sprintf(
		"speed=%.1f rpm=%.0f gear=%s phase=%s fuel=%.1f%% odometer=%.1f ticks=%d observers=%d session=%s",
		snap.Speed, snap.RPM, snap.Gear, snap.DrivePhase,
		snap.FuelLevel, snap.Odometer,
		s.deps.Sim.Ticks(), s.deps.Sim.Observers(), sess.Profile,
	), nil
}

func (s *Service) handlePerf(c dispatcher.Command) (any, error) {
	p := s.deps.Sim.Perf()
	return fmt.Sprintf("avg=%.3fms min=%.3fms max=%.3fms ticks=%d good=%t dropped=%d",
		p.AverageMs, p.MinMs, p.MaxMs, p.Ticks, p.Good, s.deps.Sim.DroppedFrames()), nil
}

func (s *Service) handleDriverInput(c dispatcher.Command) (any, error) {
	if len(c.Args) < 2 {
		return nil, fmt.Errorf("driver input needs throttle and brake, got %d args", len(c.Args))
	}
	throttle, err := parseUnit(c.Args[0])
	if err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}
	brake, err := parseUnit(c.Args[1])
	if err != nil {
		return nil, fmt.Errorf("brake: %w", err)
	}
	s.deps.Sim.SetDriverInput(throttle, brake)
	return nil, nil
}

func (s *Service) handleDriverClear(c dispatcher.Command) (any, error) {
	s.deps.Sim.ClearDriverInput()
	return nil, nil
}

func (s *Service) handleRefuel(c dispatcher.Command) (any, error) {
	if len(c.Args) < 1 {
		return nil, fmt.Errorf("refuel needs a percentage argument")
	}
	percent, err := parsePercent(c.Args[0])
	if err != nil {
		return nil, err
	}
	s.deps.Sim.Refuel(percent)
	return fmt.Sprintf("refueled %.1f%%", percent), nil
}

func (s *Service) handleScenario(c dispatcher.Command) (any, error) {
	if len(c.Args) < 1 {
		return nil, fmt.Errorf("scenario needs a phase argument")
	}
	phase := c.Args[0]
	if err := s.deps.Sim.ForcePhase(phase); err != nil {
		return nil, fmt.Errorf("forcing phase %q: %w", phase, err)
	}
	return fmt.Sprintf("phase %s", phase), nil
}

func (s *Service) handleSessionStart(c dispatcher.Command) (any, error) {
	if s.deps.Session.Active() {
		return nil, fmt.Errorf("session already in progress: %s", s.deps.Session.Get().Profile)
	}

	profile := "default"
	if len(c.Args) > 0 && c.Args[0] != "" {
		profile = c.Args[0]
	}

	sess := s.deps.Session.Begin(profile, s.deps.VehicleID, s.deps.TickRate)
	if err := s.deps.Backend.BeginSession(sess); err != nil {
		return nil, fmt.Errorf("starting session in backend: %w", err)
	}
	// The backend may have assigned a persistent ID.
	s.deps.Session.Set(sess)

	s.deps.LogManager.Logger().Info("Session started",
		"profile", sess.Profile, "vehicleID", sess.VehicleID, "tickRate", sess.TickRate)
	return fmt.Sprintf("session %s started", sess.Profile), nil
}

func (s *Service) handleSessionEnd(c dispatcher.Command) (any, error) {
	if !s.deps.Session.Active() {
		return nil, fmt.Errorf("no session in progress")
	}

	logger := s.deps.LogManager.Logger()
	sess := s.deps.Session.Get()
	duration := time.Since(sess.StartTime)

	if err := s.deps.Backend.EndSession(); err != nil {
		return nil, fmt.Errorf("ending session in backend: %w", err)
	}

	logger.Info("Session ended",
		"profile", sess.Profile, "duration", duration.Round(time.Second))

	s.uploadRecording(logger)

	s.deps.Session.Set(&telemetry.Session{Profile: "no session"})
	return fmt.Sprintf("session %s ended", sess.Profile), nil
}

// uploadRecording pushes the exported recording to the upload server when
// the backend produced one and a client is configured.
func (s *Service) uploadRecording(logger *slog.Logger) {
	if s.deps.Uploader == nil {
		return
	}
	up, ok := s.deps.Backend.(storage.Uploadable)
	if !ok {
		return
	}
	path := up.ExportedFilePath()
	if path == "" {
		return
	}

	meta := up.ExportMetadata()
	if err := s.deps.Uploader.Upload(path, meta); err != nil {
		logger.Error("Failed to upload recording", "path", path, "error", err)
		return
	}
	logger.Info("Recording uploaded", "path", path, "snapshots", meta.Snapshots)
}
