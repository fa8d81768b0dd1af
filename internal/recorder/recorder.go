// Package recorder forwards published snapshots from the simulator to the
// configured storage backend, and mirrors them to InfluxDB when enabled.
package recorder

import (
	"log/slog"
	"sync"

	"github.com/opendash/cansim/internal/channel"
	"github.com/opendash/cansim/internal/influx"
	"github.com/opendash/cansim/internal/sim"
	"github.com/opendash/cansim/internal/storage"
	"github.com/opendash/cansim/pkg/telemetry"
)

// perfSampleEvery is how many snapshots pass between perf samples; at the
// 50ms tick this is one sample per second.
const perfSampleEvery = 20

// Service drains one simulator subscription into the storage backend.
type Service struct {
	sim       *sim.Simulator
	backend   storage.Backend
	influx    *influx.Manager // nil when influx is disabled
	vehicleID string
	log       *slog.Logger

	mu  sync.Mutex
	sub *channel.Subscription[telemetry.Snapshot]
	wg  sync.WaitGroup
}

// New creates a recorder. influxMgr may be nil.
func New(s *sim.Simulator, backend storage.Backend, influxMgr *influx.Manager, vehicleID string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		sim:       s,
		backend:   backend,
		influx:    influxMgr,
		vehicleID: vehicleID,
		log:       log,
	}
}

// Start subscribes to the simulator and begins forwarding snapshots.
func (r *Service) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return
	}

	r.sub = r.sim.Subscribe()
	if r.sub == nil {
		r.log.Warn("Recorder could not subscribe, simulator already stopped")
		return
	}

	r.wg.Add(1)
	go r.drain(r.sub)
}

// Stop cancels the subscription and waits for the pending snapshots to be
// handed to the backend.
func (r *Service) Stop() {
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.mu.Unlock()

	if sub == nil {
		return
	}
	r.sim.Unsubscribe(sub)
	r.wg.Wait()
}

func (r *Service) drain(sub *channel.Subscription[telemetry.Snapshot]) {
	defer r.wg.Done()

	var since uint64
	for snap := range sub.Receive() {
		if err := r.backend.RecordSnapshot(&snap); err != nil {
			r.log.Error("Failed to record snapshot", "tick", snap.Tick, "error", err)
		}
		if r.influx != nil {
			if err := r.influx.WriteSnapshot(&snap, r.vehicleID); err != nil {
				r.log.Error("Failed to mirror snapshot to InfluxDB", "error", err)
			}
		}

		since++
		if since >= perfSampleEvery {
			since = 0
			perfState := r.sim.Perf()
			if err := r.backend.RecordPerfSample(&perfState); err != nil {
				r.log.Error("Failed to record perf sample", "error", err)
			}
			if r.influx != nil {
				if err := r.influx.WritePerf(&perfState, r.vehicleID); err != nil {
					r.log.Error("Failed to mirror perf sample to InfluxDB", "error", err)
				}
			}
		}
	}
}
