// Package sim contains the vehicle state simulator: a fixed-interval tick
// loop that advances every subsystem and publishes one consistent snapshot
// per tick.
package sim

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opendash/cansim/internal/channel"
	"github.com/opendash/cansim/internal/electrical"
	"github.com/opendash/cansim/internal/engine"
	"github.com/opendash/cansim/internal/fuel"
	"github.com/opendash/cansim/internal/geo"
	"github.com/opendash/cansim/internal/perf"
	"github.com/opendash/cansim/internal/scenario"
	"github.com/opendash/cansim/internal/thermal"
	"github.com/opendash/cansim/internal/transmission"
	"github.com/opendash/cansim/pkg/telemetry"
)

// vehicle dynamics constants
const (
	vehicleMassKg  = 1500.0
	dragCd         = 0.30
	frontalAreaM2  = 2.2
	airDensity     = 1.225
	rollingCoeff   = 0.015
	gravity        = 9.81
	maxDriveAccel  = 3.0 // m/s² at full throttle
	maxBrakeDecel  = 8.0 // m/s² at full brake
	rpmSlewPerSec  = 3.0 // fraction of remaining gap closed per second
	wheelJitterAmp = 0.08
	maxTickDt      = 1.0 // seconds; longer stalls are treated as one capped step
)

// DriverInput is an external pedal override. While set, the scripted driver
// is bypassed.
type DriverInput struct {
	Throttle float64
	Brake    float64
}

// Options configures a Simulator. Engine and Transmission are required.
type Options struct {
	Engine       *engine.Characteristics
	Transmission *transmission.Logic
	Route        *geo.Route // optional position synthesis

	TickInterval   time.Duration
	ObserverBuffer int
	OdometerSeed   float64
	AmbientTemp    float64
	InitialFuel    float64 // percent; 0 means the default fill
	VehicleID      string

	Logger *slog.Logger
	// OnError is told about recovered numeric anomalies. Must be fast and
	// non-blocking; called from the tick loop.
	OnError func(chanName string, err error)

	// Seed fixes the wheel jitter source for reproducible runs. 0 uses the
	// current time.
	Seed int64
}

// Simulator owns the vehicle state and the tick loop that mutates it. All
// mutation happens inside tick; readers get copies.
type Simulator struct {
	opts Options

	eng     *engine.Characteristics
	trans   *transmission.Logic
	therm   *thermal.Model
	fuelSys *fuel.System
	elec    *electrical.System
	script  *scenario.Script
	route   *geo.Route
	rng     *rand.Rand

	hub  *channel.Hub[telemetry.Snapshot]
	mon  *perf.Monitor
	log  *slog.Logger

	mu           sync.RWMutex
	snapshot     telemetry.Snapshot
	thermalState thermal.State
	transTemp    float64
	gearIdx      int

	inputMu  sync.Mutex
	override *DriverInput

	started  atomic.Bool
	stopped  atomic.Bool
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once

	ticks atomic.Uint64
}

// New validates opts and builds a simulator positioned at the initial state.
func New(opts Options) (*Simulator, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("simulator requires an engine")
	}
	if opts.Transmission == nil {
		return nil, fmt.Errorf("simulator requires a transmission")
	}
	if opts.TickInterval <= 0 {
		return nil, fmt.Errorf("invalid tick interval %v: must be positive", opts.TickInterval)
	}
	if opts.ObserverBuffer <= 0 {
		opts.ObserverBuffer = 1024
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	snap := telemetry.NewSnapshot(opts.OdometerSeed, opts.AmbientTemp)
	if opts.InitialFuel > 0 {
		snap.FuelLevel = math.Min(opts.InitialFuel, 100)
	}

	s := &Simulator{
		opts:         opts,
		eng:          opts.Engine,
		trans:        opts.Transmission,
		therm:        thermal.New(),
		fuelSys:      fuel.New(snap.FuelLevel),
		elec:         electrical.New(),
		script:       scenario.NewScript(),
		route:        opts.Route,
		rng:          rand.New(rand.NewSource(seed)),
		hub:          channel.NewHub[telemetry.Snapshot](opts.ObserverBuffer),
		mon:          perf.New(perf.DefaultWindow, perf.DefaultGoodThresholdMs),
		log:          opts.Logger,
		snapshot:     snap,
		thermalState: thermal.InitialState(opts.AmbientTemp),
		transTemp:    90,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}

	if s.route != nil {
		lat, lon, heading := s.route.Position(snap.Odometer)
		s.snapshot.Latitude = lat
		s.snapshot.Longitude = lon
		s.snapshot.Heading = heading
	}

	return s, nil
}

// Start launches the tick loop. It returns an error on double start or after
// Stop.
func (s *Simulator) Start() error {
	if s.stopped.Load() {
		return fmt.Errorf("simulator already stopped")
	}
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("simulator already started")
	}

	go s.run()
	s.log.Info("Simulator started",
		"tickInterval", s.opts.TickInterval,
		"vehicle", s.opts.VehicleID)
	return nil
}

// Stop halts the tick loop. After Stop returns, no further tick executes and
// every observer channel is closed. Safe to call from any goroutine and more
// than once.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.stopChan)
		if s.started.Load() {
			<-s.doneChan
		}
		s.hub.Close()
		s.log.Info("Simulator stopped", "ticks", s.ticks.Load())
	})
}

// State returns a copy of the latest snapshot. Between two ticks, repeated
// calls return equal values.
func (s *Simulator) State() telemetry.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Subscribe registers an observer that receives every published snapshot.
// Returns nil after Stop.
func (s *Simulator) Subscribe() *channel.Subscription[telemetry.Snapshot] {
	return s.hub.Subscribe()
}

// Unsubscribe removes an observer.
func (s *Simulator) Unsubscribe(sub *channel.Subscription[telemetry.Snapshot]) {
	s.hub.Unsubscribe(sub)
}

// Observers returns the number of subscribed observers.
func (s *Simulator) Observers() int {
	return s.hub.Count()
}

// DroppedFrames returns the count of snapshots lost to stalled observers.
func (s *Simulator) DroppedFrames() uint64 {
	return s.hub.Dropped()
}

// Perf returns the current tick-loop performance statistics.
func (s *Simulator) Perf() perf.State {
	return s.mon.State()
}

// Ticks returns the number of completed ticks.
func (s *Simulator) Ticks() uint64 {
	return s.ticks.Load()
}

// SetDriverInput overrides the scripted driver with explicit pedal values,
// clamped to [0,1].
func (s *Simulator) SetDriverInput(throttle, brake float64) {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.override = &DriverInput{
		Throttle: clamp(throttle, 0, 1),
		Brake:    clamp(brake, 0, 1),
	}
}

// ClearDriverInput hands control back to the scripted driver.
func (s *Simulator) ClearDriverInput() {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.override = nil
}

// Refuel adds fuel, in percent of tank capacity.
func (s *Simulator) Refuel(percent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fuelSys.Refuel(percent)
	s.snapshot.FuelLevel = s.fuelSys.Level()
	s.snapshot.DeriveWarnings()
}

// ForcePhase jumps the scenario clock to the named driving phase.
func (s *Simulator) ForcePhase(phase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.script.Force(scenario.Phase(phase))
}

func (s *Simulator) run() {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-s.stopChan:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if dt <= 0 {
				dt = s.opts.TickInterval.Seconds()
			}
			if dt > maxTickDt {
				dt = maxTickDt
			}
			s.Tick(dt)
		}
	}
}

// Tick advances the whole simulation by dt seconds. Exposed so tests and
// offline replays can drive the simulator without the wall clock; the live
// loop is its only concurrent caller.
func (s *Simulator) Tick(dt float64) {
	start := time.Now()

	s.mu.Lock()
	prev := s.snapshot
	next := prev

	// scripted driver, unless overridden
	phase, targetSpeed := s.script.Advance(dt)
	throttle, brake := scenario.Control(targetSpeed, prev.Speed)
	next.DrivePhase = string(phase)

	s.inputMu.Lock()
	if s.override != nil {
		throttle, brake = s.override.Throttle, s.override.Brake
		next.DrivePhase = "manual"
	}
	s.inputMu.Unlock()

	// longitudinal dynamics: drive force vs brakes, drag and rolling
	// resistance
	vMs := prev.Speed / 3.6
	dragDecel := 0.5 * airDensity * dragCd * frontalAreaM2 * vMs * vMs / vehicleMassKg
	rollDecel := 0.0
	if prev.Speed > 0.1 {
		rollDecel = rollingCoeff * gravity
	}
	accel := throttle*maxDriveAccel - brake*maxBrakeDecel - dragDecel - rollDecel
	next.Speed = s.guard(telemetry.ChanSpeed,
		clamp(prev.Speed+accel*dt*3.6, 0, telemetry.MaxSpeed), prev.Speed)

	// gear selection and RPM easing
	kickdown := throttle > 0.9
	s.gearIdx = s.trans.OptimalGear(next.Speed, prev.RPM, throttle, s.gearIdx, kickdown)
	if next.Speed < 0.5 {
		next.Gear = telemetry.GearPark
	} else {
		next.Gear = transmission.GearLabel(s.gearIdx)
	}

	targetRPM := s.eng.TargetRPM(next.Speed, next.Gear, throttle)
	rpm := prev.RPM + (targetRPM-prev.RPM)*math.Min(1, rpmSlewPerSec*dt)
	next.RPM = s.guard(telemetry.ChanRPM,
		clamp(rpm, telemetry.MinRPM, telemetry.RedlineRPM), prev.RPM)

	// engine outputs
	next.Throttle = throttle
	next.Brake = brake
	next.EngineLoad = s.guard(telemetry.ChanEngineLoad,
		s.eng.Load(next.RPM, throttle, next.Speed), prev.EngineLoad)
	next.Torque = s.guard(telemetry.ChanTorque,
		s.eng.Torque(next.RPM, throttle), prev.Torque)
	next.Power = s.guard(telemetry.ChanPower,
		s.eng.Power(next.RPM, next.Torque), prev.Power)
	next.BoostPressure = s.guard(telemetry.ChanBoostPressure,
		s.eng.BoostPressure(next.RPM, throttle, next.EngineLoad), prev.BoostPressure)
	next.MassAirFlow = s.guard(telemetry.ChanMassAirFlow,
		s.eng.MAF(next.RPM, throttle, prev.IntakeAirTemp), prev.MassAirFlow)
	next.TimingAdvance = s.guard(telemetry.ChanTimingAdvance,
		s.eng.TimingAdvance(next.RPM, next.EngineLoad), prev.TimingAdvance)

	// thermal
	s.thermalState = s.therm.Advance(s.thermalState, thermal.Inputs{
		Load:     next.EngineLoad,
		Speed:    next.Speed,
		Brake:    brake,
		Ambient:  s.opts.AmbientTemp,
		BoostBar: next.BoostPressure,
	}, dt)
	next.EngineTemp = s.guard(telemetry.ChanEngineTemp, s.thermalState.Engine, prev.EngineTemp)
	next.CoolantTemp = s.guard(telemetry.ChanCoolantTemp, s.thermalState.Coolant, prev.CoolantTemp)
	next.OilTemp = s.guard(telemetry.ChanOilTemp, s.thermalState.Oil, prev.OilTemp)
	next.ExhaustTemp = s.guard(telemetry.ChanExhaustTemp, s.thermalState.Exhaust, prev.ExhaustTemp)
	next.BrakeTempFront = s.guard(telemetry.ChanBrakeTempFront, s.thermalState.BrakeFront, prev.BrakeTempFront)
	next.BrakeTempRear = s.guard(telemetry.ChanBrakeTempRear, s.thermalState.BrakeRear, prev.BrakeTempRear)
	next.CabinTemp = s.guard(telemetry.ChanCabinTemp, s.thermalState.Cabin, prev.CabinTemp)
	next.IntakeAirTemp = s.guard(telemetry.ChanIntakeAirTemp, s.thermalState.IntakeAir, prev.IntakeAirTemp)
	next.AmbientTemp = s.opts.AmbientTemp

	s.transTemp = s.trans.Temperature(next.RPM, s.transTemp, next.EngineLoad/100)
	next.TransmissionTemp = s.guard(telemetry.ChanTransmissionTemp, s.transTemp, prev.TransmissionTemp)

	// fuel
	rate := s.fuelSys.Consume(next.RPM, next.EngineLoad, next.Speed, dt)
	next.FuelLevel = s.guard(telemetry.ChanFuelLevel, s.fuelSys.Level(), prev.FuelLevel)
	next.FuelConsumption = s.guard(telemetry.ChanFuelConsumption, rate, prev.FuelConsumption)
	next.FuelPressure = s.guard(telemetry.ChanFuelPressure, s.fuelSys.Pressure(), prev.FuelPressure)
	next.RailPressure = s.guard(telemetry.ChanRailPressure,
		s.fuelSys.RailPressure(next.RPM, next.EngineLoad), prev.RailPressure)

	// oil pressure rides on revs
	next.OilPressure = s.guard(telemetry.ChanOilPressure,
		1.2+next.RPM/telemetry.RedlineRPM*4.3, prev.OilPressure)

	// electrical
	voltage, altAmps := s.elec.Advance(next.RPM, next.EngineLoad, dt)
	next.BatteryVoltage = s.guard(telemetry.ChanBatteryVoltage, voltage, prev.BatteryVoltage)
	next.AlternatorOutput = s.guard(telemetry.ChanAlternator, altAmps, prev.AlternatorOutput)

	// wheel speeds: sensor noise, bounded well inside the ±10% envelope
	next.WheelSpeedFL = s.wheelSpeed(next.Speed)
	next.WheelSpeedFR = s.wheelSpeed(next.Speed)
	next.WheelSpeedRL = s.wheelSpeed(next.Speed)
	next.WheelSpeedRR = s.wheelSpeed(next.Speed)

	// distance integration
	distance := next.Speed * dt / 3600
	next.Odometer = prev.Odometer + distance
	next.TripMeter = prev.TripMeter + distance

	if s.route != nil {
		lat, lon, heading := s.route.Position(next.Odometer)
		next.Latitude = s.guard(telemetry.ChanLatitude, lat, prev.Latitude)
		next.Longitude = s.guard(telemetry.ChanLongitude, lon, prev.Longitude)
		next.Heading = s.guard(telemetry.ChanHeading, heading, prev.Heading)
	}

	// smooth driving keeps the eco score up
	ecoTarget := 100 - throttle*50 - brake*40
	next.EcoScore = s.guard(telemetry.ChanEcoScore,
		clamp(prev.EcoScore+(ecoTarget-prev.EcoScore)*math.Min(1, 0.2*dt), 0, 100), prev.EcoScore)

	next.DeriveWarnings()
	next.Time = time.Now().UTC()
	next.Tick = s.ticks.Add(1)

	s.snapshot = next
	s.mu.Unlock()

	_, dropped := s.hub.Publish(next)
	if dropped > 0 {
		s.log.Warn("Observers lagging, snapshots dropped", "dropped", dropped)
	}

	s.mon.Record(time.Since(start))
}

// wheelSpeed applies independent sensor jitter to the vehicle speed.
func (s *Simulator) wheelSpeed(speed float64) float64 {
	if speed <= 0 {
		return 0
	}
	return speed * (1 + (s.rng.Float64()*2-1)*wheelJitterAmp)
}

// guard keeps a channel on its previous value when a computation produced a
// non-finite number, reporting the anomaly instead of propagating it.
func (s *Simulator) guard(chanName string, v, prevValue float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		err := fmt.Errorf("non-finite value for channel %s", chanName)
		if s.opts.OnError != nil {
			s.opts.OnError(chanName, err)
		}
		s.log.Error("Channel computation failed, holding previous value",
			"channel", chanName, "error", err)
		return prevValue
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
