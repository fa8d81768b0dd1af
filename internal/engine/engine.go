package engine

import (
	"fmt"
	"math"

	"github.com/opendash/cansim/internal/config"
	"github.com/opendash/cansim/pkg/telemetry"
)

// gear ratios for forward gears, reverse reuses first
var gearRatios = map[string]float64{
	telemetry.GearReverse: 3.5,
	"1":                   3.5,
	"2":                   2.1,
	"3":                   1.4,
	"4":                   1.0,
	"5":                   0.8,
	"6":                   0.65,
	"7":                   0.55,
	"8":                   0.48,
}

const (
	finalDrive = 3.73
	// wheel revolutions per km/h of road speed, for a ~1.9m rolling
	// circumference tire
	wheelRPMPerKmh = 8.77

	torquePeakRPM = 2500.0
	maxBoostBar   = 1.5
)

// Characteristics computes engine outputs from RPM, throttle and load. All
// methods are pure; the struct carries only construction-time configuration.
type Characteristics struct {
	displacementL    float64
	cylinders        int
	compressionRatio float64
	turbo            bool

	maxTorqueNm float64
}

// New validates cfg and builds the characteristics map.
func New(cfg config.EngineConfig) (*Characteristics, error) {
	if cfg.DisplacementL <= 0 {
		return nil, fmt.Errorf("invalid engine displacement %.2f: must be positive", cfg.DisplacementL)
	}
	if cfg.Cylinders < 1 || cfg.Cylinders > 16 {
		return nil, fmt.Errorf("invalid cylinder count %d: must be in [1,16]", cfg.Cylinders)
	}
	if cfg.CompressionRatio <= 0 {
		return nil, fmt.Errorf("invalid compression ratio %.2f: must be positive", cfg.CompressionRatio)
	}

	maxTorque := cfg.DisplacementL * 85.0 * (cfg.CompressionRatio / 10.5)
	if cfg.Turbo {
		maxTorque *= 1.3
	}

	return &Characteristics{
		displacementL:    cfg.DisplacementL,
		cylinders:        cfg.Cylinders,
		compressionRatio: cfg.CompressionRatio,
		turbo:            cfg.Turbo,
		maxTorqueNm:      maxTorque,
	}, nil
}

// Turbo reports whether the engine is turbocharged.
func (c *Characteristics) Turbo() bool {
	return c.turbo
}

// TargetRPM maps road speed and gear to the RPM the engine settles at. Park,
// neutral and standstill return idle; everything else follows the drivetrain
// ratio, clamped to [MinRPM, RedlineRPM].
func (c *Characteristics) TargetRPM(speed float64, gear string, throttle float64) float64 {
	if gear == telemetry.GearPark || gear == telemetry.GearNeutral || speed < 0.5 {
		// free revving against no load
		return clamp(telemetry.IdleRPM+throttle*2200, telemetry.MinRPM, telemetry.RedlineRPM)
	}

	ratio, ok := gearRatios[gear]
	if !ok {
		ratio = gearRatios["1"]
	}

	rpm := speed * wheelRPMPerKmh * ratio * finalDrive
	return clamp(rpm, telemetry.MinRPM, telemetry.RedlineRPM)
}

// Load returns engine load as a percentage in [0,100]. Throttle dominates,
// with a smaller contribution from how far up the rev range the engine sits.
func (c *Characteristics) Load(rpm, throttle, speed float64) float64 {
	revFraction := (rpm - telemetry.IdleRPM) / (telemetry.RedlineRPM - telemetry.IdleRPM)
	load := throttle*80 + revFraction*15 + math.Min(speed/250, 1)*5
	return clamp(load, 0, 100)
}

// MAF returns mass air flow in grams per second. Monotonic increasing in both
// rpm and throttle; colder intake air is denser and raises the reading.
func (c *Characteristics) MAF(rpm, throttle, intakeTempC float64) float64 {
	// four-stroke: one intake stroke per two revolutions
	volumetricEff := 0.70 + 0.25*throttle
	intakeM3PerSec := (c.displacementL / 1000.0) * rpm / 120.0 * volumetricEff

	// ideal-gas density correction around a 15°C reference
	densityKgM3 := 1.225 * 288.15 / (273.15 + intakeTempC)

	return intakeM3PerSec * densityKgM3 * 1000.0
}

// BoostPressure returns turbo boost in bar. Exactly zero for naturally
// aspirated engines; otherwise spools up with rpm and throttle, capped at
// 1.5 bar.
func (c *Characteristics) BoostPressure(rpm, throttle, load float64) float64 {
	if !c.turbo {
		return 0
	}

	spool := clamp((rpm-1800)/3500, 0, 1)
	boost := maxBoostBar * spool * throttle * (0.6 + load/250)
	return clamp(boost, 0, maxBoostBar)
}

// Torque returns crankshaft torque in Nm. The curve rises from idle to a peak
// around 2500 RPM and falls off toward redline.
func (c *Characteristics) Torque(rpm, throttle float64) float64 {
	rpm = clamp(rpm, telemetry.MinRPM, telemetry.RedlineRPM)

	var shape float64
	if rpm <= torquePeakRPM {
		shape = 0.5 + 0.5*(rpm-telemetry.MinRPM)/(torquePeakRPM-telemetry.MinRPM)
	} else {
		shape = 1.0 - 0.55*(rpm-torquePeakRPM)/(telemetry.RedlineRPM-torquePeakRPM)
	}

	return c.maxTorqueNm * shape * (0.2 + 0.8*throttle)
}

// Power converts torque at rpm to kW: torque * rpm / 9549.
func (c *Characteristics) Power(rpm, torque float64) float64 {
	return torque * rpm / 9549.0
}

// TimingAdvance returns ignition advance in degrees BTDC. Advances with revs,
// retards under load, clamped to [-5, 45].
func (c *Characteristics) TimingAdvance(rpm, load float64) float64 {
	advance := 10.0 + (rpm/telemetry.RedlineRPM)*35.0 - load/8.0
	return clamp(advance, -5, 45)
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
