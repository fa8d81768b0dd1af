package transmission

import (
	"fmt"
	"strconv"
	"time"

	"github.com/opendash/cansim/internal/config"
)

// Transmission types accepted at construction.
const (
	TypeManual     = "manual"
	TypeAutomatic  = "automatic"
	TypeDualClutch = "dct"
	TypeCVT        = "cvt"
)

// shiftDurations is the fixed per-type shift table.
var shiftDurations = map[string]time.Duration{
	TypeManual:     300 * time.Millisecond,
	TypeAutomatic:  400 * time.Millisecond,
	TypeDualClutch: 150 * time.Millisecond,
	TypeCVT:        0,
}

// upshift speed thresholds: gear n is held until speed reaches
// speedThresholds[n-1]
var speedThresholds = []float64{20, 40, 60, 80, 110, 140, 175}

const (
	MinTemp = 80.0
	MaxTemp = 120.0
)

// Logic selects gears and models the gearbox thermal envelope. Pure
// computation over explicit inputs; configuration is fixed at construction.
type Logic struct {
	transType string
	maxGears  int
}

// New validates cfg and returns the shift logic.
func New(cfg config.TransmissionConfig) (*Logic, error) {
	if _, ok := shiftDurations[cfg.Type]; !ok {
		return nil, fmt.Errorf("invalid transmission type %q: must be one of manual, automatic, dct, cvt", cfg.Type)
	}
	if cfg.MaxGears < 1 || cfg.MaxGears > 8 {
		return nil, fmt.Errorf("invalid max gears %d: must be in [1,8]", cfg.MaxGears)
	}
	return &Logic{
		transType: cfg.Type,
		maxGears:  cfg.MaxGears,
	}, nil
}

// Type returns the configured transmission type.
func (l *Logic) Type() string {
	return l.transType
}

// MaxGears returns the configured forward gear count.
func (l *Logic) MaxGears() int {
	return l.maxGears
}

// OptimalGear returns the forward gear index for the given speed. 0 means
// standstill (no forward gear engaged). The result is non-strictly monotone
// in speed and never exceeds the configured gear count. Kickdown requests one
// gear lower than the speed table suggests, high revs force an upshift early.
func (l *Logic) OptimalGear(speed, rpm, throttle float64, currentGear int, kickdown bool) int {
	if speed < 0.5 {
		return 0
	}

	gear := len(speedThresholds) + 1
	for i, threshold := range speedThresholds {
		if speed < threshold {
			gear = i + 1
			break
		}
	}

	if kickdown && gear > 1 {
		gear--
	}

	// protect the engine: upshift early when revving out, short-shift when
	// barely on throttle
	if rpm > 6500 && gear < l.maxGears {
		gear++
	} else if rpm < 1200 && throttle < 0.2 && gear > 1 {
		gear--
	}

	if gear > l.maxGears {
		gear = l.maxGears
	}
	if gear < 1 {
		gear = 1
	}
	return gear
}

// GearLabel converts a forward gear index to its channel representation.
func GearLabel(gear int) string {
	if gear <= 0 {
		return "N"
	}
	return strconv.Itoa(gear)
}

// ShiftDuration returns how long a shift into the given gear takes. CVTs
// have no discrete shift.
func (l *Logic) ShiftDuration(gear int) time.Duration {
	return shiftDurations[l.transType]
}

// Temperature advances the transmission temperature toward a load-dependent
// target, bounded to [80, 120].
func (l *Logic) Temperature(rpm, prevTemp, loadFactor float64) float64 {
	target := MinTemp + (rpm/8000.0)*25.0 + loadFactor*15.0
	temp := prevTemp + (target-prevTemp)*0.05
	if temp < MinTemp {
		return MinTemp
	}
	if temp > MaxTemp {
		return MaxTemp
	}
	return temp
}
