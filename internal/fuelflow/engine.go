package fuelflow

import (
	"fmt"
	"math"
)

// AtmToKPa converts standard atmospheres to kilopascals.
const AtmToKPa = 101.325

// Conditions are the ambient values an engine burns under.
type Conditions struct {
	Pressure float64 `json:"pressure" yaml:"pressure"` // kPa
	Density  float64 `json:"density" yaml:"density"`   // kg/m³
	Mach     float64 `json:"mach" yaml:"mach"`
}

func (c Conditions) PressureAtm() float64 {
	return c.Pressure / AtmToKPa
}

// Propellant is one entry of an engine's mixture, by unit ratio.
type Propellant struct {
	Resource string  `json:"resource"`
	Ratio    float64 `json:"ratio"`
}

// EngineKind selects how an [EngineModel] maps throttle and modes to flow.
type EngineKind int

const (
	KindSimple EngineKind = iota
	KindMultiMode
	KindThrottleLocked
)

func (k EngineKind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindMultiMode:
		return "multimode"
	case KindThrottleLocked:
		return "throttle_locked"
	default:
		return fmt.Sprintf("EngineKind(%d)", int(k))
	}
}

// EngineMode holds the flow and efficiency parameters of one operating mode.
// Flows are propellant mass flows in kg/s.
type EngineMode struct {
	Name           string
	MaxFuelFlow    float64
	MinFuelFlow    float64
	FlowMultiplier float64 // zero means 1
	IspCurve       Curve   // Isp in seconds over pressure in atm
	AtmCurve       *Curve  // flow multiplier over air density
	VelCurve       *Curve  // flow multiplier over Mach number
	Propellants    []Propellant
}

// EngineModel is the per-engine thrust model. Simple and throttle-locked
// engines carry exactly one mode; multi-mode engines burn ActiveMode.
type EngineModel struct {
	Kind       EngineKind
	Modes      []EngineMode
	ActiveMode int

	// ThrustLimiter scales the usable throttle range, 0..1.
	ThrustLimiter float64

	// ThrustTransforms are per-nozzle thrust multipliers. Empty means a single
	// nozzle carrying all thrust.
	ThrustTransforms []float64
}

// FlowForThrust returns the mass flow producing thrust at the given Isp.
func FlowForThrust(thrust, isp float64) float64 {
	if isp <= 0 {
		return 0
	}
	return thrust / (isp * G0)
}

func NewSimpleEngine(maxFlow, minFlow float64, isp Curve, propellants ...Propellant) *EngineModel {
	return &EngineModel{
		Kind:          KindSimple,
		Modes:         []EngineMode{{MaxFuelFlow: maxFlow, MinFuelFlow: minFlow, IspCurve: isp, Propellants: propellants}},
		ThrustLimiter: 1,
	}
}

// NewThrottleLockedEngine returns an engine that always burns at its limiter
// setting, such as a solid rocket booster.
func NewThrottleLockedEngine(maxFlow float64, isp Curve, propellants ...Propellant) *EngineModel {
	return &EngineModel{
		Kind:          KindThrottleLocked,
		Modes:         []EngineMode{{MaxFuelFlow: maxFlow, MinFuelFlow: maxFlow, IspCurve: isp, Propellants: propellants}},
		ThrustLimiter: 1,
	}
}

func NewMultiModeEngine(active int, modes ...EngineMode) *EngineModel {
	return &EngineModel{
		Kind:          KindMultiMode,
		Modes:         modes,
		ActiveMode:    active,
		ThrustLimiter: 1,
	}
}

func (e *EngineModel) mode() *EngineMode {
	if e.Kind == KindMultiMode && e.ActiveMode >= 0 && e.ActiveMode < len(e.Modes) {
		return &e.Modes[e.ActiveMode]
	}
	return &e.Modes[0]
}

func (e *EngineModel) ThrottleLocked() bool { return e.Kind == KindThrottleLocked }

// Propellants returns the mixture of the mode currently burning.
func (e *EngineModel) Propellants() []Propellant {
	return e.mode().Propellants
}

// CurrentIsp returns the specific impulse in seconds at a pressure in kPa.
func (e *EngineModel) CurrentIsp(pressure float64) float64 {
	return math.Max(0, e.mode().IspCurve.Evaluate(pressure/AtmToKPa))
}

func (e *EngineModel) flowMultiplier(c Conditions) float64 {
	m := e.mode()
	mult := m.FlowMultiplier
	if mult == 0 {
		mult = 1
	}
	if m.AtmCurve != nil {
		mult *= m.AtmCurve.Evaluate(c.Density)
	}
	if m.VelCurve != nil {
		mult *= m.VelCurve.Evaluate(c.Mach)
	}
	return math.Max(0, mult)
}

func (e *EngineModel) transformScale() float64 {
	if len(e.ThrustTransforms) == 0 {
		return 1
	}
	sum := 0.0
	for _, t := range e.ThrustTransforms {
		sum += t
	}
	return sum
}

// MassFlow returns the propellant mass flow in kg/s at the given throttle.
// Throttle-locked engines ignore the throttle and burn at their limiter.
func (e *EngineModel) MassFlow(c Conditions, throttle float64) float64 {
	m := e.mode()
	var flow float64
	if e.ThrottleLocked() {
		flow = m.MaxFuelFlow * e.ThrustLimiter
	} else {
		t := clamp01(throttle) * clamp01(e.ThrustLimiter)
		flow = m.MinFuelFlow + (m.MaxFuelFlow-m.MinFuelFlow)*t
	}
	return flow * e.flowMultiplier(c)
}

func (e *EngineModel) CurrentThrust(c Conditions, throttle float64) float64 {
	return e.MassFlow(c, throttle) * e.CurrentIsp(c.Pressure) * G0 * e.transformScale()
}

func (e *EngineModel) MaxThrust(c Conditions) float64 { return e.CurrentThrust(c, 1) }

func (e *EngineModel) MinThrust(c Conditions) float64 {
	if e.ThrottleLocked() {
		return e.MaxThrust(c)
	}
	return e.CurrentThrust(c, 0)
}

// Validate checks every mode an engine could burn in.
func (e *EngineModel) Validate() error {
	if len(e.Modes) == 0 {
		return fmt.Errorf("%w: no modes", ErrInvalidEngine)
	}
	if e.Kind != KindMultiMode && len(e.Modes) != 1 {
		return fmt.Errorf("%w: %s engine needs exactly one mode, got %d", ErrInvalidEngine, e.Kind, len(e.Modes))
	}
	if e.Kind == KindMultiMode && (e.ActiveMode < 0 || e.ActiveMode >= len(e.Modes)) {
		return fmt.Errorf("%w: active mode %d out of range", ErrInvalidEngine, e.ActiveMode)
	}
	if e.ThrustLimiter < 0 || e.ThrustLimiter > 1 {
		return fmt.Errorf("%w: thrust limiter %.3f outside [0, 1]", ErrInvalidEngine, e.ThrustLimiter)
	}
	for _, t := range e.ThrustTransforms {
		if t < 0 {
			return fmt.Errorf("%w: negative thrust transform multiplier", ErrInvalidEngine)
		}
	}
	for i, m := range e.Modes {
		switch {
		case m.MaxFuelFlow < 0 || m.MinFuelFlow < 0:
			return fmt.Errorf("%w: mode %d: negative fuel flow", ErrInvalidEngine, i)
		case m.MinFuelFlow > m.MaxFuelFlow:
			return fmt.Errorf("%w: mode %d: min flow %.4f above max flow %.4f", ErrInvalidEngine, i, m.MinFuelFlow, m.MaxFuelFlow)
		case m.FlowMultiplier < 0:
			return fmt.Errorf("%w: mode %d: negative flow multiplier", ErrInvalidEngine, i)
		case m.IspCurve.Empty():
			return fmt.Errorf("%w: mode %d: missing isp curve", ErrInvalidEngine, i)
		case len(m.Propellants) == 0:
			return fmt.Errorf("%w: mode %d: no propellants", ErrInvalidEngine, i)
		}
		for _, p := range m.Propellants {
			if p.Ratio <= 0 {
				return fmt.Errorf("%w: mode %d: propellant %q ratio must be positive", ErrInvalidEngine, i, p.Resource)
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (e *EngineModel) Clone() *EngineModel {
	if e == nil {
		return nil
	}
	c := *e
	c.Modes = make([]EngineMode, len(e.Modes))
	for i, m := range e.Modes {
		m.Propellants = append([]Propellant(nil), m.Propellants...)
		m.IspCurve = NewCurve(m.IspCurve.keys...)
		if m.AtmCurve != nil {
			atm := NewCurve(m.AtmCurve.keys...)
			m.AtmCurve = &atm
		}
		if m.VelCurve != nil {
			vel := NewCurve(m.VelCurve.keys...)
			m.VelCurve = &vel
		}
		c.Modes[i] = m
	}
	c.ThrustTransforms = append([]float64(nil), e.ThrustTransforms...)
	return &c
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
