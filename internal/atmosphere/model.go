package atmosphere

import "math"

const (
	g0 = 9.80665
	// Molar mass of dry air, kg/mol.
	molarMass = 0.0289644
	// Universal gas constant, J/(mol·K).
	gasConstant = 8.3144598
	// Specific gas constant of dry air, J/(kg·K).
	airGasConstant = gasConstant / molarMass
	// Ratio of specific heats for diatomic gas.
	gamma = 1.4
	// Effective Earth radius for geopotential altitude, m.
	earthRadius = 6356766.0
)

// State is the ambient air at one altitude.
type State struct {
	Pressure    float64 // Pa
	Density     float64 // kg/m³
	Temperature float64 // K
}

// Model maps geometric altitude in metres to the ambient state.
type Model interface {
	At(altitude float64) State
}

// SpeedOfSound returns the local speed of sound, or zero without air.
func (s State) SpeedOfSound() float64 {
	if s.Temperature <= 0 {
		return 0
	}
	return math.Sqrt(gamma * airGasConstant * s.Temperature)
}

// Vacuum is a model without any atmosphere.
type Vacuum struct{}

func (Vacuum) At(float64) State { return State{} }

type layer struct {
	base        float64 // geopotential m
	temperature float64 // K at base
	lapse       float64 // K/m
	pressure    float64 // Pa at base
}

// USSA76 is the 1976 US Standard Atmosphere up to 86 km geometric altitude.
// Above that the model returns vacuum.
type USSA76 struct{}

var ussa76Layers = []layer{
	{0, 288.15, -0.0065, 101325},
	{11000, 216.65, 0, 22632.06},
	{20000, 216.65, 0.001, 5474.889},
	{32000, 228.65, 0.0028, 868.0187},
	{47000, 270.65, 0, 110.9063},
	{51000, 270.65, -0.0028, 66.93887},
	{71000, 214.65, -0.002, 3.956420},
}

// ussa76Ceiling is the geopotential top of the tabulated layers.
const ussa76Ceiling = 84852.0

func (USSA76) At(altitude float64) State {
	if altitude < 0 {
		altitude = 0
	}
	h := earthRadius * altitude / (earthRadius + altitude)
	if h >= ussa76Ceiling {
		return State{}
	}

	l := ussa76Layers[0]
	for _, next := range ussa76Layers[1:] {
		if h < next.base {
			break
		}
		l = next
	}

	dh := h - l.base
	t := l.temperature + l.lapse*dh
	var p float64
	if l.lapse == 0 {
		p = l.pressure * math.Exp(-g0*molarMass*dh/(gasConstant*l.temperature))
	} else {
		p = l.pressure * math.Pow(l.temperature/t, g0*molarMass/(gasConstant*l.lapse))
	}
	return State{Pressure: p, Density: p / (airGasConstant * t), Temperature: t}
}

// Exponential is an isothermal atmosphere whose pressure decays with a
// single scale height and ends at Ceiling.
type Exponential struct {
	SeaLevelPressure float64 // Pa
	Temperature      float64 // K
	ScaleHeight      float64 // m
	Ceiling          float64 // m, zero means unbounded
}

func (e Exponential) At(altitude float64) State {
	if altitude < 0 {
		altitude = 0
	}
	if e.SeaLevelPressure <= 0 || (e.Ceiling > 0 && altitude >= e.Ceiling) {
		return State{}
	}
	p := e.SeaLevelPressure
	if e.ScaleHeight > 0 {
		p *= math.Exp(-altitude / e.ScaleHeight)
	}
	s := State{Pressure: p, Temperature: e.Temperature}
	if e.Temperature > 0 {
		s.Density = p / (airGasConstant * e.Temperature)
	}
	return s
}
