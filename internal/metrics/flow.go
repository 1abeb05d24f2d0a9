package metrics

import "github.com/san-kum/fuelsim/internal/fuelflow"

// MeanMassFlow is the average propellant mass flow over the observed burn
// time, in kg/s.
type MeanMassFlow struct {
	name     string
	mass     float64
	duration float64
}

func NewMeanMassFlow() *MeanMassFlow {
	return &MeanMassFlow{
		name: "mean_mass_flow",
	}
}

func (f *MeanMassFlow) Name() string {
	return f.name
}

func (f *MeanMassFlow) Observe(stage int, step fuelflow.FuelStats) {
	f.mass += step.ResourceMass
	f.duration += step.DeltaTime
}

func (f *MeanMassFlow) Value() float64 {
	if f.duration == 0 {
		return 0
	}
	return f.mass / f.duration
}

func (f *MeanMassFlow) Reset() {
	f.mass = 0
	f.duration = 0
}
