package metrics

import (
	"math"

	"github.com/san-kum/fuelsim/internal/fuelflow"
)

// MassDrift tracks the largest relative mass gain across a step. A correct
// simulation only ever loses mass, so anything above zero is a defect.
type MassDrift struct {
	name     string
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(stage int, step fuelflow.FuelStats) {
	m.samples++
	if step.StartMass <= 0 {
		return
	}
	drift := (step.EndMass - step.StartMass) / step.StartMass
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MassDrift) Value() float64 {
	return m.maxDrift
}

func (m *MassDrift) Reset() {
	m.maxDrift = 0
	m.samples = 0
}
