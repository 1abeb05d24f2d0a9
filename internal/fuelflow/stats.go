package fuelflow

import (
	"math"
	"sort"
)

// G0 is standard gravity in m/s², used by the rocket equation.
const G0 = 9.80665

// FuelStats describes one burn interval: a single step, a stage, or any
// chronological run of them combined with [Append].
type FuelStats struct {
	StartMass    float64  `json:"start_mass"`
	EndMass      float64  `json:"end_mass"`
	StartThrust  float64  `json:"start_thrust"`
	EndThrust    float64  `json:"end_thrust"`
	MaxAccel     float64  `json:"max_accel"`
	DeltaTime    float64  `json:"delta_time"`
	DeltaV       float64  `json:"delta_v"`
	ResourceMass float64  `json:"resource_mass"`
	Isp          float64  `json:"isp"`
	StagedMass   float64  `json:"staged_mass"`
	Parts        []string `json:"parts,omitempty"`
}

// Append combines two chronologically adjacent intervals into one
// describing their union. It is associative, so the stats of a stage do not
// depend on how finely the stage was stepped.
func Append(a, b FuelStats) FuelStats {
	out := FuelStats{
		StartMass:    a.StartMass,
		EndMass:      b.EndMass,
		StartThrust:  a.StartThrust,
		EndThrust:    b.EndThrust,
		MaxAccel:     math.Max(a.MaxAccel, b.MaxAccel),
		DeltaTime:    finiteOrZero(a.DeltaTime) + finiteOrZero(b.DeltaTime),
		DeltaV:       a.DeltaV + b.DeltaV,
		ResourceMass: a.StartMass - b.EndMass,
		StagedMass:   a.StagedMass + b.StagedMass,
		Parts:        unionParts(a.Parts, b.Parts),
	}
	out.Isp = effectiveIsp(out.DeltaV, a.StartMass, b.EndMass)
	return out
}

// StartTWR is the thrust-to-weight ratio at the start of the interval.
func (s FuelStats) StartTWR(gravity float64) float64 {
	if gravity <= 0 || s.StartMass <= 0 {
		return 0
	}
	return s.StartThrust / (s.StartMass * gravity)
}

// MaxTWR is the peak thrust-to-weight ratio reached during the interval.
func (s FuelStats) MaxTWR(gravity float64) float64 {
	if gravity <= 0 {
		return 0
	}
	return s.MaxAccel / gravity
}

// TotalDeltaV sums the delta-v of every stage.
func TotalDeltaV(stats []FuelStats) float64 {
	total := 0.0
	for _, s := range stats {
		total += s.DeltaV
	}
	return total
}

// BurnTime sums the finite burn time of every stage.
func BurnTime(stats []FuelStats) float64 {
	total := 0.0
	for _, s := range stats {
		total += finiteOrZero(s.DeltaTime)
	}
	return total
}

// effectiveIsp recovers the Isp implied by a delta-v and a mass ratio.
func effectiveIsp(deltaV, startMass, endMass float64) float64 {
	if startMass == endMass || startMass <= 0 || endMass <= 0 {
		return 0
	}
	isp := deltaV / (G0 * math.Log(startMass/endMass))
	if math.IsNaN(isp) || math.IsInf(isp, 0) {
		return 0
	}
	return isp
}

// rocketDeltaV is the ideal delta-v of burning from m0 down to m1. Steps that
// would not produce a finite positive logarithm contribute nothing.
func rocketDeltaV(isp, m0, m1 float64) float64 {
	if m0 <= 0 || m1 <= 0 || m0 <= m1 || isp <= 0 {
		return 0
	}
	dv := isp * G0 * math.Log(m0/m1)
	if math.IsNaN(dv) || math.IsInf(dv, 0) {
		return 0
	}
	return dv
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func unionParts(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
