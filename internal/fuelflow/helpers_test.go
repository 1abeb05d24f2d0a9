package fuelflow

import "sync"

func testResources() map[string]ResourceDef {
	return map[string]ResourceDef{
		"LiquidFuel": {Density: 5},
		"Oxidizer":   {Density: 5},
		"SolidFuel":  {Density: 7.5, Flow: FlowNone},
		"Xenon":      {Density: 0.1, Flow: FlowAll},
	}
}

func liquidEngine(thrust, isp float64) *EngineModel {
	return NewSimpleEngine(FlowForThrust(thrust, isp), 0, ConstantCurve(isp), Propellant{Resource: "LiquidFuel", Ratio: 1})
}

// singleStage is one part holding 100 kg of fuel on 900 kg of dry mass.
func singleStage(thrust, isp float64) *Vessel {
	return &Vessel{
		Name:         "single",
		CurrentStage: 0,
		Resources:    testResources(),
		Parts: []Part{{
			ID:               "rocket",
			DryMass:          900,
			DecoupledInStage: -1,
			Resources:        []Resource{{Kind: "LiquidFuel", Amount: 20, Capacity: 20}},
			Engine:           liquidEngine(thrust, isp),
		}},
	}
}

// twoStage carries a 100 kg upper stage on a 500 kg booster stage separated
// by a decoupler with crossfeed disabled.
func twoStage() *Vessel {
	return &Vessel{
		Name:         "two-stage",
		CurrentStage: 1,
		Resources:    testResources(),
		Parts: []Part{
			{ID: "pod", DryMass: 500, DecoupledInStage: -1},
			{ID: "upper-tank", DryMass: 100, DecoupledInStage: -1,
				Resources: []Resource{{Kind: "LiquidFuel", Amount: 20, Capacity: 20}}},
			{ID: "upper-engine", DryMass: 300, DecoupledInStage: -1, ActivationStage: 0,
				Engine: liquidEngine(20000, 300)},
			{ID: "decoupler", DryMass: 50, DecoupledInStage: 1, CrossfeedDisabled: true},
			{ID: "booster-tank", DryMass: 200, DecoupledInStage: 1,
				Resources: []Resource{{Kind: "LiquidFuel", Amount: 80, Capacity: 80}}},
			{ID: "booster-engine", DryMass: 250, DecoupledInStage: 1, ActivationStage: 1,
				Engine: NewSimpleEngine(FlowForThrust(60000, 280), 0, NewCurve(Key{0, 280}, Key{1, 240}), Propellant{Resource: "LiquidFuel", Ratio: 1})},
		},
		Links: []Link{
			{From: "pod", To: "upper-tank"},
			{From: "upper-tank", To: "upper-engine"},
			{From: "upper-engine", To: "decoupler"},
			{From: "decoupler", To: "booster-tank"},
			{From: "booster-tank", To: "booster-engine"},
		},
	}
}

type stepRecord struct {
	stage int
	step  FuelStats
}

type flameoutRecord struct {
	stage int
	part  string
	t     float64
}

type recorder struct {
	mu        sync.Mutex
	steps     []stepRecord
	flameouts []flameoutRecord
}

func (r *recorder) OnStep(stage int, step FuelStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, stepRecord{stage: stage, step: step})
}

func (r *recorder) OnFlameout(stage int, part string, t float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flameouts = append(r.flameouts, flameoutRecord{stage: stage, part: part, t: t})
}
