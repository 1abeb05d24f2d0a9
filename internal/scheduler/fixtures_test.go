package scheduler_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/fuelsim/internal/fuelflow"
)

// stack returns a vessel of n identical stages, each a 500 kg tank-engine
// pair stacked under a 500 kg pod and separated by decouplers.
func stack(n int) *fuelflow.Vessel {
	v := &fuelflow.Vessel{
		Name:         fmt.Sprintf("stack-%d", n),
		CurrentStage: n - 1,
		Resources:    map[string]fuelflow.ResourceDef{"LiquidFuel": {Density: 5}},
		Parts:        []fuelflow.Part{{ID: "pod", DryMass: 500, DecoupledInStage: -1}},
	}
	prev := "pod"
	for s := 0; s < n; s++ {
		dec := fmt.Sprintf("decoupler-%d", s)
		tank := fmt.Sprintf("tank-%d", s)
		engine := fmt.Sprintf("engine-%d", s)
		v.Parts = append(v.Parts,
			fuelflow.Part{ID: dec, DryMass: 20, DecoupledInStage: s, CrossfeedDisabled: true},
			fuelflow.Part{ID: tank, DryMass: 100, DecoupledInStage: s,
				Resources: []fuelflow.Resource{{Kind: "LiquidFuel", Amount: 60, Capacity: 60}}},
			fuelflow.Part{ID: engine, DryMass: 100, DecoupledInStage: s, ActivationStage: s,
				Engine: fuelflow.NewSimpleEngine(fuelflow.FlowForThrust(50000, 300), 0,
					fuelflow.NewCurve(fuelflow.Key{X: 0, Y: 300}, fuelflow.Key{X: 1, Y: 260}),
					fuelflow.Propellant{Resource: "LiquidFuel", Ratio: 1})},
		)
		v.Links = append(v.Links,
			fuelflow.Link{From: prev, To: dec},
			fuelflow.Link{From: dec, To: tank},
			fuelflow.Link{From: tank, To: engine},
		)
		prev = engine
	}
	return v
}

// source is a controllable snapshot producer.
type source struct {
	mu     sync.Mutex
	vessel *fuelflow.Vessel
	err    error
	before func()
	calls  atomic.Int32
}

func newSource(v *fuelflow.Vessel) *source {
	return &source{vessel: v}
}

func (s *source) Snapshot() (*fuelflow.Vessel, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.before != nil {
		s.before()
	}
	return s.vessel, s.err
}

func (s *source) set(v *fuelflow.Vessel, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vessel, s.err = v, err
}

func (s *source) Calls() int32 { return s.calls.Load() }

// gate holds every simulation step until released.
type gate struct {
	release   chan struct{}
	entered   chan struct{}
	once      sync.Once
	enterOnce sync.Once
}

func newGate() *gate {
	return &gate{release: make(chan struct{}), entered: make(chan struct{})}
}

func (g *gate) OnStep(int, fuelflow.FuelStats) {
	g.enterOnce.Do(func() { close(g.entered) })
	<-g.release
}

func (g *gate) OnFlameout(int, string, float64) {}

func (g *gate) Open() { g.once.Do(func() { close(g.release) }) }

// panicky blows up on the first simulated step.
type panicky struct{}

func (panicky) OnStep(int, fuelflow.FuelStats)  { panic("boom") }
func (panicky) OnFlameout(int, string, float64) {}

const eventually = 2 * time.Second

// tally sums the delta-v of every observed step.
type tally struct {
	mu     sync.Mutex
	steps  int
	deltaV float64
}

func (t *tally) OnStep(_ int, step fuelflow.FuelStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps++
	t.deltaV += step.DeltaV
}

func (t *tally) OnFlameout(int, string, float64) {}

func (t *tally) DeltaV() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deltaV
}
