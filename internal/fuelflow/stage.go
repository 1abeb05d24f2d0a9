package fuelflow

import (
	"fmt"
	"math"
	"sort"
)

// StageState is the lifecycle of a [StageSimulator].
type StageState int

const (
	// StageActive means every engine of the stage may burn.
	StageActive StageState = iota
	// StageExhausting means some engines flamed out while others still burn.
	StageExhausting
	// StageDone means the stage has no thrust left.
	StageDone
)

func (s StageState) String() string {
	switch s {
	case StageActive:
		return "active"
	case StageExhausting:
		return "exhausting"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("StageState(%d)", int(s))
	}
}

// Observer receives per-step intervals and flameouts as a stage burns.
// Observers passed to [RunProfiles] must be safe for concurrent use.
type Observer interface {
	OnStep(stage int, step FuelStats)
	OnFlameout(stage int, part string, t float64)
}

// depletionEpsilon is the relative amount below which a drawn pool counts as empty.
const depletionEpsilon = 1e-12

type engineState struct {
	part      int
	model     *EngineModel
	sources   [][]int // per propellant
	flamedOut bool
	thrust    float64
	massFlow  float64
}

// StageSimulator burns the propellant of one stage in steps of at most
// Options.Timestep seconds. Each step ends early when a drawn pool runs
// dry, so flameouts land exactly on depletion.
type StageSimulator struct {
	g        *ResourceGraph
	stage    int
	cond     Conditions
	opts     Options
	engines  []*engineState
	rates    []float64
	state    StageState
	time     float64
	steps    int
	stats    FuelStats
	hasStats bool
}

func NewStageSimulator(g *ResourceGraph, stage int, cond Conditions, opts Options) *StageSimulator {
	policy := opts.Crossfeed
	if policy == nil {
		policy = DefaultCrossfeed{}
	}
	s := &StageSimulator{
		g:     g,
		stage: stage,
		cond:  cond,
		opts:  opts,
		rates: make([]float64, len(g.pools)),
	}
	for _, pi := range g.Engines(stage) {
		model := g.parts[pi].engine
		props := model.Propellants()
		es := &engineState{part: pi, model: model, sources: make([][]int, len(props))}
		for i, prop := range props {
			es.sources[i] = policy.Sources(g, pi, prop.Resource)
		}
		s.engines = append(s.engines, es)
	}
	return s
}

func (s *StageSimulator) State() StageState { return s.state }

// Time is the simulated burn time of the stage so far.
func (s *StageSimulator) Time() float64 { return s.time }

// Stats returns the stage interval accumulated so far.
func (s *StageSimulator) Stats() FuelStats {
	if !s.hasStats {
		m := s.g.Mass()
		return FuelStats{StartMass: m, EndMass: m}
	}
	return s.stats
}

// Run steps the stage until it is done and returns the folded interval.
func (s *StageSimulator) Run() (FuelStats, error) {
	for s.state != StageDone {
		if err := s.Step(); err != nil {
			return s.Stats(), err
		}
	}
	return s.Stats(), nil
}

// Step advances the stage by one interval, or marks it done.
func (s *StageSimulator) Step() error {
	if s.state == StageDone {
		return nil
	}
	if s.opts.MaxSteps > 0 && s.steps >= s.opts.MaxSteps {
		return &StageError{Stage: s.stage, Time: s.time, Wrapped: ErrStepLimit}
	}

	thrust, massFlow, burning, parts := s.updateEngines()
	if burning == 0 || thrust <= 0 {
		s.state = StageDone
		return nil
	}
	if burning < len(s.engines) {
		s.state = StageExhausting
	}

	// every burning engine draws a positive rate from at least one pool
	dt, limiting := s.opts.Timestep, -1
	for pi, rate := range s.rates {
		if rate <= 0 {
			continue
		}
		if t := s.g.pools[pi].Amount / rate; t <= dt {
			dt, limiting = t, pi
		}
	}

	m0 := s.g.Mass()
	for pi, rate := range s.rates {
		if rate <= 0 {
			continue
		}
		pool := &s.g.pools[pi]
		pool.Amount -= rate * dt
		if pi == limiting || pool.Amount <= depletionEpsilon*math.Max(1, pool.Capacity) {
			pool.Amount = 0
		}
	}
	m1 := s.g.Mass()

	isp := 0.0
	if massFlow > 0 {
		isp = thrust / (G0 * massFlow)
	}
	step := FuelStats{
		StartMass:    m0,
		EndMass:      m1,
		StartThrust:  thrust,
		EndThrust:    thrust,
		DeltaTime:    dt,
		DeltaV:       rocketDeltaV(isp, m0, m1),
		ResourceMass: m0 - m1,
		Parts:        parts,
	}
	if m1 > 0 {
		step.MaxAccel = thrust / m1
	}
	if m0 > m1 {
		step.Isp = isp
	}

	s.time += dt
	s.steps++
	s.fold(step)
	if s.opts.Observer != nil {
		s.opts.Observer.OnStep(s.stage, step)
	}
	return nil
}

func (s *StageSimulator) fold(step FuelStats) {
	if !s.hasStats {
		s.stats = step
		s.hasStats = true
		return
	}
	s.stats = Append(s.stats, step)
}

// updateEngines flames out engines that can no longer draw every propellant
// and recomputes the per-pool drain rates of the rest.
func (s *StageSimulator) updateEngines() (thrust, massFlow float64, burning int, parts []string) {
	for i := range s.rates {
		s.rates[i] = 0
	}
	for _, es := range s.engines {
		if es.flamedOut {
			continue
		}
		props := es.model.Propellants()
		groups := make([][]int, len(props))
		for i := range props {
			groups[i] = s.g.drawGroup(es.sources[i])
			if len(groups[i]) == 0 {
				es.flamedOut = true
				break
			}
		}
		if es.flamedOut {
			es.thrust, es.massFlow = 0, 0
			if s.opts.Observer != nil {
				s.opts.Observer.OnFlameout(s.stage, s.g.parts[es.part].id, s.time)
			}
			continue
		}

		burning++
		es.massFlow = es.model.MassFlow(s.cond, s.opts.Throttle)
		es.thrust = es.model.CurrentThrust(s.cond, s.opts.Throttle)
		if es.thrust <= 0 || es.massFlow <= 0 {
			continue
		}
		thrust += es.thrust
		massFlow += es.massFlow
		parts = append(parts, s.g.parts[es.part].id)

		ratioMass := 0.0
		for _, prop := range props {
			ratioMass += prop.Ratio * s.g.defs[prop.Resource].Density
		}
		for i, prop := range props {
			units := es.massFlow * prop.Ratio / ratioMass
			share := units / float64(len(groups[i]))
			for _, pi := range groups[i] {
				s.rates[pi] += share
			}
		}
	}
	sort.Strings(parts)
	return thrust, massFlow, burning, parts
}
