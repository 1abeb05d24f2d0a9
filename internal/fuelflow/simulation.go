package fuelflow

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Options tune a [Simulation].
type Options struct {
	// Timestep is the longest step a stage takes, in seconds.
	Timestep float64
	// MaxSteps bounds the steps of a single stage. Zero means unbounded.
	MaxSteps int
	// Throttle applied to throttleable engines, 0..1.
	Throttle float64

	Crossfeed CrossfeedPolicy
	Observer  Observer
	Logger    *logrus.Entry
}

func DefaultOptions() Options {
	return Options{
		Timestep: 1.0,
		MaxSteps: 100000,
		Throttle: 1.0,
	}
}

func (o Options) Validate() error {
	if o.Timestep <= 0 || math.IsNaN(o.Timestep) || math.IsInf(o.Timestep, 0) {
		return fmt.Errorf("%w: timestep must be positive, got %v", ErrInvalidOptions, o.Timestep)
	}
	if o.MaxSteps < 0 {
		return fmt.Errorf("%w: max steps must not be negative, got %d", ErrInvalidOptions, o.MaxSteps)
	}
	if o.Throttle < 0 || o.Throttle > 1 {
		return fmt.Errorf("%w: throttle %v outside [0, 1]", ErrInvalidOptions, o.Throttle)
	}
	return nil
}

// Simulation runs every remaining stage of a vessel for one set of ambient
// conditions.
type Simulation struct {
	opts Options
	log  *logrus.Entry
}

func NewSimulation(opts Options) *Simulation {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Simulation{opts: opts, log: log.WithField("component", "fuelflow")}
}

func (s *Simulation) Options() Options { return s.opts }

// Run simulates stages in firing order, from the vessel's current stage down
// to stage zero. The result is indexed by stage ordinal.
func (s *Simulation) Run(ctx context.Context, v *Vessel, cond Conditions) ([]FuelStats, error) {
	if err := s.opts.Validate(); err != nil {
		return nil, err
	}
	g, err := Build(v)
	if err != nil {
		return nil, err
	}
	return s.RunGraph(ctx, g, cond)
}

// RunGraph simulates an already built graph, consuming it.
func (s *Simulation) RunGraph(ctx context.Context, g *ResourceGraph, cond Conditions) ([]FuelStats, error) {
	if err := s.opts.Validate(); err != nil {
		return nil, err
	}
	stats := make([]FuelStats, g.CurrentStage()+1)
	for stage := g.CurrentStage(); stage >= 0; stage-- {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		sim := NewStageSimulator(g, stage, cond, s.opts)
		st, err := sim.Run()
		if err != nil {
			return nil, err
		}
		st.StagedMass = g.Remove(stage)
		stats[stage] = st

		s.log.WithFields(logrus.Fields{
			"stage":       stage,
			"delta_v":     st.DeltaV,
			"burn_time":   st.DeltaTime,
			"staged_mass": st.StagedMass,
		}).Debug("stage simulated")
	}
	return stats, nil
}
