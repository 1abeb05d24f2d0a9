package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/metrics"
	"github.com/san-kum/fuelsim/internal/tracing"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// SnapshotFunc captures the live vessel. It is called on the goroutine that
// starts a run, never concurrently with itself.
type SnapshotFunc func() (*fuelflow.Vessel, error)

// ConditionsFunc supplies the ambient conditions of the atmospheric pass.
type ConditionsFunc func() fuelflow.Conditions

// Options tune a [Scheduler].
type Options struct {
	// CooldownFactor scales the last run's duration into the pause before
	// the next one.
	CooldownFactor float64
	// FailureBackoff is the pause after a failed run.
	FailureBackoff time.Duration
	// WaitPollInterval and WaitTimeout bound a waiting RequestUpdate.
	WaitPollInterval time.Duration
	WaitTimeout      time.Duration

	Simulation fuelflow.Options
	// ProfileObservers replace Simulation.Observer for the named profile
	// (fuelflow.ProfileVacuum or fuelflow.ProfileAtmospheric).
	ProfileObservers map[string]fuelflow.Observer

	Clock   Clock
	Logger  *logrus.Entry
	Metrics *metrics.Collector
	Tracer  trace.Tracer
}

func DefaultOptions() Options {
	return Options{
		CooldownFactor:   2,
		FailureBackoff:   500 * time.Millisecond,
		WaitPollInterval: 5 * time.Millisecond,
		WaitTimeout:      2 * time.Second,
		Simulation:       fuelflow.DefaultOptions(),
	}
}

func (o Options) Validate() error {
	switch {
	case o.CooldownFactor < 0:
		return fmt.Errorf("%w: cooldown factor %v is negative", ErrInvalidOptions, o.CooldownFactor)
	case o.FailureBackoff < 0:
		return fmt.Errorf("%w: failure backoff %v is negative", ErrInvalidOptions, o.FailureBackoff)
	case o.WaitPollInterval <= 0:
		return fmt.Errorf("%w: wait poll interval must be positive", ErrInvalidOptions)
	case o.WaitTimeout <= 0:
		return fmt.Errorf("%w: wait timeout must be positive", ErrInvalidOptions)
	}
	if err := o.Simulation.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// Scheduler runs single-flight background simulations on demand and
// publishes their results atomically.
type Scheduler struct {
	snapshot   SnapshotFunc
	conditions ConditionsFunc
	sim        *fuelflow.Simulation
	profiles   map[string]*fuelflow.Simulation
	opts       Options
	clock      Clock
	log        *logrus.Entry
	metrics    *metrics.Collector
	tracer     trace.Tracer

	mu        sync.Mutex
	consumers map[string]struct{}
	requested bool
	readyAt   time.Time
	lastErr   error
	// done is closed when the latest run finishes.
	done chan struct{}

	running  atomic.Bool
	results  atomic.Pointer[Results]
	runs     atomic.Uint64
	failures atomic.Uint64
}

func New(snapshot SnapshotFunc, conditions ConditionsFunc, opts Options) (*Scheduler, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot func", ErrInvalidOptions)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if conditions == nil {
		conditions = func() fuelflow.Conditions { return fuelflow.Vacuum().Conditions }
	}

	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "scheduler")

	simOpts := opts.Simulation
	simOpts.Logger = log

	s := &Scheduler{
		snapshot:   snapshot,
		conditions: conditions,
		sim:        fuelflow.NewSimulation(simOpts),
		opts:       opts,
		clock:      opts.Clock,
		log:        log,
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
		profiles:   make(map[string]*fuelflow.Simulation, len(opts.ProfileObservers)),
		consumers:  make(map[string]struct{}),
	}
	for name, obs := range opts.ProfileObservers {
		o := simOpts
		o.Observer = obs
		s.profiles[name] = fuelflow.NewSimulation(o)
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.tracer == nil {
		s.tracer = tracing.Tracer()
	}
	return s, nil
}

// RequestUpdate registers the consumer's interest for this cycle and starts
// a run when one is due. With wait set it then blocks, for at most
// WaitTimeout, until the in-flight run finishes. It reports whether
// published results are available.
func (s *Scheduler) RequestUpdate(token string, wait bool) bool {
	s.mu.Lock()
	s.consumers[token] = struct{}{}
	s.requested = true
	n := len(s.consumers)
	s.mu.Unlock()

	s.metrics.IncUpdateRequests()
	s.metrics.SetConsumers(n)

	s.tryStart()
	if wait {
		s.waitIdle()
	}
	return s.results.Load() != nil
}

// Tick closes the current cycle. Consumers are dropped if none requested an
// update since the previous tick; otherwise a due run is started.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	if !s.requested && len(s.consumers) > 0 {
		s.log.WithField("consumers", len(s.consumers)).Debug("no update requested, going idle")
		clear(s.consumers)
	}
	s.requested = false
	n := len(s.consumers)
	s.mu.Unlock()

	s.metrics.SetConsumers(n)
	s.tryStart()
}

// tryStart launches a run if consumers are waiting, none is in flight and
// the cooldown has passed.
func (s *Scheduler) tryStart() bool {
	s.mu.Lock()
	now := s.clock.Now()
	if len(s.consumers) == 0 || s.running.Load() || now.Before(s.readyAt) {
		s.mu.Unlock()
		return false
	}
	s.running.Store(true)
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	v, err := s.capture()
	if err != nil {
		s.fail(err, resultOf(err))
		close(done)
		return false
	}
	go s.run(v, s.conditions(), now, done)
	return true
}

func (s *Scheduler) capture() (v *fuelflow.Vessel, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: snapshot: %v", ErrRunPanicked, r)
		}
	}()
	v, err = s.snapshot()
	if err != nil {
		return nil, fmt.Errorf("capture snapshot: %w", err)
	}
	if v == nil {
		return nil, ErrNoSnapshot
	}
	return v.Clone(), nil
}

func (s *Scheduler) run(v *fuelflow.Vessel, cond fuelflow.Conditions, started time.Time, done chan struct{}) {
	defer close(done)

	ctx, span := s.tracer.Start(context.Background(), "fuelflow.run",
		trace.WithAttributes(
			attribute.String("vessel", v.Name),
			attribute.Int("stage", v.CurrentStage),
		))
	defer span.End()

	s.log.WithFields(logrus.Fields{"vessel": v.Name, "stage": v.CurrentStage}).Debug("simulation run started")

	profiles := []fuelflow.Profile{fuelflow.Vacuum(), fuelflow.Atmospheric(cond)}
	stats, err := s.simulate(ctx, v, profiles)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.fail(err, resultOf(err))
		return
	}

	res := &Results{
		RunID:       uuid.Must(uuid.NewV7()).String(),
		Vessel:      v.Name,
		Conditions:  cond,
		Vacuum:      stats[0],
		Atmospheric: stats[1],
		Started:     started,
		Duration:    s.clock.Now().Sub(started),
	}
	span.SetAttributes(
		attribute.String("run_id", res.RunID),
		attribute.Float64("delta_v.vacuum", fuelflow.TotalDeltaV(res.Vacuum)),
	)
	s.publish(res)
}

// simulate runs every profile on its own graph in parallel. Panics inside a
// pass are recovered into errors.
func (s *Scheduler) simulate(ctx context.Context, v *fuelflow.Vessel, profiles []fuelflow.Profile) ([][]fuelflow.FuelStats, error) {
	out := make([][]fuelflow.FuelStats, len(profiles))

	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range profiles {
		eg.Go(func() (err error) {
			ctx, span := s.tracer.Start(ctx, "fuelflow.profile", trace.WithAttributes(attribute.String("profile", p.Name)))
			defer span.End()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %s pass: %v", ErrRunPanicked, p.Name, r)
					span.RecordError(err)
				}
			}()

			sim := s.sim
			if ps, ok := s.profiles[p.Name]; ok {
				sim = ps
			}
			stats, err := sim.Run(ctx, v, p.Conditions)
			if err != nil {
				return fmt.Errorf("%s pass: %w", p.Name, err)
			}
			span.SetAttributes(attribute.Int("stages", len(stats)))
			out[i] = stats
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Scheduler) publish(res *Results) {
	cooldown := time.Duration(float64(res.Duration) * s.opts.CooldownFactor)

	s.results.Store(res)
	s.runs.Add(1)

	s.mu.Lock()
	s.readyAt = s.clock.Now().Add(cooldown)
	s.lastErr = nil
	s.running.Store(false)
	s.mu.Unlock()

	s.metrics.ObserveRun(metrics.ResultOK, res.Duration)
	s.metrics.SetCooldown(cooldown)
	s.metrics.SetPublishedStages(res.Stages())

	s.log.WithFields(logrus.Fields{
		"run_id":   res.RunID,
		"stages":   res.Stages(),
		"duration": res.Duration,
		"cooldown": cooldown,
	}).Debug("simulation results published")
}

func (s *Scheduler) fail(err error, result string) {
	s.failures.Add(1)

	s.mu.Lock()
	s.readyAt = s.clock.Now().Add(s.opts.FailureBackoff)
	s.lastErr = err
	s.running.Store(false)
	s.mu.Unlock()

	s.metrics.ObserveRun(result, 0)
	s.metrics.SetCooldown(s.opts.FailureBackoff)

	s.log.WithError(err).WithField("backoff", s.opts.FailureBackoff).Warn("simulation run failed, keeping previous results")
}

func (s *Scheduler) waitIdle() {
	if !s.running.Load() {
		return
	}
	timeout := time.NewTimer(s.opts.WaitTimeout)
	defer timeout.Stop()
	poll := time.NewTicker(s.opts.WaitPollInterval)
	defer poll.Stop()

	for s.running.Load() {
		select {
		case <-poll.C:
		case <-timeout.C:
			s.log.WithField("timeout", s.opts.WaitTimeout).Debug("gave up waiting for simulation run")
			return
		}
	}
}

// Results returns the latest publication, or nil before the first one.
func (s *Scheduler) Results() *Results { return s.results.Load() }

// Vacuum returns the latest vacuum stats, indexed by stage ordinal.
func (s *Scheduler) Vacuum() []fuelflow.FuelStats {
	if r := s.results.Load(); r != nil {
		return r.Vacuum
	}
	return nil
}

// Atmospheric returns the latest atmospheric stats, indexed by stage ordinal.
func (s *Scheduler) Atmospheric() []fuelflow.FuelStats {
	if r := s.results.Load(); r != nil {
		return r.Atmospheric
	}
	return nil
}

// Running reports whether a run is in flight.
func (s *Scheduler) Running() bool { return s.running.Load() }

// Consumers is the number of consumers registered for the current cycle.
func (s *Scheduler) Consumers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.consumers)
}

// Runs is the number of successful publications.
func (s *Scheduler) Runs() uint64 { return s.runs.Load() }

// Failures is the number of failed runs.
func (s *Scheduler) Failures() uint64 { return s.failures.Load() }

// LastError returns the error of the latest run, or nil if it succeeded.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ReadyAt is the earliest time the next run may start.
func (s *Scheduler) ReadyAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyAt
}

// Wait blocks until the run in flight when it is called, if any, has
// finished. It may be called from any goroutine.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func resultOf(err error) string {
	if errors.Is(err, ErrRunPanicked) {
		return metrics.ResultPanicked
	}
	return metrics.ResultFailed
}
