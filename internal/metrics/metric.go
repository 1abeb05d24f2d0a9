package metrics

import (
	"sync"

	"github.com/san-kum/fuelsim/internal/fuelflow"
)

// StepMetric summarises the burn steps of a simulation run.
type StepMetric interface {
	Name() string
	Observe(stage int, step fuelflow.FuelStats)
	Value() float64
	Reset()
}

// Recorder fans simulation callbacks out to a set of step metrics. It
// implements fuelflow.Observer and is safe for concurrent profile runs.
type Recorder struct {
	mu        sync.Mutex
	metrics   []StepMetric
	flameouts int
}

func NewRecorder(metrics ...StepMetric) *Recorder {
	return &Recorder{metrics: metrics}
}

func (r *Recorder) OnStep(stage int, step fuelflow.FuelStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.metrics {
		m.Observe(stage, step)
	}
}

func (r *Recorder) OnFlameout(stage int, part string, t float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flameouts++
}

// Flameouts is the number of engine flameouts seen so far.
func (r *Recorder) Flameouts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flameouts
}

// Values returns the current value of every metric, keyed by name.
func (r *Recorder) Values() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.metrics {
		m.Reset()
	}
	r.flameouts = 0
}
