package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the result label of fuelsim_runs_total.
const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultPanicked = "panicked"
)

// Collector exposes scheduler metrics. Every recording method is safe on a
// nil receiver, so callers may leave metrics disabled.
type Collector struct {
	gatherer prometheus.Gatherer

	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	Cooldown        prometheus.Gauge
	Consumers       prometheus.Gauge
	UpdateRequests  prometheus.Counter
	PublishedStages prometheus.Gauge
}

// NewCollector registers fuelsim metrics against reg, defaulting to the
// global registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelsim_runs_total",
		Help: "Completed simulation runs, labeled by result.",
	}, []string{"result"}), "fuelsim_runs_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fuelsim_run_duration_seconds",
		Help:    "Wall-clock duration of simulation runs.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}), "fuelsim_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	cooldown, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fuelsim_cooldown_seconds",
		Help: "Delay imposed before the next run may start.",
	}), "fuelsim_cooldown_seconds")
	if err != nil {
		return nil, err
	}

	consumers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fuelsim_consumers",
		Help: "Consumers that requested an update during the current cycle.",
	}), "fuelsim_consumers")
	if err != nil {
		return nil, err
	}

	requests, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fuelsim_update_requests_total",
		Help: "Update requests received from consumers.",
	}), "fuelsim_update_requests_total")
	if err != nil {
		return nil, err
	}

	stages, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fuelsim_published_stages",
		Help: "Stages in the most recently published vacuum result.",
	}), "fuelsim_published_stages")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		Runs:            runs,
		RunDuration:     duration,
		Cooldown:        cooldown,
		Consumers:       consumers,
		UpdateRequests:  requests,
		PublishedStages: stages,
	}, nil
}

// Gatherer returns the gatherer the collector was registered with.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveRun counts a finished run and, for successful ones, records its duration.
func (c *Collector) ObserveRun(result string, d time.Duration) {
	if c == nil {
		return
	}
	if c.Runs != nil {
		c.Runs.WithLabelValues(result).Inc()
	}
	if result == ResultOK && c.RunDuration != nil {
		c.RunDuration.Observe(d.Seconds())
	}
}

func (c *Collector) SetCooldown(d time.Duration) {
	if c == nil || c.Cooldown == nil {
		return
	}
	c.Cooldown.Set(d.Seconds())
}

func (c *Collector) SetConsumers(n int) {
	if c == nil || c.Consumers == nil {
		return
	}
	c.Consumers.Set(float64(n))
}

func (c *Collector) IncUpdateRequests() {
	if c == nil || c.UpdateRequests == nil {
		return
	}
	c.UpdateRequests.Inc()
}

func (c *Collector) SetPublishedStages(n int) {
	if c == nil || c.PublishedStages == nil {
		return
	}
	c.PublishedStages.Set(float64(n))
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
