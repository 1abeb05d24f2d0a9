package config

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/fuelsim/internal/atmosphere"
	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/scheduler"
	"github.com/san-kum/fuelsim/internal/tracing"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimestep         = 1.0
	DefaultMaxSteps         = 100000
	DefaultThrottle         = 1.0
	DefaultCooldownFactor   = 2.0
	DefaultFailureBackoff   = 500 * time.Millisecond
	DefaultWaitPollInterval = 5 * time.Millisecond
	DefaultWaitTimeout      = 2 * time.Second
	DefaultTickRate         = 20 * time.Millisecond
	DefaultBody             = "kerbin"
	DefaultLogLevel         = "info"
)

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Atmosphere AtmosphereConfig `yaml:"atmosphere"`
	Tracing    tracing.Config   `yaml:"tracing"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	LogLevel   string           `yaml:"log_level"`
}

type SimulationConfig struct {
	Timestep float64 `yaml:"timestep"`
	MaxSteps int     `yaml:"max_steps"`
	Throttle float64 `yaml:"throttle"`
}

type SchedulerConfig struct {
	CooldownFactor   float64       `yaml:"cooldown_factor"`
	FailureBackoff   time.Duration `yaml:"failure_backoff"`
	WaitPollInterval time.Duration `yaml:"wait_poll_interval"`
	WaitTimeout      time.Duration `yaml:"wait_timeout"`
	TickRate         time.Duration `yaml:"tick_rate"`
}

// AtmosphereConfig places the vessel for the atmospheric pass.
type AtmosphereConfig struct {
	Body     string  `yaml:"body"`
	Altitude float64 `yaml:"altitude"` // m
	Speed    float64 `yaml:"speed"`    // m/s
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Timestep: DefaultTimestep,
			MaxSteps: DefaultMaxSteps,
			Throttle: DefaultThrottle,
		},
		Scheduler: SchedulerConfig{
			CooldownFactor:   DefaultCooldownFactor,
			FailureBackoff:   DefaultFailureBackoff,
			WaitPollInterval: DefaultWaitPollInterval,
			WaitTimeout:      DefaultWaitTimeout,
			TickRate:         DefaultTickRate,
		},
		Atmosphere: AtmosphereConfig{
			Body: DefaultBody,
		},
		Tracing:  tracing.DefaultConfig(),
		LogLevel: DefaultLogLevel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.SimulationOptions().Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.SchedulerOptions().Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if c.Scheduler.TickRate <= 0 {
		return fmt.Errorf("scheduler: tick rate must be positive, got %v", c.Scheduler.TickRate)
	}
	if _, err := atmosphere.LookupBody(c.Atmosphere.Body); err != nil {
		return fmt.Errorf("atmosphere: %w", err)
	}
	if c.Atmosphere.Altitude < 0 || c.Atmosphere.Speed < 0 {
		return fmt.Errorf("atmosphere: altitude and speed must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SimulationOptions converts the simulation section into engine options.
func (c *Config) SimulationOptions() fuelflow.Options {
	opts := fuelflow.DefaultOptions()
	opts.Timestep = c.Simulation.Timestep
	opts.MaxSteps = c.Simulation.MaxSteps
	opts.Throttle = c.Simulation.Throttle
	return opts
}

// SchedulerOptions converts the scheduler section, embedding the simulation
// options.
func (c *Config) SchedulerOptions() scheduler.Options {
	opts := scheduler.DefaultOptions()
	opts.CooldownFactor = c.Scheduler.CooldownFactor
	opts.FailureBackoff = c.Scheduler.FailureBackoff
	opts.WaitPollInterval = c.Scheduler.WaitPollInterval
	opts.WaitTimeout = c.Scheduler.WaitTimeout
	opts.Simulation = c.SimulationOptions()
	return opts
}

// Conditions resolves the ambient conditions of the atmospheric pass.
func (c *Config) Conditions() (fuelflow.Conditions, error) {
	body, err := atmosphere.LookupBody(c.Atmosphere.Body)
	if err != nil {
		return fuelflow.Conditions{}, err
	}
	return atmosphere.Conditions(body.Model, c.Atmosphere.Altitude, c.Atmosphere.Speed), nil
}
