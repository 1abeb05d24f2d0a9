package config

import (
	"sort"
	"time"
)

var Presets = map[string]*Config{
	// in flight: coarse steps, adaptive cadence
	"flight": DefaultConfig(),
	// vessel editor: sea-level launch, more frequent refresh
	"editor": func() *Config {
		c := DefaultConfig()
		c.Scheduler.CooldownFactor = 1
		c.Scheduler.WaitTimeout = 5 * time.Second
		c.Atmosphere.Altitude = 0
		return c
	}(),
	"fine": func() *Config {
		c := DefaultConfig()
		c.Simulation.Timestep = 0.05
		c.Simulation.MaxSteps = 1000000
		return c
	}(),
	"coarse": func() *Config {
		c := DefaultConfig()
		c.Simulation.Timestep = 5
		c.Simulation.MaxSteps = 20000
		c.Scheduler.CooldownFactor = 4
		return c
	}(),
}

// GetPreset returns a copy of the named preset, or nil if it does not exist.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
