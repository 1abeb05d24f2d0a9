// Package vessel reads and writes vessel snapshots as YAML.
//
// Masses are in kilograms, thrust in newtons and Isp curves are keyed by
// ambient pressure in atmospheres.
package vessel

import (
	"fmt"
	"os"

	"github.com/san-kum/fuelsim/internal/fuelflow"
	"gopkg.in/yaml.v3"
)

type File struct {
	Name         string                  `yaml:"name"`
	CurrentStage int                     `yaml:"current_stage"`
	Resources    map[string]ResourceSpec `yaml:"resources"`
	Parts        []PartSpec              `yaml:"parts"`
	Links        []LinkSpec              `yaml:"links,omitempty"`
}

type ResourceSpec struct {
	Density float64 `yaml:"density"`
	Flow    string  `yaml:"flow,omitempty"`
}

type PartSpec struct {
	ID              string  `yaml:"id"`
	DryMass         float64 `yaml:"dry_mass"`
	ActivationStage int     `yaml:"activation_stage,omitempty"`
	// DecoupledInStage is omitted for parts that never leave the vessel.
	DecoupledInStage  *int             `yaml:"decoupled_in_stage,omitempty"`
	CrossfeedDisabled bool             `yaml:"crossfeed_disabled,omitempty"`
	Resources         []ResourceAmount `yaml:"resources,omitempty"`
	Engine            *EngineSpec      `yaml:"engine,omitempty"`
}

// ResourceAmount is a part's tank. A zero capacity means full.
type ResourceAmount struct {
	Kind     string  `yaml:"kind"`
	Amount   float64 `yaml:"amount"`
	Capacity float64 `yaml:"capacity,omitempty"`
	Priority int     `yaml:"priority,omitempty"`
}

type EngineSpec struct {
	Kind             string     `yaml:"kind,omitempty"`
	ActiveMode       int        `yaml:"active_mode,omitempty"`
	ThrustLimiter    *float64   `yaml:"thrust_limiter,omitempty"`
	ThrustTransforms []float64  `yaml:"thrust_transforms,omitempty"`
	Modes            []ModeSpec `yaml:"modes"`
}

// ModeSpec gives flows directly or as vacuum thrust. Flows win when both
// are set.
type ModeSpec struct {
	Name           string                `yaml:"name,omitempty"`
	MaxThrust      float64               `yaml:"max_thrust,omitempty"`
	MinThrust      float64               `yaml:"min_thrust,omitempty"`
	MaxFuelFlow    float64               `yaml:"max_fuel_flow,omitempty"`
	MinFuelFlow    float64               `yaml:"min_fuel_flow,omitempty"`
	FlowMultiplier float64               `yaml:"flow_multiplier,omitempty"`
	Isp            []fuelflow.Key        `yaml:"isp"`
	AtmCurve       []fuelflow.Key        `yaml:"atm_curve,omitempty"`
	VelCurve       []fuelflow.Key        `yaml:"vel_curve,omitempty"`
	Propellants    []fuelflow.Propellant `yaml:"propellants"`
}

type LinkSpec struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Kind    string `yaml:"kind,omitempty"`
	Blocked bool   `yaml:"blocked,omitempty"`
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vessel: %w", err)
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Snapshot converts the file into a simulation snapshot. Structural checks
// are left to [fuelflow.Build]; only the textual enums are validated here.
func (f *File) Snapshot() (*fuelflow.Vessel, error) {
	v := &fuelflow.Vessel{
		Name:         f.Name,
		CurrentStage: f.CurrentStage,
		Resources:    make(map[string]fuelflow.ResourceDef, len(f.Resources)),
		Parts:        make([]fuelflow.Part, 0, len(f.Parts)),
		Links:        make([]fuelflow.Link, 0, len(f.Links)),
	}
	for kind, r := range f.Resources {
		flow, err := fuelflow.ParseFlowMode(r.Flow)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", kind, err)
		}
		v.Resources[kind] = fuelflow.ResourceDef{Density: r.Density, Flow: flow}
	}

	for _, ps := range f.Parts {
		p := fuelflow.Part{
			ID:                ps.ID,
			DryMass:           ps.DryMass,
			ActivationStage:   ps.ActivationStage,
			DecoupledInStage:  -1,
			CrossfeedDisabled: ps.CrossfeedDisabled,
		}
		if ps.DecoupledInStage != nil {
			p.DecoupledInStage = *ps.DecoupledInStage
		}
		for _, r := range ps.Resources {
			capacity := r.Capacity
			if capacity == 0 {
				capacity = r.Amount
			}
			p.Resources = append(p.Resources, fuelflow.Resource{
				Kind:     r.Kind,
				Amount:   r.Amount,
				Capacity: capacity,
				Priority: r.Priority,
			})
		}
		if ps.Engine != nil {
			e, err := ps.Engine.model()
			if err != nil {
				return nil, fmt.Errorf("part %q: %w", ps.ID, err)
			}
			p.Engine = e
		}
		v.Parts = append(v.Parts, p)
	}

	for _, ls := range f.Links {
		kind, err := fuelflow.ParseLinkKind(ls.Kind)
		if err != nil {
			return nil, fmt.Errorf("link %s -> %s: %w", ls.From, ls.To, err)
		}
		v.Links = append(v.Links, fuelflow.Link{From: ls.From, To: ls.To, Kind: kind, Blocked: ls.Blocked})
	}
	return v, nil
}

func parseEngineKind(s string) (fuelflow.EngineKind, error) {
	switch s {
	case "", "simple":
		return fuelflow.KindSimple, nil
	case "multimode":
		return fuelflow.KindMultiMode, nil
	case "throttle_locked":
		return fuelflow.KindThrottleLocked, nil
	default:
		return 0, fmt.Errorf("unknown engine kind %q", s)
	}
}

func (es *EngineSpec) model() (*fuelflow.EngineModel, error) {
	kind, err := parseEngineKind(es.Kind)
	if err != nil {
		return nil, err
	}
	e := &fuelflow.EngineModel{
		Kind:             kind,
		ActiveMode:       es.ActiveMode,
		ThrustLimiter:    1,
		ThrustTransforms: append([]float64(nil), es.ThrustTransforms...),
		Modes:            make([]fuelflow.EngineMode, 0, len(es.Modes)),
	}
	if es.ThrustLimiter != nil {
		e.ThrustLimiter = *es.ThrustLimiter
	}
	for _, ms := range es.Modes {
		e.Modes = append(e.Modes, ms.mode(kind))
	}
	return e, nil
}

func (ms ModeSpec) mode(kind fuelflow.EngineKind) fuelflow.EngineMode {
	m := fuelflow.EngineMode{
		Name:           ms.Name,
		MaxFuelFlow:    ms.MaxFuelFlow,
		MinFuelFlow:    ms.MinFuelFlow,
		FlowMultiplier: ms.FlowMultiplier,
		IspCurve:       fuelflow.NewCurve(ms.Isp...),
		Propellants:    append([]fuelflow.Propellant(nil), ms.Propellants...),
	}
	vacIsp := m.IspCurve.Evaluate(0)
	if m.MaxFuelFlow == 0 && ms.MaxThrust > 0 {
		m.MaxFuelFlow = fuelflow.FlowForThrust(ms.MaxThrust, vacIsp)
	}
	if m.MinFuelFlow == 0 && ms.MinThrust > 0 {
		m.MinFuelFlow = fuelflow.FlowForThrust(ms.MinThrust, vacIsp)
	}
	if kind == fuelflow.KindThrottleLocked {
		m.MinFuelFlow = m.MaxFuelFlow
	}
	if len(ms.AtmCurve) > 0 {
		c := fuelflow.NewCurve(ms.AtmCurve...)
		m.AtmCurve = &c
	}
	if len(ms.VelCurve) > 0 {
		c := fuelflow.NewCurve(ms.VelCurve...)
		m.VelCurve = &c
	}
	return m
}

// FromVessel converts a snapshot back into its file form. Engine modes are
// written as flows.
func FromVessel(v *fuelflow.Vessel) *File {
	f := &File{
		Name:         v.Name,
		CurrentStage: v.CurrentStage,
		Resources:    make(map[string]ResourceSpec, len(v.Resources)),
		Parts:        make([]PartSpec, 0, len(v.Parts)),
	}
	for kind, def := range v.Resources {
		f.Resources[kind] = ResourceSpec{Density: def.Density, Flow: def.Flow.String()}
	}
	for _, p := range v.Parts {
		ps := PartSpec{
			ID:                p.ID,
			DryMass:           p.DryMass,
			ActivationStage:   p.ActivationStage,
			CrossfeedDisabled: p.CrossfeedDisabled,
		}
		if p.DecoupledInStage != -1 {
			stage := p.DecoupledInStage
			ps.DecoupledInStage = &stage
		}
		for _, r := range p.Resources {
			ps.Resources = append(ps.Resources, ResourceAmount{
				Kind:     r.Kind,
				Amount:   r.Amount,
				Capacity: r.Capacity,
				Priority: r.Priority,
			})
		}
		if p.Engine != nil {
			ps.Engine = engineSpec(p.Engine)
		}
		f.Parts = append(f.Parts, ps)
	}
	for _, l := range v.Links {
		f.Links = append(f.Links, LinkSpec{From: l.From, To: l.To, Kind: l.Kind.String(), Blocked: l.Blocked})
	}
	return f
}

func engineSpec(e *fuelflow.EngineModel) *EngineSpec {
	limiter := e.ThrustLimiter
	es := &EngineSpec{
		Kind:             e.Kind.String(),
		ActiveMode:       e.ActiveMode,
		ThrustLimiter:    &limiter,
		ThrustTransforms: append([]float64(nil), e.ThrustTransforms...),
		Modes:            make([]ModeSpec, 0, len(e.Modes)),
	}
	for _, m := range e.Modes {
		ms := ModeSpec{
			Name:           m.Name,
			MaxFuelFlow:    m.MaxFuelFlow,
			MinFuelFlow:    m.MinFuelFlow,
			FlowMultiplier: m.FlowMultiplier,
			Isp:            m.IspCurve.Keys(),
			Propellants:    append([]fuelflow.Propellant(nil), m.Propellants...),
		}
		if m.AtmCurve != nil {
			ms.AtmCurve = m.AtmCurve.Keys()
		}
		if m.VelCurve != nil {
			ms.VelCurve = m.VelCurve.Keys()
		}
		es.Modes = append(es.Modes, ms)
	}
	return es
}
