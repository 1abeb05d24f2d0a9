package fuelflow

import "fmt"

// FlowMode controls how far a resource may travel between parts.
type FlowMode int

const (
	// FlowStack follows crossfeed-enabled links.
	FlowStack FlowMode = iota
	// FlowAll reaches every attached part.
	FlowAll
	// FlowNone stays inside the owning part.
	FlowNone
)

func (m FlowMode) String() string {
	switch m {
	case FlowStack:
		return "stack"
	case FlowAll:
		return "all"
	case FlowNone:
		return "none"
	default:
		return fmt.Sprintf("FlowMode(%d)", int(m))
	}
}

func ParseFlowMode(s string) (FlowMode, error) {
	switch s {
	case "", "stack":
		return FlowStack, nil
	case "all":
		return FlowAll, nil
	case "none":
		return FlowNone, nil
	default:
		return 0, fmt.Errorf("unknown flow mode %q", s)
	}
}

// LinkKind is the kind of connection between two parts.
type LinkKind int

const (
	LinkStack LinkKind = iota
	LinkFuelLine
	LinkSurface
)

func (k LinkKind) String() string {
	switch k {
	case LinkStack:
		return "stack"
	case LinkFuelLine:
		return "fuel_line"
	case LinkSurface:
		return "surface"
	default:
		return fmt.Sprintf("LinkKind(%d)", int(k))
	}
}

func ParseLinkKind(s string) (LinkKind, error) {
	switch s {
	case "", "stack":
		return LinkStack, nil
	case "fuel_line", "fuelline":
		return LinkFuelLine, nil
	case "surface":
		return LinkSurface, nil
	default:
		return 0, fmt.Errorf("unknown link kind %q", s)
	}
}

// ResourceDef describes a propellant kind. Density is kg per unit.
type ResourceDef struct {
	Density float64
	Flow    FlowMode
}

// Resource is the amount of one kind held by a part.
type Resource struct {
	Kind     string
	Amount   float64
	Capacity float64
	// Priority orders drainage: higher priority pools empty first.
	Priority int
}

// Part is a vehicle part in a snapshot.
type Part struct {
	ID      string
	DryMass float64

	// ActivationStage is the stage whose firing ignites the part's engine.
	ActivationStage int
	// DecoupledInStage is the last stage ordinal during which the part stays
	// attached; it is removed once that stage has burned. -1 means never.
	DecoupledInStage int

	CrossfeedDisabled bool
	Resources         []Resource
	Engine            *EngineModel
}

// Link connects two parts. Fuel lines carry propellant from From to To.
type Link struct {
	From    string
	To      string
	Kind    LinkKind
	Blocked bool
}

// Vessel is the read-only snapshot of a vehicle handed to a simulation run.
type Vessel struct {
	Name         string
	CurrentStage int
	Resources    map[string]ResourceDef
	Parts        []Part
	Links        []Link
}

// Clone returns a deep copy, so a run never shares state with the producer.
func (v *Vessel) Clone() *Vessel {
	if v == nil {
		return nil
	}
	c := &Vessel{
		Name:         v.Name,
		CurrentStage: v.CurrentStage,
		Resources:    make(map[string]ResourceDef, len(v.Resources)),
		Parts:        make([]Part, len(v.Parts)),
		Links:        append([]Link(nil), v.Links...),
	}
	for k, def := range v.Resources {
		c.Resources[k] = def
	}
	for i, p := range v.Parts {
		p.Resources = append([]Resource(nil), p.Resources...)
		p.Engine = p.Engine.Clone()
		c.Parts[i] = p
	}
	return c
}
