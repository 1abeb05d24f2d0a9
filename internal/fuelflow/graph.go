package fuelflow

import (
	"fmt"
	"math"
	"sort"
)

// ResourcePool is one propellant reservoir inside a [ResourceGraph].
type ResourcePool struct {
	Kind     string
	Amount   float64
	Capacity float64
	Density  float64
	Flow     FlowMode
	Priority int
	Owner    int
}

// Mass is the propellant mass currently held, in kg.
func (p ResourcePool) Mass() float64 {
	return p.Amount * p.Density
}

// Empty reports whether nothing is left to draw.
func (p ResourcePool) Empty() bool {
	return p.Amount <= 0
}

type edge struct {
	to      int
	kind    LinkKind
	blocked bool
}

type partNode struct {
	id          string
	dryMass     float64
	activation  int
	decoupledIn int
	crossfeed   bool
	attached    bool
	pools       []int
	adj         []edge
	engine      *EngineModel
}

// ResourceGraph is an arena of parts and pools with integer-indexed
// adjacency. It is owned by a single simulation run.
type ResourceGraph struct {
	parts        []partNode
	pools        []ResourcePool
	index        map[string]int
	defs         map[string]ResourceDef
	currentStage int
}

// PartInfo is a read-only view of a part in the graph.
type PartInfo struct {
	Index            int
	ID               string
	DryMass          float64
	ActivationStage  int
	DecoupledInStage int
	Attached         bool
	HasEngine        bool
}

// Build validates a snapshot and lays it out as a graph.
func Build(v *Vessel) (*ResourceGraph, error) {
	if v == nil {
		return nil, snapshotErr("", "nil vessel")
	}
	if v.CurrentStage < 0 {
		return nil, snapshotErr("", "current stage %d is negative", v.CurrentStage)
	}

	g := &ResourceGraph{
		parts:        make([]partNode, 0, len(v.Parts)),
		index:        make(map[string]int, len(v.Parts)),
		defs:         make(map[string]ResourceDef, len(v.Resources)),
		currentStage: v.CurrentStage,
	}
	for kind, def := range v.Resources {
		if def.Density < 0 || math.IsNaN(def.Density) {
			return nil, snapshotErr("", "resource %q has invalid density %v", kind, def.Density)
		}
		g.defs[kind] = def
	}

	for _, p := range v.Parts {
		if err := g.addPart(p); err != nil {
			return nil, err
		}
	}

	for _, l := range v.Links {
		if err := g.addLink(l); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (g *ResourceGraph) addPart(p Part) error {
	if p.ID == "" {
		return snapshotErr("", "part without id")
	}
	if _, dup := g.index[p.ID]; dup {
		return snapshotErr(p.ID, "duplicate part id")
	}
	if p.DryMass < 0 || math.IsNaN(p.DryMass) || math.IsInf(p.DryMass, 0) {
		return snapshotErr(p.ID, "invalid dry mass %v", p.DryMass)
	}
	if p.DecoupledInStage < -1 {
		return snapshotErr(p.ID, "decoupled stage %d below -1", p.DecoupledInStage)
	}

	idx := len(g.parts)
	node := partNode{
		id:          p.ID,
		dryMass:     p.DryMass,
		activation:  p.ActivationStage,
		decoupledIn: p.DecoupledInStage,
		crossfeed:   !p.CrossfeedDisabled,
		attached:    true,
	}

	seen := make(map[string]bool, len(p.Resources))
	for _, r := range p.Resources {
		def, ok := g.defs[r.Kind]
		if !ok {
			return snapshotErr(p.ID, "unknown resource %q", r.Kind)
		}
		if seen[r.Kind] {
			return snapshotErr(p.ID, "resource %q listed twice", r.Kind)
		}
		seen[r.Kind] = true
		if r.Capacity < 0 || r.Amount < 0 || r.Amount > r.Capacity || math.IsNaN(r.Amount) {
			return snapshotErr(p.ID, "resource %q amount %v outside [0, %v]", r.Kind, r.Amount, r.Capacity)
		}
		node.pools = append(node.pools, len(g.pools))
		g.pools = append(g.pools, ResourcePool{
			Kind:     r.Kind,
			Amount:   r.Amount,
			Capacity: r.Capacity,
			Density:  def.Density,
			Flow:     def.Flow,
			Priority: r.Priority,
			Owner:    idx,
		})
	}

	if p.Engine != nil {
		if err := p.Engine.Validate(); err != nil {
			return &GraphError{Part: p.ID, Reason: err.Error(), Wrapped: ErrInvalidSnapshot}
		}
		for _, m := range p.Engine.Modes {
			ratioMass := 0.0
			for _, prop := range m.Propellants {
				def, ok := g.defs[prop.Resource]
				if !ok {
					return snapshotErr(p.ID, "engine burns unknown resource %q", prop.Resource)
				}
				ratioMass += prop.Ratio * def.Density
			}
			if ratioMass <= 0 && m.MaxFuelFlow > 0 {
				return snapshotErr(p.ID, "engine mode %q burns only massless propellant", m.Name)
			}
		}
		node.engine = p.Engine
	}

	g.index[p.ID] = idx
	g.parts = append(g.parts, node)
	return nil
}

func (g *ResourceGraph) addLink(l Link) error {
	from, ok := g.index[l.From]
	if !ok {
		return snapshotErr(l.From, "link references unknown part")
	}
	to, ok := g.index[l.To]
	if !ok {
		return snapshotErr(l.To, "link references unknown part")
	}
	if from == to {
		return snapshotErr(l.From, "link to itself")
	}
	switch l.Kind {
	case LinkFuelLine:
		// walked upstream, from the consumer towards the source
		g.parts[to].adj = append(g.parts[to].adj, edge{to: from, kind: l.Kind, blocked: l.Blocked})
	case LinkStack, LinkSurface:
		g.parts[from].adj = append(g.parts[from].adj, edge{to: to, kind: l.Kind, blocked: l.Blocked})
		g.parts[to].adj = append(g.parts[to].adj, edge{to: from, kind: l.Kind, blocked: l.Blocked})
	default:
		return snapshotErr(l.From, "unknown link kind %v", l.Kind)
	}
	return nil
}

func (g *ResourceGraph) CurrentStage() int { return g.currentStage }

// Mass is the total mass of attached parts and their propellant.
func (g *ResourceGraph) Mass() float64 {
	total := 0.0
	for _, p := range g.parts {
		if !p.attached {
			continue
		}
		total += p.dryMass
		for _, pi := range p.pools {
			total += g.pools[pi].Mass()
		}
	}
	return total
}

func (g *ResourceGraph) partMass(i int) float64 {
	m := g.parts[i].dryMass
	for _, pi := range g.parts[i].pools {
		m += g.pools[pi].Mass()
	}
	return m
}

// Remove detaches every part decoupled at the given stage and returns the
// mass that left the vehicle.
func (g *ResourceGraph) Remove(stage int) float64 {
	staged := 0.0
	for i := range g.parts {
		p := &g.parts[i]
		if p.attached && p.decoupledIn == stage {
			staged += g.partMass(i)
			p.attached = false
		}
	}
	return staged
}

// Pool returns a copy of pool i.
func (g *ResourceGraph) Pool(i int) ResourcePool { return g.pools[i] }

func (g *ResourceGraph) NumPools() int { return len(g.pools) }

// PoolsOf returns the pool indices owned by a part, by id.
func (g *ResourceGraph) PoolsOf(partID string) []int {
	i, ok := g.index[partID]
	if !ok {
		return nil
	}
	return append([]int(nil), g.parts[i].pools...)
}

func (g *ResourceGraph) Part(i int) PartInfo {
	p := g.parts[i]
	return PartInfo{
		Index:            i,
		ID:               p.id,
		DryMass:          p.dryMass,
		ActivationStage:  p.activation,
		DecoupledInStage: p.decoupledIn,
		Attached:         p.attached,
		HasEngine:        p.engine != nil,
	}
}

func (g *ResourceGraph) NumParts() int { return len(g.parts) }

// Engines returns the attached engine parts burning during a stage: those
// already ignited at or before it.
func (g *ResourceGraph) Engines(stage int) []int {
	var out []int
	for i, p := range g.parts {
		if p.attached && p.engine != nil && p.activation >= stage {
			out = append(out, i)
		}
	}
	return out
}

func (g *ResourceGraph) String() string {
	attached := 0
	for _, p := range g.parts {
		if p.attached {
			attached++
		}
	}
	kinds := make([]string, 0, len(g.defs))
	for k := range g.defs {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return fmt.Sprintf("graph{parts=%d/%d pools=%d resources=%v stage=%d}", attached, len(g.parts), len(g.pools), kinds, g.currentStage)
}
