package fuelflow

import "sort"

// CrossfeedPolicy decides which pools an engine on a part may draw a
// resource kind from. Precedence between fuel lines, stack adjacency and
// per-part crossfeed flags is vehicle-model specific, so it is pluggable.
type CrossfeedPolicy interface {
	Sources(g *ResourceGraph, part int, kind string) []int
}

// CrossfeedFunc adapts a function to [CrossfeedPolicy].
type CrossfeedFunc func(g *ResourceGraph, part int, kind string) []int

func (f CrossfeedFunc) Sources(g *ResourceGraph, part int, kind string) []int {
	return f(g, part, kind)
}

// DefaultCrossfeed resolves sources from the resource's flow mode:
//
//   - none: pools on the engine's own part
//   - all: pools on every attached part
//   - stack: a walk over links. Fuel lines always pass, upstream only.
//     Stack links pass unless blocked, and only out of parts with crossfeed
//     enabled (the engine's own part always expands). Surface links never pass.
type DefaultCrossfeed struct{}

func (DefaultCrossfeed) Sources(g *ResourceGraph, part int, kind string) []int {
	mode := g.defs[kind].Flow
	switch mode {
	case FlowNone:
		return g.poolsOn([]int{part}, kind)
	case FlowAll:
		var attached []int
		for i, p := range g.parts {
			if p.attached {
				attached = append(attached, i)
			}
		}
		return g.poolsOn(attached, kind)
	default:
		return g.poolsOn(g.reachable(part), kind)
	}
}

func (g *ResourceGraph) reachable(start int) []int {
	visited := make([]bool, len(g.parts))
	visited[start] = true
	queue := []int{start}
	for i := 0; i < len(queue); i++ {
		p := queue[i]
		expandStack := p == start || g.parts[p].crossfeed
		for _, e := range g.parts[p].adj {
			if visited[e.to] || !g.parts[e.to].attached {
				continue
			}
			switch e.kind {
			case LinkFuelLine:
			case LinkStack:
				if e.blocked || !expandStack {
					continue
				}
			default:
				continue
			}
			visited[e.to] = true
			queue = append(queue, e.to)
		}
	}
	return queue
}

func (g *ResourceGraph) poolsOn(parts []int, kind string) []int {
	var out []int
	for _, p := range parts {
		if !g.parts[p].attached {
			continue
		}
		for _, pi := range g.parts[p].pools {
			if g.pools[pi].Kind == kind {
				out = append(out, pi)
			}
		}
	}
	sort.Ints(out)
	return out
}

// drawGroup narrows sources to the non-empty pools of highest priority.
// An engine splits its demand for a resource evenly across the group.
func (g *ResourceGraph) drawGroup(sources []int) []int {
	best := 0
	var group []int
	for _, pi := range sources {
		pool := g.pools[pi]
		if pool.Empty() {
			continue
		}
		switch {
		case len(group) == 0 || pool.Priority > best:
			best = pool.Priority
			group = append(group[:0], pi)
		case pool.Priority == best:
			group = append(group, pi)
		}
	}
	return group
}
