// Package optim evaluates an objective over a grid of parameter values.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Point is one combination of parameter values, keyed by parameter name.
type Point map[string]float64

// Objective scores a point. It is called concurrently.
type Objective func(ctx context.Context, p Point) (float64, error)

// Sample is an evaluated point.
type Sample struct {
	Point Point
	Value float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: parameter %q has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.GOMAXPROCS(0)}, nil
}

// WithWorkers bounds the number of concurrent evaluations.
func (g *GridSearch) WithWorkers(n int) *GridSearch {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Maximize makes Search pick the largest value instead of the smallest.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Points enumerates the grid with the last parameter varying fastest.
func (g *GridSearch) Points() []Point {
	var out []Point
	g.pointsRecursive(0, make(Point), &out)
	return out
}

func (g *GridSearch) pointsRecursive(depth int, current Point, out *[]Point) {
	if depth == len(g.paramNames) {
		p := make(Point, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		g.pointsRecursive(depth+1, current, out)
	}
	delete(current, paramName)
}

// Evaluate scores every point of the grid. Samples keep the order of
// [GridSearch.Points]; the first error cancels the rest.
func (g *GridSearch) Evaluate(ctx context.Context, obj Objective) ([]Sample, error) {
	points := g.Points()
	samples := make([]Sample, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, p := range points {
		eg.Go(func() error {
			val, err := obj(ctx, p)
			if err != nil {
				return fmt.Errorf("optim: evaluate %v: %w", p, err)
			}
			samples[i] = Sample{Point: p, Value: val}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

// Search evaluates the grid and returns the best point and its value.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (Point, float64, error) {
	samples, err := g.Evaluate(ctx, obj)
	if err != nil {
		return nil, 0, err
	}
	return g.Best(samples)
}

// Best picks the winning sample. Ties go to the earliest point; NaN values
// never win.
func (g *GridSearch) Best(samples []Sample) (Point, float64, error) {
	best := math.Inf(1)
	if g.maximize {
		best = math.Inf(-1)
	}
	var bestParams Point
	for _, s := range samples {
		if math.IsNaN(s.Value) {
			continue
		}
		if bestParams == nil || g.better(s.Value, best) {
			best = s.Value
			bestParams = s.Point
		}
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("optim: no point produced a value")
	}
	return bestParams, best, nil
}

func (g *GridSearch) better(v, best float64) bool {
	if g.maximize {
		return v > best
	}
	return v < best
}

// Range returns n evenly spaced values from lo to hi inclusive.
func Range(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}
