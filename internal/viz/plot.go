package viz

import (
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fuelsim/internal/fuelflow"
)

// CumulativeDeltaV returns the delta-v gained after each stage in firing
// order, starting from zero before the first burn.
func CumulativeDeltaV(stats []fuelflow.FuelStats) []float64 {
	out := make([]float64, 0, len(stats)+1)
	out = append(out, 0)
	total := 0.0
	for stage := len(stats) - 1; stage >= 0; stage-- {
		total += stats[stage].DeltaV
		out = append(out, total)
	}
	return out
}

// MassProfile returns the vessel mass at each stage boundary in firing
// order: every stage's start mass, then the final end mass.
func MassProfile(stats []fuelflow.FuelStats) []float64 {
	out := make([]float64, 0, len(stats)+1)
	for stage := len(stats) - 1; stage >= 0; stage-- {
		out = append(out, stats[stage].StartMass)
	}
	if len(stats) > 0 {
		out = append(out, stats[0].EndMass)
	}
	return out
}

// DeltaVPlot draws the cumulative delta-v of both profiles, vacuum first.
func (r *Renderer) DeltaVPlot(vacuum, atmospheric []fuelflow.FuelStats, width, height int) string {
	series := [][]float64{CumulativeDeltaV(vacuum)}
	if len(atmospheric) > 0 {
		series = append(series, CumulativeDeltaV(atmospheric))
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Yellow),
		asciigraph.Caption("cumulative Δv (m/s) by stage: vacuum, atmospheric"),
	)
}

func (r *Renderer) MassPlot(stats []fuelflow.FuelStats, width, height int) string {
	data := MassProfile(stats)
	if len(data) == 0 {
		data = []float64{0}
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("vessel mass (kg) at stage boundaries"),
	)
}
