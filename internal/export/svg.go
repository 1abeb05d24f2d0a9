// Package export renders stage series as standalone SVG charts.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/viz"
)

// Series is one polyline of a chart. X is the index of each value.
type Series struct {
	Values []float64
	Stroke string
}

// SeriesToSVG draws every series on shared axes. Series with fewer than two
// values are skipped.
func SeriesToSVG(series []Series, width, height int) string {
	minX, maxX := 0.0, 0.0
	minY, maxY := 0.0, 0.0
	first := true
	for _, s := range series {
		if len(s.Values) < 2 {
			continue
		}
		maxX = max(maxX, float64(len(s.Values)-1))
		for _, v := range s.Values {
			if first {
				minY, maxY = v, v
				first = false
			}
			minY = min(minY, v)
			maxY = max(maxY, v)
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, s := range series {
		if len(s.Values) < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Stroke))
		for i, v := range s.Values {
			x := (float64(i) - minX) / rangeX * float64(width)
			y := float64(height) - (v-minY)/rangeY*float64(height)

			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// DeltaVToSVG charts the cumulative delta-v of both profiles by stage.
func DeltaVToSVG(vacuum, atmospheric []fuelflow.FuelStats, width, height int) string {
	return SeriesToSVG([]Series{
		{Values: viz.CumulativeDeltaV(vacuum), Stroke: "#00ffff"},
		{Values: viz.CumulativeDeltaV(atmospheric), Stroke: "#ffaa00"},
	}, width, height)
}

func WriteDeltaVSVG(path string, vacuum, atmospheric []fuelflow.FuelStats, width, height int) error {
	return os.WriteFile(path, []byte(DeltaVToSVG(vacuum, atmospheric, width, height)), 0644)
}
