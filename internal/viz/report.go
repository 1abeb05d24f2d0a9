package viz

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/san-kum/fuelsim/internal/fuelflow"
)

// Renderer draws results with one theme.
type Renderer struct {
	Theme  Theme
	Styles Styles
	// Gravity in m/s² for thrust-to-weight columns.
	Gravity float64
}

func NewRenderer(t Theme, gravity float64) *Renderer {
	return &Renderer{Theme: t, Styles: NewStyles(t), Gravity: gravity}
}

var stageHeaders = []string{"STAGE", "ΔV m/s", "BURN s", "START kg", "END kg", "STAGED kg", "ISP s", "TWR", "MAX TWR", "ENGINES"}

// StageTable lists stats in firing order, highest stage first.
func (r *Renderer) StageTable(title string, stats []fuelflow.FuelStats) string {
	rows := make([][]string, 0, len(stats)+1)
	for stage := len(stats) - 1; stage >= 0; stage-- {
		st := stats[stage]
		rows = append(rows, []string{
			strconv.Itoa(stage),
			fmt.Sprintf("%.1f", st.DeltaV),
			formatBurn(st.DeltaTime),
			fmt.Sprintf("%.1f", st.StartMass),
			fmt.Sprintf("%.1f", st.EndMass),
			fmt.Sprintf("%.1f", st.StagedMass),
			fmt.Sprintf("%.1f", st.Isp),
			fmt.Sprintf("%.2f", st.StartTWR(r.Gravity)),
			fmt.Sprintf("%.2f", st.MaxTWR(r.Gravity)),
			strings.Join(st.Parts, ","),
		})
	}
	rows = append(rows, []string{
		"total",
		fmt.Sprintf("%.1f", fuelflow.TotalDeltaV(stats)),
		formatBurn(fuelflow.BurnTime(stats)),
		"", "", "", "", "", "", "",
	})
	totalRow := len(rows) - 1

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(r.Theme.Border)).
		Headers(stageHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return r.Styles.Header
			case row == totalRow:
				return r.Styles.Cell.Foreground(r.Theme.Accent).Bold(true)
			default:
				return r.Styles.Cell
			}
		})

	return r.Styles.Title.Render(title) + "\n" + t.Render()
}

// Metric renders one labelled value.
func (r *Renderer) Metric(label string, value float64, unit string) string {
	return r.Styles.MetricLabel.Render(label+": ") + r.Styles.MetricValue.Render(fmt.Sprintf("%.2f", value)) + " " + unit
}

// Status renders the scheduler state for the watch loop.
func (r *Renderer) Status(frame int, running bool, lastErr error) string {
	switch {
	case lastErr != nil:
		return r.Styles.Failed.Render("✗ " + lastErr.Error())
	case running:
		return r.Styles.Running.Render(Spinner(frame) + " simulating")
	default:
		return r.Styles.Idle.Render("● idle")
	}
}

func formatBurn(t float64) string {
	if math.IsInf(t, 0) || math.IsNaN(t) {
		return "∞"
	}
	return fmt.Sprintf("%.1f", t)
}
