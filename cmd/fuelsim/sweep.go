package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fuelsim/internal/atmosphere"
	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/optim"
	"github.com/spf13/cobra"
)

var (
	sweepAltitudes []float64
	sweepThrottles []float64
	sweepWorkers   int
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [vessel]",
		Short: "total atmospheric delta-v over a grid of altitudes and throttles",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addConditionFlags(cmd)
	cmd.Flags().Float64SliceVar(&sweepAltitudes, "altitudes", optim.Range(0, 20000, 5), "altitudes to simulate at (m)")
	cmd.Flags().Float64SliceVar(&sweepThrottles, "throttles", []float64{1}, "throttle settings to simulate at")
	cmd.Flags().IntVar(&sweepWorkers, "workers", 0, "concurrent simulations (0 uses GOMAXPROCS)")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	snapshot, err := vesselSource(args[0])
	if err != nil {
		return err
	}
	v, err := snapshot()
	if err != nil {
		return err
	}
	b, err := atmosphere.LookupBody(cfg.Atmosphere.Body)
	if err != nil {
		return err
	}

	grid, err := optim.NewGridSearch([]string{"altitude", "throttle"}, [][]float64{sweepAltitudes, sweepThrottles})
	if err != nil {
		return err
	}
	grid.WithWorkers(sweepWorkers).Maximize()

	objective := func(ctx context.Context, p optim.Point) (float64, error) {
		opts := cfg.SimulationOptions()
		opts.Throttle = p["throttle"]
		opts.Logger = log
		cond := atmosphere.Conditions(b.Model, p["altitude"], cfg.Atmosphere.Speed)
		stats, err := fuelflow.NewSimulation(opts).Run(ctx, v, cond)
		if err != nil {
			return 0, err
		}
		return fuelflow.TotalDeltaV(stats), nil
	}

	samples, err := grid.Evaluate(cmd.Context(), objective)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALTITUDE m\tTHROTTLE\tΔV m/s")
	for _, s := range samples {
		fmt.Fprintf(w, "%.0f\t%.2f\t%.1f\n", s.Point["altitude"], s.Point["throttle"], s.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	best, val, err := grid.Best(samples)
	if err != nil {
		return err
	}
	fmt.Printf("\nbest: %.1f m/s at %.0f m, throttle %.2f\n", val, best["altitude"], best["throttle"])

	if len(sweepAltitudes) > 1 {
		series := make([]float64, 0, len(sweepAltitudes))
		for _, s := range samples {
			if s.Point["throttle"] == sweepThrottles[0] {
				series = append(series, s.Value)
			}
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("Δv (m/s) over altitude on %s, throttle %.2f", b.Name, sweepThrottles[0])),
		))
	}
	return nil
}
