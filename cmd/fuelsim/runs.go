package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/fuelsim/internal/config"
	"github.com/san-kum/fuelsim/internal/export"
	"github.com/san-kum/fuelsim/internal/storage"
	"github.com/san-kum/fuelsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	plotWidth  int
	plotHeight int
	svgPath    string
	outputPath string
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVESSEL\tTIME\tSTAGES\tΔV VAC\tΔV ATM\tDURATION")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f\t%.1f\t%v\n",
			run.ID,
			run.Vessel,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Stages,
			run.Summary["vacuum_delta_v"],
			run.Summary["atmospheric_delta_v"],
			run.Duration,
		)
	}

	return w.Flush()
}

// storedRenderer renders stored runs with the configured theme and body.
func storedRenderer() (*viz.Renderer, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	return newRenderer(cfg)
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	vacuum, atmospheric, err := st.LoadStages(runID)
	if err != nil {
		return err
	}
	renderer, err := storedRenderer()
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("vessel: %s\n", meta.Vessel)
	fmt.Printf("time: %s (took %v)\n", meta.Timestamp.Format("2006-01-02 15:04:05"), meta.Duration)
	fmt.Printf("conditions: %.3f kPa, %.4f kg/m³, mach %.2f\n\n", meta.Conditions.Pressure, meta.Conditions.Density, meta.Conditions.Mach)

	fmt.Println(renderer.StageTable("vacuum", vacuum))
	fmt.Println()
	fmt.Println(renderer.StageTable("atmospheric", atmospheric))

	if len(meta.Summary) > 0 {
		fmt.Println("\nsummary:")
		for name, val := range meta.Summary {
			fmt.Printf("  %s\n", renderer.Metric(name, val, ""))
		}
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	vacuum, atmospheric, err := st.LoadStages(runID)
	if err != nil {
		return err
	}
	if len(vacuum) == 0 {
		return fmt.Errorf("no data to plot")
	}
	renderer, err := storedRenderer()
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("vessel: %s\n", meta.Vessel)
	fmt.Printf("stages: %d\n\n", meta.Stages)

	fmt.Println(renderer.DeltaVPlot(vacuum, atmospheric, plotWidth, plotHeight))
	fmt.Println()
	fmt.Println(renderer.MassPlot(vacuum, plotWidth, plotHeight))

	if svgPath != "" {
		if err := export.WriteDeltaVSVG(svgPath, vacuum, atmospheric, 640, 400); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgPath)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	vacuum, atmospheric, err := st.LoadStages(runID)
	if err != nil {
		return err
	}

	if outputPath == "" {
		return storage.ExportJSON(os.Stdout, *meta, vacuum, atmospheric)
	}
	if err := storage.ExportJSONFile(outputPath, *meta, vacuum, atmospheric); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", meta.ID, outputPath)
	return nil
}
