package main

import (
	"fmt"
	"os"

	"github.com/san-kum/fuelsim/internal/atmosphere"
	"github.com/san-kum/fuelsim/internal/config"
	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/vessel"
	"github.com/san-kum/fuelsim/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	theme      string
	// Overrides of the loaded configuration
	body     string
	altitude float64
	speed    float64
	timestep float64
	throttle float64
)

// main registers the fuelsim commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "fuelsim",
		Short:        "staged propellant-flow simulator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fuelsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.ThemeDefault.Name, "output color theme")

	simulateCmd := &cobra.Command{
		Use:   "simulate [vessel]",
		Short: "simulate every stage of a vessel file or sample",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulate,
	}
	addConditionFlags(simulateCmd)
	simulateCmd.Flags().BoolVar(&save, "save", true, "store the run under the data directory")
	simulateCmd.Flags().BoolVar(&asJSON, "json", false, "print the results as JSON")
	simulateCmd.Flags().Float64Var(&accelLimit, "accel-limit", 4*fuelflow.G0, "acceleration limit for the accel_limit metric (m/s²)")

	watchCmd := &cobra.Command{
		Use:   "watch [vessel]",
		Short: "drive the background scheduler against a live vessel file",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	addConditionFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchFor, "duration", 0, "stop after this long (0 runs until interrupted)")
	watchCmd.Flags().IntVar(&consumers, "consumers", 1, "number of simulated consumers")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (overrides config)")
	watchCmd.Flags().BoolVar(&live, "live", false, "interactive full-screen monitor")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show the stage tables of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot delta-v and mass of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 60, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the delta-v chart as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	samplesCmd := &cobra.Command{
		Use:   "samples",
		Short: "list built-in sample vessels",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range vessel.ListSamples() {
				fmt.Printf("  %s\n", s)
			}
			return nil
		},
	}

	bodiesCmd := &cobra.Command{
		Use:   "bodies",
		Short: "list bodies with an atmosphere model",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, b := range atmosphere.ListBodies() {
				fmt.Printf("  %s\n", b)
			}
			return nil
		},
	}

	rootCmd.AddCommand(simulateCmd, watchCmd, newSweepCmd(), listCmd, showCmd, plotCmd, exportJSONCmd, presetsCmd, samplesCmd, bodiesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConditionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&body, "body", "", "body for the atmospheric pass")
	cmd.Flags().Float64Var(&altitude, "altitude", 0, "altitude for the atmospheric pass (m)")
	cmd.Flags().Float64Var(&speed, "speed", 0, "airspeed for the atmospheric pass (m/s)")
	cmd.Flags().Float64Var(&timestep, "timestep", config.DefaultTimestep, "longest simulation step (s)")
	cmd.Flags().Float64Var(&throttle, "throttle", config.DefaultThrottle, "throttle of throttleable engines (0..1)")
}

// loadConfig resolves preset, config file and flags, in increasing
// precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("body") {
		cfg.Atmosphere.Body = body
	}
	if flags.Changed("altitude") {
		cfg.Atmosphere.Altitude = altitude
	}
	if flags.Changed("speed") {
		cfg.Atmosphere.Speed = speed
	}
	if flags.Changed("timestep") {
		cfg.Simulation.Timestep = timestep
	}
	if flags.Changed("throttle") {
		cfg.Simulation.Throttle = throttle
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logrus.Entry, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logrus.NewEntry(logger), nil
}

func newRenderer(cfg *config.Config) (*viz.Renderer, error) {
	th, err := viz.LookupTheme(theme)
	if err != nil {
		return nil, err
	}
	b, err := atmosphere.LookupBody(cfg.Atmosphere.Body)
	if err != nil {
		return nil, err
	}
	return viz.NewRenderer(th, b.SurfaceGravity), nil
}

// vesselSource loads a vessel file when arg names one, otherwise a
// built-in sample. Files are re-read on every call so edits are picked up.
func vesselSource(arg string) (func() (*fuelflow.Vessel, error), error) {
	if _, err := os.Stat(arg); err == nil {
		return func() (*fuelflow.Vessel, error) {
			f, err := vessel.Load(arg)
			if err != nil {
				return nil, err
			}
			return f.Snapshot()
		}, nil
	}
	f, err := vessel.Sample(arg)
	if err != nil {
		return nil, fmt.Errorf("%s is neither a vessel file nor a sample: %w", arg, err)
	}
	v, err := f.Snapshot()
	if err != nil {
		return nil, err
	}
	return func() (*fuelflow.Vessel, error) { return v, nil }, nil
}
