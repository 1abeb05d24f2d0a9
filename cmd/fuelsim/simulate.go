package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/san-kum/fuelsim/internal/config"
	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/metrics"
	"github.com/san-kum/fuelsim/internal/scheduler"
	"github.com/san-kum/fuelsim/internal/storage"
	"github.com/san-kum/fuelsim/internal/tracing"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	save       bool
	asJSON     bool
	accelLimit float64
)

// newScheduler wires the configured scheduler to a vessel source. The
// returned cleanup flushes tracing.
func newScheduler(ctx context.Context, cfg *config.Config, arg string, log *logrus.Entry, opts scheduler.Options) (*scheduler.Scheduler, func(), error) {
	snapshot, err := vesselSource(arg)
	if err != nil {
		return nil, nil, err
	}
	cond, err := cfg.Conditions()
	if err != nil {
		return nil, nil, err
	}

	shutdown, err := tracing.Init(ctx, cfg.Tracing, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { tracing.ShutdownWithTimeout(context.Background(), shutdown, log) }

	opts.Logger = log
	sched, err := scheduler.New(snapshot, func() fuelflow.Conditions { return cond }, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return sched, cleanup, nil
}

var stepMetricNames = []string{"mass_drift", "accel_limit", "mean_mass_flow"}

func newRecorder() *metrics.Recorder {
	return metrics.NewRecorder(
		metrics.NewMassDrift(),
		metrics.NewAccelLimit(accelLimit),
		metrics.NewMeanMassFlow(),
	)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	recorders := map[string]*metrics.Recorder{
		fuelflow.ProfileVacuum:      newRecorder(),
		fuelflow.ProfileAtmospheric: newRecorder(),
	}
	opts := cfg.SchedulerOptions()
	opts.ProfileObservers = make(map[string]fuelflow.Observer, len(recorders))
	for name, rec := range recorders {
		opts.ProfileObservers[name] = rec
	}

	sched, cleanup, err := newScheduler(cmd.Context(), cfg, args[0], log, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	log.WithField("vessel", args[0]).Info("simulating")
	start := time.Now()
	sched.RequestUpdate(scheduler.NewToken(), false)
	sched.Wait()

	res := sched.Results()
	if res == nil {
		if err := sched.LastError(); err != nil {
			return err
		}
		return fmt.Errorf("simulation produced no results")
	}
	elapsed := time.Since(start)

	values := make(map[string]float64)
	for profile, rec := range recorders {
		for name, v := range rec.Values() {
			values[profile+"_"+name] = v
		}
	}
	runID := res.RunID
	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		if runID, err = st.Save(res, values); err != nil {
			return err
		}
	}

	if asJSON {
		meta := storage.RunMetadata{
			ID:         runID,
			Vessel:     res.Vessel,
			Timestamp:  res.Started,
			Duration:   res.Duration,
			Conditions: res.Conditions,
			Stages:     res.Stages(),
			Summary:    storage.Summarize(res),
		}
		return storage.ExportJSON(os.Stdout, meta, res.Vacuum, res.Atmospheric)
	}

	fmt.Println(renderer.StageTable("vacuum", res.Vacuum))
	fmt.Println()
	fmt.Println(renderer.StageTable(fmt.Sprintf("atmospheric (%s, %.0f m, %.1f kPa)", cfg.Atmosphere.Body, cfg.Atmosphere.Altitude, res.Conditions.Pressure), res.Atmospheric))
	fmt.Println()
	fmt.Printf("completed in %v\n", elapsed)
	if save {
		fmt.Printf("run id: %s\n", runID)
	}
	for _, profile := range []string{fuelflow.ProfileVacuum, fuelflow.ProfileAtmospheric} {
		rec := recorders[profile]
		fmt.Printf("\n%s metrics (flameouts: %d):\n", profile, rec.Flameouts())
		for _, name := range stepMetricNames {
			fmt.Printf("  %s\n", renderer.Metric(name, values[profile+"_"+name], ""))
		}
	}

	return nil
}
