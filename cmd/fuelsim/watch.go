package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/metrics"
	"github.com/san-kum/fuelsim/internal/scheduler"
	"github.com/san-kum/fuelsim/internal/tui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	watchFor    time.Duration
	consumers   int
	metricsAddr string
	live        bool
)

// sparkWidth is the number of publications kept in the delta-v history.
const sparkWidth = 32

func runWatch(cmd *cobra.Command, args []string) error {
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
	if consumers < 0 {
		return fmt.Errorf("consumers must not be negative, got %d", consumers)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if watchFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, watchFor)
		defer cancel()
	}

	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	addr := cfg.Metrics.Addr
	if metricsAddr != "" {
		addr = metricsAddr
	}
	if addr != "" {
		srv := &http.Server{Addr: addr, Handler: metricsMux(collector), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server failed")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.WithField("addr", addr).Info("serving metrics")
	}

	opts := cfg.SchedulerOptions()
	opts.Metrics = collector
	sched, cleanup, err := newScheduler(ctx, cfg, args[0], log, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	if live {
		// log lines would tear the alternate screen
		log.Logger.SetOutput(io.Discard)
		m := tui.NewMonitor(sched, renderer, args[0], consumers, cfg.Scheduler.TickRate)
		err := tui.Run(ctx, m)
		sched.Wait()
		return err
	}

	tokens := make([]string, consumers)
	for i := range tokens {
		tokens[i] = scheduler.NewToken()
	}

	ticker := time.NewTicker(cfg.Scheduler.TickRate)
	defer ticker.Stop()

	var (
		history []float64
		lastRun string
		frame   int
	)
	log.WithFields(logrus.Fields{
		"vessel":    args[0],
		"consumers": consumers,
		"tick_rate": cfg.Scheduler.TickRate,
	}).Info("watching")

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}

		for _, token := range tokens {
			sched.RequestUpdate(token, false)
		}
		sched.Tick()
		frame++

		res := sched.Results()
		if res == nil || res.RunID == lastRun {
			continue
		}
		lastRun = res.RunID
		history = append(history, fuelflow.TotalDeltaV(res.Vacuum))
		if len(history) > sparkWidth {
			history = history[len(history)-sparkWidth:]
		}
		fmt.Printf("%s  %s  vac %s  atm %s  %s  %s\n",
			res.Started.Format("15:04:05.000"),
			res.RunID[len(res.RunID)-8:],
			renderer.Metric("Δv", fuelflow.TotalDeltaV(res.Vacuum), "m/s"),
			renderer.Metric("Δv", fuelflow.TotalDeltaV(res.Atmospheric), "m/s"),
			renderer.Styles.Sparkline(history, sparkWidth),
			renderer.Status(frame, sched.Running(), sched.LastError()),
		)
	}

	sched.Wait()
	fmt.Println(renderer.Styles.Separator(60))
	fmt.Printf("runs: %d  failures: %d\n", sched.Runs(), sched.Failures())
	if res := sched.Results(); res != nil {
		fmt.Println(renderer.StageTable("last vacuum", res.Vacuum))
	}
	return nil
}

func metricsMux(c *metrics.Collector) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return mux
}
