package scheduler_test

import (
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/metrics"
	"github.com/san-kum/fuelsim/internal/scheduler"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

var _ = Describe("Scheduler", func() {
	var (
		src       *source
		clock     *scheduler.ManualClock
		opts      scheduler.Options
		collector *metrics.Collector
		hook      *logtest.Hook
		token     string
	)

	seaLevel := func() fuelflow.Conditions {
		return fuelflow.Conditions{Pressure: fuelflow.AtmToKPa, Density: 1.225}
	}

	newScheduler := func() *scheduler.Scheduler {
		s, err := scheduler.New(src.Snapshot, seaLevel, opts)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(s.Wait)
		return s
	}

	runsWith := func(result string) func() float64 {
		return func() float64 { return testutil.ToFloat64(collector.Runs.WithLabelValues(result)) }
	}

	BeforeEach(func() {
		src = newSource(stack(2))
		clock = scheduler.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		token = scheduler.NewToken()

		logger, h := logtest.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		hook = h

		var err error
		collector, err = metrics.NewCollector(prometheus.NewRegistry())
		Expect(err).NotTo(HaveOccurred())

		opts = scheduler.DefaultOptions()
		opts.Clock = clock
		opts.Logger = logrus.NewEntry(logger)
		opts.Metrics = collector
	})

	Describe("publishing", func() {
		It("publishes vacuum and atmospheric results of one run", func() {
			s := newScheduler()
			s.RequestUpdate(token, false)
			s.Wait()

			r := s.Results()
			Expect(r).NotTo(BeNil())
			Expect(r.Vessel).To(Equal("stack-2"))
			Expect(r.Vacuum).To(HaveLen(2))
			Expect(r.Atmospheric).To(HaveLen(2))
			Expect(r.Conditions).To(Equal(seaLevel()))
			Expect(fuelflow.TotalDeltaV(r.Atmospheric)).To(BeNumerically("<", fuelflow.TotalDeltaV(r.Vacuum)))

			id, err := uuid.Parse(r.RunID)
			Expect(err).NotTo(HaveOccurred())
			Expect(id.Version()).To(Equal(uuid.Version(7)))

			Expect(s.Vacuum()).To(Equal(r.Vacuum))
			Expect(s.Atmospheric()).To(Equal(r.Atmospheric))
			Expect(runsWith(metrics.ResultOK)()).To(Equal(1.0))
			Expect(testutil.ToFloat64(collector.PublishedStages)).To(Equal(2.0))
		})

		It("reports available results to later requests", func() {
			s := newScheduler()
			Expect(s.Results()).To(BeNil())
			Expect(s.Vacuum()).To(BeNil())

			s.RequestUpdate(token, false)
			s.Wait()
			Expect(s.RequestUpdate(token, false)).To(BeTrue())
		})

		It("simulates the snapshot taken when the run started", func() {
			g := newGate()
			opts.Simulation.Observer = g
			live := stack(2)
			src.set(live, nil)
			s := newScheduler()
			DeferCleanup(g.Open)

			s.RequestUpdate(token, false)
			Eventually(g.entered).Should(BeClosed())
			for i := range live.Parts {
				for j := range live.Parts[i].Resources {
					live.Parts[i].Resources[j].Amount = 0
				}
			}
			g.Open()
			s.Wait()

			Expect(s.Results().Vacuum[0].ResourceMass).To(BeNumerically("~", 300, 1e-9))
			Expect(s.Results().Vacuum[1].ResourceMass).To(BeNumerically("~", 300, 1e-9))
		})
	})

	Describe("profile observers", func() {
		It("keeps the vacuum and atmospheric passes apart", func() {
			vac, atm := &tally{}, &tally{}
			opts.ProfileObservers = map[string]fuelflow.Observer{
				fuelflow.ProfileVacuum:      vac,
				fuelflow.ProfileAtmospheric: atm,
			}
			s := newScheduler()
			s.RequestUpdate(token, false)
			s.Wait()

			r := s.Results()
			Expect(r).NotTo(BeNil())
			Expect(vac.DeltaV()).To(BeNumerically("~", fuelflow.TotalDeltaV(r.Vacuum), 1e-6))
			Expect(atm.DeltaV()).To(BeNumerically("~", fuelflow.TotalDeltaV(r.Atmospheric), 1e-6))
			Expect(atm.DeltaV()).To(BeNumerically("<", vac.DeltaV()))
		})
	})

	Describe("single flight", func() {
		It("never starts a second run while one is in flight", func() {
			g := newGate()
			opts.Simulation.Observer = g
			s := newScheduler()
			DeferCleanup(g.Open)

			s.RequestUpdate(token, false)
			Eventually(g.entered).Should(BeClosed())

			for i := 0; i < 50; i++ {
				s.RequestUpdate(scheduler.NewToken(), false)
				s.Tick()
			}
			done := make(chan struct{})
			for i := 0; i < 8; i++ {
				go func() {
					defer GinkgoRecover()
					s.RequestUpdate(scheduler.NewToken(), false)
					done <- struct{}{}
				}()
			}
			for i := 0; i < 8; i++ {
				Eventually(done).Should(Receive())
			}

			Expect(src.Calls()).To(Equal(int32(1)))
			Expect(s.Running()).To(BeTrue())
			Expect(s.Consumers()).To(Equal(59))

			g.Open()
			s.Wait()
			Expect(s.Running()).To(BeFalse())
			Expect(s.Runs()).To(Equal(uint64(1)))

			By("running exactly once more for the requests made meanwhile")
			s.Tick()
			s.Wait()
			Expect(src.Calls()).To(Equal(int32(2)))
			Expect(s.Runs()).To(Equal(uint64(2)))

			s.Tick()
			s.Wait()
			Expect(src.Calls()).To(Equal(int32(2)))
			Expect(s.Consumers()).To(BeZero())
		})

		It("deduplicates consumers by token", func() {
			s := newScheduler()
			for i := 0; i < 5; i++ {
				s.RequestUpdate(token, false)
			}
			Expect(s.Consumers()).To(Equal(1))
			Expect(testutil.ToFloat64(collector.UpdateRequests)).To(Equal(5.0))
		})
	})

	Describe("cooldown", func() {
		It("waits twice the measured run duration", func() {
			src.before = func() { clock.Advance(100 * time.Millisecond) }
			s := newScheduler()

			s.RequestUpdate(token, false)
			s.Wait()
			r := s.Results()
			Expect(r.Duration).To(Equal(100 * time.Millisecond))
			Expect(s.ReadyAt()).To(BeTemporally("==", r.Started.Add(300*time.Millisecond)))
			Expect(testutil.ToFloat64(collector.Cooldown)).To(BeNumerically("~", 0.2, 1e-9))

			s.RequestUpdate(token, false)
			s.Tick()
			Expect(src.Calls()).To(Equal(int32(1)))

			clock.Advance(199 * time.Millisecond)
			s.RequestUpdate(token, false)
			s.Tick()
			Expect(src.Calls()).To(Equal(int32(1)))

			clock.Advance(time.Millisecond)
			s.RequestUpdate(token, false)
			Expect(src.Calls()).To(Equal(int32(2)))
			s.Wait()
			Expect(s.Runs()).To(Equal(uint64(2)))
			Expect(s.Results().RunID).NotTo(Equal(r.RunID))
		})

		It("re-runs immediately with a zero factor", func() {
			opts.CooldownFactor = 0
			src.before = func() { clock.Advance(time.Second) }
			s := newScheduler()

			s.RequestUpdate(token, false)
			s.Wait()
			s.RequestUpdate(token, false)
			s.Wait()
			Expect(s.Runs()).To(Equal(uint64(2)))
		})
	})

	Describe("idling", func() {
		It("drops consumers after a tick without requests", func() {
			src.before = func() { clock.Advance(time.Second) }
			s := newScheduler()

			s.RequestUpdate(token, false)
			s.Wait()

			s.Tick()
			Expect(s.Consumers()).To(Equal(1))
			s.Tick()
			Expect(s.Consumers()).To(Equal(0))
			Expect(testutil.ToFloat64(collector.Consumers)).To(Equal(0.0))

			clock.Advance(time.Hour)
			s.Tick()
			Consistently(src.Calls, 100*time.Millisecond).Should(Equal(int32(1)))

			var messages []string
			for _, e := range hook.AllEntries() {
				messages = append(messages, e.Message)
			}
			Expect(messages).To(ContainElement("no update requested, going idle"))

			s.RequestUpdate(token, false)
			Expect(src.Calls()).To(Equal(int32(2)))
		})

		It("does nothing without consumers", func() {
			s := newScheduler()
			for i := 0; i < 10; i++ {
				s.Tick()
			}
			Expect(src.Calls()).To(BeZero())
			Expect(s.Running()).To(BeFalse())
		})
	})

	Describe("failures", func() {
		It("keeps previous results and backs off after a snapshot error", func() {
			s := newScheduler()
			s.RequestUpdate(token, false)
			s.Wait()
			first := s.Results()

			src.set(nil, errors.New("vessel unloaded"))
			Expect(s.RequestUpdate(token, false)).To(BeTrue())
			Expect(s.Failures()).To(Equal(uint64(1)))
			Expect(s.LastError()).To(MatchError(ContainSubstring("vessel unloaded")))
			Expect(s.Results()).To(BeIdenticalTo(first))
			Expect(s.ReadyAt()).To(BeTemporally("==", clock.Now().Add(500*time.Millisecond)))

			src.set(stack(3), nil)
			s.RequestUpdate(token, false)
			s.Tick()
			clock.Advance(499 * time.Millisecond)
			s.RequestUpdate(token, false)
			s.Tick()
			Expect(src.Calls()).To(Equal(int32(2)))

			clock.Advance(time.Millisecond)
			s.RequestUpdate(token, false)
			s.Wait()
			Expect(src.Calls()).To(Equal(int32(3)))
			Expect(s.Results().Vessel).To(Equal("stack-3"))
			Expect(s.LastError()).NotTo(HaveOccurred())
			Expect(runsWith(metrics.ResultFailed)()).To(Equal(1.0))
		})

		It("treats a missing snapshot as a failure", func() {
			src.set(nil, nil)
			s := newScheduler()

			Expect(s.RequestUpdate(token, false)).To(BeFalse())
			Expect(s.LastError()).To(MatchError(scheduler.ErrNoSnapshot))
			Expect(s.Running()).To(BeFalse())
		})

		It("contains a malformed vessel in the background run", func() {
			bad := stack(2)
			bad.Parts[1].DryMass = -1
			src.set(bad, nil)
			s := newScheduler()

			s.RequestUpdate(token, false)
			s.Wait()
			Expect(s.LastError()).To(MatchError(fuelflow.ErrInvalidSnapshot))
			Expect(s.Results()).To(BeNil())
			Expect(hook.LastEntry()).NotTo(BeNil())
			Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))
		})

		It("recovers a panicking run", func() {
			opts.Simulation.Observer = panicky{}
			s := newScheduler()

			s.RequestUpdate(token, false)
			s.Wait()
			Expect(s.LastError()).To(MatchError(scheduler.ErrRunPanicked))
			Expect(s.Running()).To(BeFalse())
			Expect(runsWith(metrics.ResultPanicked)()).To(Equal(1.0))
		})

		It("recovers a panicking snapshot source", func() {
			src.before = func() { panic("vessel gone") }
			s := newScheduler()

			Expect(s.RequestUpdate(token, false)).To(BeFalse())
			Expect(s.LastError()).To(MatchError(scheduler.ErrRunPanicked))
		})
	})

	Describe("waiting", func() {
		It("blocks until the in-flight run publishes", func() {
			g := newGate()
			opts.Simulation.Observer = g
			s := newScheduler()
			DeferCleanup(g.Open)

			s.RequestUpdate(token, false)
			Eventually(g.entered).Should(BeClosed())
			time.AfterFunc(50*time.Millisecond, g.Open)

			start := time.Now()
			Expect(s.RequestUpdate(scheduler.NewToken(), true)).To(BeTrue())
			Expect(time.Since(start)).To(BeNumerically("<", opts.WaitTimeout))
			Expect(src.Calls()).To(Equal(int32(1)))
		})

		It("gives up after the wait timeout", func() {
			g := newGate()
			opts.Simulation.Observer = g
			opts.WaitTimeout = 50 * time.Millisecond
			s := newScheduler()
			DeferCleanup(g.Open)

			s.RequestUpdate(token, false)
			Eventually(g.entered).Should(BeClosed())

			start := time.Now()
			Expect(s.RequestUpdate(token, true)).To(BeFalse())
			elapsed := time.Since(start)
			Expect(elapsed).To(BeNumerically(">=", 50*time.Millisecond))
			Expect(elapsed).To(BeNumerically("<", eventually))
			Expect(s.Running()).To(BeTrue())
		})

		It("blocks other goroutines until the in-flight run finishes", func() {
			g := newGate()
			opts.Simulation.Observer = g
			s := newScheduler()
			DeferCleanup(g.Open)

			Expect(s.Running()).To(BeFalse())
			s.Wait()

			s.RequestUpdate(token, false)
			Eventually(g.entered).Should(BeClosed())

			waited := make(chan struct{})
			go func() {
				s.Wait()
				close(waited)
			}()
			Consistently(waited, 50*time.Millisecond).ShouldNot(BeClosed())

			g.Open()
			Eventually(waited).Should(BeClosed())
			Expect(s.Runs()).To(Equal(uint64(1)))
		})

		It("lets waiters race new runs", func() {
			s := newScheduler()
			stop := make(chan struct{})
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				for {
					select {
					case <-stop:
						return
					default:
						s.Wait()
					}
				}
			}()

			for i := 0; i < 20; i++ {
				s.RequestUpdate(token, false)
				s.Wait()
			}
			close(stop)
			Eventually(finished).Should(BeClosed())
			Expect(s.Runs()).To(Equal(uint64(20)))
		})

		It("starts a due run and waits for it", func() {
			s := newScheduler()
			Expect(s.RequestUpdate(token, true)).To(BeTrue())
			Expect(s.Results()).NotTo(BeNil())
		})
	})

	Describe("construction", func() {
		It("requires a snapshot source", func() {
			_, err := scheduler.New(nil, nil, scheduler.DefaultOptions())
			Expect(err).To(MatchError(scheduler.ErrInvalidOptions))
		})

		DescribeTable("rejects invalid options",
			func(mutate func(o *scheduler.Options)) {
				o := scheduler.DefaultOptions()
				mutate(&o)
				_, err := scheduler.New(src.Snapshot, nil, o)
				Expect(err).To(MatchError(scheduler.ErrInvalidOptions))
			},
			Entry("negative cooldown factor", func(o *scheduler.Options) { o.CooldownFactor = -1 }),
			Entry("negative backoff", func(o *scheduler.Options) { o.FailureBackoff = -time.Second }),
			Entry("zero poll interval", func(o *scheduler.Options) { o.WaitPollInterval = 0 }),
			Entry("zero wait timeout", func(o *scheduler.Options) { o.WaitTimeout = 0 }),
			Entry("bad simulation options", func(o *scheduler.Options) { o.Simulation.Timestep = 0 }),
		)

		It("simulates vacuum twice without a conditions source", func() {
			s, err := scheduler.New(src.Snapshot, nil, opts)
			Expect(err).NotTo(HaveOccurred())
			s.RequestUpdate(token, false)
			s.Wait()
			Expect(s.Results().Atmospheric).To(Equal(s.Results().Vacuum))
		})
	})

	It("hands out distinct time-ordered tokens", func() {
		a, b := scheduler.NewToken(), scheduler.NewToken()
		Expect(a).NotTo(Equal(b))
		Expect(uuid.MustParse(a).Version()).To(Equal(uuid.Version(7)))
	})
})
