// Package scheduler keeps fuel flow predictions fresh in the background.
//
// A [Scheduler] is driven by a single caller, once per control tick, through
// [Scheduler.Tick]. Consumers announce interest with [Scheduler.RequestUpdate]
// and read the latest [Results] at any time without locking. At most one run
// is in flight; each run simulates a deep copy of the vessel snapshot taken
// when it started, under a vacuum and an atmospheric profile in parallel.
//
// After a successful run the scheduler waits CooldownFactor times the run's
// wall-clock duration before starting another, so expensive vessels are
// re-simulated less often. A failed run keeps the previous results and backs
// off for FailureBackoff. When a tick passes without any update request the
// registered consumers are dropped and the scheduler goes idle.
//
// # Example
//
//	s, err := scheduler.New(snapshot, conditions, scheduler.DefaultOptions())
//	token := scheduler.NewToken()
//	for range ticker.C {
//	    s.RequestUpdate(token, false)
//	    s.Tick()
//	    if vac := s.Vacuum(); vac != nil {
//	        fmt.Printf("%.0f m/s\n", fuelflow.TotalDeltaV(vac))
//	    }
//	}
//
// # Thread Safety
//
// All methods are safe for concurrent use. Published [Results] are
// immutable: readers must not modify the returned slices.
package scheduler
