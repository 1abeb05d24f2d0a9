// Package fuelflow simulates propellant flow through a staged vehicle and
// predicts the delta-v, thrust, mass and thrust-to-weight ratio available
// from the current stage through every future staging event.
//
// The package is organised leaves first:
//
//   - [EngineModel]: thrust, Isp and mass flow of one engine under ambient
//     [Conditions], with explicit variants (simple, multi-mode, throttle-locked)
//   - [ResourceGraph]: an arena of parts and [ResourcePool]s built from a
//     [Vessel] snapshot, with crossfeed resolved by a [CrossfeedPolicy]
//   - [StageSimulator]: depletes one stage's propellant step by step
//   - [Simulation]: runs every remaining stage for one ambient profile
//   - [FuelStats]: the interval record, combined with [Append]
//
// # Example
//
//	sim := fuelflow.NewSimulation(fuelflow.DefaultOptions())
//	stats, err := sim.Run(ctx, vessel, fuelflow.Vacuum().Conditions)
//	for stage, s := range stats {
//	    fmt.Printf("stage %d: %.1f m/s, TWR %.2f\n", stage, s.DeltaV, s.StartTWR(9.81))
//	}
//
// # Thread Safety
//
// A [Simulation] holds no per-run state and may be shared. Every run builds
// its own [ResourceGraph] from the snapshot and never mutates the [Vessel],
// so independent profiles may run concurrently through [RunProfiles].
package fuelflow
