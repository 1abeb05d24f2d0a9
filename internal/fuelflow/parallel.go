package fuelflow

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Names of the two profiles every scheduled run simulates.
const (
	ProfileVacuum      = "vacuum"
	ProfileAtmospheric = "atmospheric"
)

// Profile names one set of ambient conditions to simulate under.
type Profile struct {
	Name       string
	Conditions Conditions
}

// Vacuum is the profile with no atmosphere.
func Vacuum() Profile {
	return Profile{Name: ProfileVacuum}
}

func Atmospheric(c Conditions) Profile {
	return Profile{Name: ProfileAtmospheric, Conditions: c}
}

// RunProfiles simulates the same snapshot under several profiles at once.
// Each profile builds its own graph, so the passes share no mutable state.
// Results are returned in profile order.
func RunProfiles(ctx context.Context, sim *Simulation, v *Vessel, profiles ...Profile) ([][]FuelStats, error) {
	results := make([][]FuelStats, len(profiles))

	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range profiles {
		eg.Go(func() error {
			stats, err := sim.Run(ctx, v, p.Conditions)
			if err != nil {
				return err
			}
			results[i] = stats
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
