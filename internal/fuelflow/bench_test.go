package fuelflow

import (
	"context"
	"testing"
)

func BenchmarkSimulation_TwoStage(b *testing.B) {
	sim := NewSimulation(DefaultOptions())
	v := twoStage()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sim.Run(ctx, v, Conditions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSimulation_FineSteps(b *testing.B) {
	opts := DefaultOptions()
	opts.Timestep = 0.01
	sim := NewSimulation(opts)
	v := twoStage()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sim.Run(ctx, v, Conditions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRunProfiles(b *testing.B) {
	sim := NewSimulation(DefaultOptions())
	v := twoStage()
	ctx := context.Background()
	profiles := []Profile{Vacuum(), Atmospheric(Conditions{Pressure: AtmToKPa})}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := RunProfiles(ctx, sim, v, profiles...); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAppend(b *testing.B) {
	a := interval(1000, 990, 30, 1, 20)
	c := interval(990, 980, 30, 1, 21)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a = Append(a, c)
	}
	_ = a
}
