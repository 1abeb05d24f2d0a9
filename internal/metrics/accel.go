package metrics

import "github.com/san-kum/fuelsim/internal/fuelflow"

// AccelLimit reports the fraction of burn time spent within an acceleration
// limit, in m/s².
type AccelLimit struct {
	name     string
	limit    float64
	over     float64
	duration float64
}

func NewAccelLimit(limit float64) *AccelLimit {
	return &AccelLimit{
		name:  "accel_limit",
		limit: limit,
	}
}

func (a *AccelLimit) Name() string {
	return a.name
}

func (a *AccelLimit) Observe(stage int, step fuelflow.FuelStats) {
	a.duration += step.DeltaTime
	if step.MaxAccel > a.limit {
		a.over += step.DeltaTime
	}
}

func (a *AccelLimit) Value() float64 {
	if a.duration == 0 {
		return 1.0
	}
	return 1.0 - a.over/a.duration
}

func (a *AccelLimit) Reset() {
	a.over = 0
	a.duration = 0
}
