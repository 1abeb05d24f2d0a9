package scheduler

import (
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/fuelsim/internal/fuelflow"
)

// Results is one complete, immutable publication. Both stat slices are
// indexed by stage ordinal and come from the same vessel snapshot.
type Results struct {
	RunID       string               `json:"run_id"`
	Vessel      string               `json:"vessel"`
	Conditions  fuelflow.Conditions  `json:"conditions"`
	Vacuum      []fuelflow.FuelStats `json:"vacuum"`
	Atmospheric []fuelflow.FuelStats `json:"atmospheric"`
	Started     time.Time            `json:"started"`
	Duration    time.Duration        `json:"duration"`
}

// Stages is the number of stages covered by the results.
func (r *Results) Stages() int {
	if r == nil {
		return 0
	}
	return len(r.Vacuum)
}

// NewToken returns a fresh consumer token.
func NewToken() string {
	return uuid.Must(uuid.NewV7()).String()
}
