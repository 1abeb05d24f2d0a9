package fuelflow

import (
	"errors"
	"fmt"
)

// Domain errors for graph construction and simulation.
var (
	// ErrInvalidSnapshot indicates a vessel snapshot that cannot be turned into a graph.
	ErrInvalidSnapshot = errors.New("fuelflow: invalid vessel snapshot")

	// ErrInvalidEngine indicates engine parameters outside their valid range.
	ErrInvalidEngine = errors.New("fuelflow: invalid engine parameters")

	// ErrStepLimit indicates a stage did not finish within the configured step budget.
	ErrStepLimit = errors.New("fuelflow: stage exceeded step limit")

	// ErrInvalidOptions indicates simulation options outside their valid range.
	ErrInvalidOptions = errors.New("fuelflow: invalid simulation options")
)

// GraphError wraps a snapshot error with the offending part.
type GraphError struct {
	Part    string
	Reason  string
	Wrapped error
}

func (e *GraphError) Error() string {
	if e.Part == "" {
		return fmt.Sprintf("%v: %s", e.Wrapped, e.Reason)
	}
	return fmt.Sprintf("%v: part %q: %s", e.Wrapped, e.Part, e.Reason)
}

func (e *GraphError) Unwrap() error {
	return e.Wrapped
}

func snapshotErr(part, format string, args ...any) error {
	return &GraphError{Part: part, Reason: fmt.Sprintf(format, args...), Wrapped: ErrInvalidSnapshot}
}

// StageError wraps a simulation error with the stage being simulated.
type StageError struct {
	Stage   int
	Time    float64
	Wrapped error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (t=%.4f): %v", e.Stage, e.Time, e.Wrapped)
}

func (e *StageError) Unwrap() error {
	return e.Wrapped
}
