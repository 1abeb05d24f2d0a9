package scheduler

import "errors"

var (
	// ErrNoSnapshot indicates the snapshot source returned no vessel.
	ErrNoSnapshot = errors.New("scheduler: no vessel snapshot")

	// ErrRunPanicked indicates a simulation run panicked and was recovered.
	ErrRunPanicked = errors.New("scheduler: simulation run panicked")

	// ErrInvalidOptions indicates scheduler options outside their valid range.
	ErrInvalidOptions = errors.New("scheduler: invalid options")
)
