package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidWorldSize indicates a world extent that is zero, negative or not finite.
	ErrInvalidWorldSize = errors.New("dynamo: world size must be positive and finite")

	// ErrInvalidSubSteps indicates a sub-step count below one.
	ErrInvalidSubSteps = errors.New("dynamo: sub-steps must be at least 1")

	// ErrInvalidGravity indicates a gravity vector with NaN or Inf components.
	ErrInvalidGravity = errors.New("dynamo: gravity must be finite")

	// ErrInvalidParticle indicates a non-positive radius or a NaN/Inf state.
	ErrInvalidParticle = errors.New("dynamo: invalid particle (bad radius or NaN/Inf state)")

	// ErrDestroyed indicates access to a solver after Destroy.
	ErrDestroyed = errors.New("dynamo: solver destroyed")

	// ErrUnknownHandle indicates a handle that was never issued by the solver.
	ErrUnknownHandle = errors.New("dynamo: unknown particle handle")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    uint64
	Time    float64
	Handle  Handle
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) particle %d: %v", e.Step, e.Time, e.Handle, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
