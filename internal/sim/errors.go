package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized indicates a kernel call before Initialize.
	ErrNotInitialized = errors.New("sim: simulator not initialized")

	// ErrInvalidState indicates NaN or Inf in the particle buffers.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates a run or init configuration that cannot be used.
	ErrInvalidConfig = errors.New("sim: invalid configuration")
)

// SimError wraps an error with the tick it happened on.
type SimError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimError) Unwrap() error {
	return e.Wrapped
}
