package particle

import "errors"

var (
	// ErrInvalidCount indicates a store was requested with no particles.
	ErrInvalidCount = errors.New("particle: particle count must be positive")

	// ErrParameterBounds indicates a parameter value is outside its valid range.
	ErrParameterBounds = errors.New("particle: parameter out of valid bounds")

	// ErrUnknownParam indicates a parameter name that Params does not expose.
	ErrUnknownParam = errors.New("particle: unknown parameter")
)
