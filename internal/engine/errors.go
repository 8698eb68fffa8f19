package engine

import "errors"

// Domain errors returned at the edges of the engine. The step pipeline itself
// never fails.
var (
	// ErrParameterBounds indicates a configuration value is outside its valid range.
	ErrParameterBounds = errors.New("engine: parameter out of valid bounds")

	// ErrEmptyScene indicates an operation that needs bodies ran on an empty scene.
	ErrEmptyScene = errors.New("engine: scene has no bodies")

	// ErrUnknownPreset indicates a preset name that is not registered.
	ErrUnknownPreset = errors.New("engine: unknown preset")
)

// ParamError names the offending field of a rejected configuration.
type ParamError struct {
	Field   string
	Value   float64
	Wrapped error
}

func (e *ParamError) Error() string {
	return e.Wrapped.Error() + ": " + e.Field
}

func (e *ParamError) Unwrap() error {
	return e.Wrapped
}
