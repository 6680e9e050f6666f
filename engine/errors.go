package engine

import "errors"

// Sentinel errors for the engine driver's own checks, distinct from the
// per-package sentinels (reservoir.ErrDuplicateKey, dispatcher.ErrReentrantDispatch,
// etc.) that Engine methods pass through unchanged.
var (
	// ErrUnknownChunk is returned by RemoveChunk when chunkKey was never
	// registered.
	ErrUnknownChunk = errors.New("engine: unknown chunk")
	// ErrInvalidOption is returned by New when an Option produces a
	// configuration that fails validation (e.g. a negative hook-cache
	// capacity).
	ErrInvalidOption = errors.New("engine: invalid option")
)

// ConfigError wraps a failure encountered while resolving Options,
// naming which option failed (spec §3.2, grounded on eventloop/errors.go's
// style of small struct error types with Unwrap support).
type ConfigError struct {
	Option string
	Cause  error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Option == "" {
		return "engine: configuration error: " + e.Cause.Error()
	}
	return "engine: configuration error in " + e.Option + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
