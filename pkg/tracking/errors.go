package tracking

import "errors"

// Sentinel errors for tracking operations.
var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("tracking: invalid config")

	// ErrUnknownPreset is returned by Preset for an unknown name.
	ErrUnknownPreset = errors.New("tracking: unknown preset")
)
