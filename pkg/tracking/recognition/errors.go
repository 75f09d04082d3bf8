package recognition

import "errors"

// Sentinel errors for recognition.
var (
	// ErrUnknownBackend is returned for an unsupported backend name.
	ErrUnknownBackend = errors.New("recognition: unknown backend")

	// ErrModelNotFound means a model file is missing.
	ErrModelNotFound = errors.New("recognition: model not found")

	// ErrEmptyImage means an image could not be decoded.
	ErrEmptyImage = errors.New("recognition: empty image")
)
