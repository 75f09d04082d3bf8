package gallery

import "errors"

// Sentinel errors for gallery operations.
var (
	// ErrNoFace means a reference image contained no detectable face.
	ErrNoFace = errors.New("gallery: no face in reference image")

	// ErrNotDirectory means the gallery path is not a readable directory.
	ErrNotDirectory = errors.New("gallery: not a directory")

	// ErrEmptyDescriptor means an encoder returned a zero-length descriptor.
	ErrEmptyDescriptor = errors.New("gallery: empty descriptor")
)
