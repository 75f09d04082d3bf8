// Package recognition finds faces in frames and names them against the
// enrolled gallery.
//
// Two descriptor backends are available: "dlib" (go-face over dlib's
// 128-d ResNet model) and "sface" (OpenCV FaceRecognizerSF on YuNet
// detections). Both produce descriptors on the
// same distance scale, so one MatchConfig serves either.
package recognition

import (
	"fmt"
	"path/filepath"

	"github.com/teslashibe/go-follow/pkg/tracking/detection"
)

// Backend names a descriptor backend.
type Backend string

const (
	BackendDlib  Backend = "dlib"
	BackendSFace Backend = "sface"
)

// Config holds recognizer configuration
type Config struct {
	Backend  Backend `yaml:"backend" json:"backend"`
	ModelDir string  `yaml:"model_dir" json:"model_dir"` // dlib .dat files and ONNX models

	// sface backend
	DetectorModel   string  `yaml:"detector_model" json:"detector_model"`     // YuNet ONNX file in ModelDir
	RecognizerModel string  `yaml:"recognizer_model" json:"recognizer_model"` // SFace ONNX file in ModelDir
	DetectThreshold float64 `yaml:"detect_threshold" json:"detect_threshold"` // YuNet score threshold

	// Downscale shrinks frames before recognition (0.25 = quarter size)
	Downscale float64 `yaml:"-" json:"downscale"`

	Match detection.MatchConfig `yaml:"match" json:"match"`
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Backend:         BackendDlib,
		ModelDir:        "models",
		DetectorModel:   "face_detection_yunet_2023mar.onnx",
		RecognizerModel: "face_recognition_sface_2021dec.onnx",
		DetectThreshold: 0.6,
		Downscale:       0.25,
		Match:           detection.DefaultMatchConfig(),
	}
}

// DetectorPath returns the YuNet model path.
func (c Config) DetectorPath() string {
	return filepath.Join(c.ModelDir, c.DetectorModel)
}

// RecognizerPath returns the SFace model path.
func (c Config) RecognizerPath() string {
	return filepath.Join(c.ModelDir, c.RecognizerModel)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendDlib, BackendSFace:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.Downscale <= 0 || c.Downscale > 1 {
		return fmt.Errorf("recognition: downscale %v not in (0, 1]", c.Downscale)
	}
	if c.Match.Tolerance <= 0 {
		return fmt.Errorf("recognition: match tolerance must be positive")
	}
	return nil
}
