// Package video opens the camera stream, renders annotations onto frames
// and keeps the latest encoded frame for viewers.
package video

import (
	"fmt"
	"strconv"
)

// Source presets
const (
	PresetTello  = "tello"
	PresetWebcam = "webcam"
)

// TelloStreamURL is where the Tello pushes its H.264 stream after streamon.
const TelloStreamURL = "udp://@0.0.0.0:11111"

// Config holds capture and rendering configuration.
type Config struct {
	// Source is a device index ("0") or a URL/file FFmpeg can open.
	Source string `yaml:"source" json:"source"`

	// Frames are resized to Width x Height before recognition.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	Quality       int  `yaml:"quality" json:"quality"` // JPEG quality 1-100
	ShowFaceCount bool `yaml:"show_face_count" json:"show_face_count"`
}

// DefaultConfig returns the Tello stream at 720x480.
func DefaultConfig() Config {
	return Config{
		Source:  TelloStreamURL,
		Width:   720,
		Height:  480,
		Quality: 80,
	}
}

// WebcamConfig returns the first local camera at the same size.
func WebcamConfig() Config {
	cfg := DefaultConfig()
	cfg.Source = "0"
	return cfg
}

// Preset returns a named configuration.
func Preset(name string) (Config, error) {
	switch name {
	case PresetTello, "":
		return DefaultConfig(), nil
	case PresetWebcam:
		return WebcamConfig(), nil
	}
	return Config{}, fmt.Errorf("unknown video preset: %q", name)
}

// DeviceIndex reports whether Source names a local device.
func (c Config) DeviceIndex() (int, bool) {
	n, err := strconv.Atoi(c.Source)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c Config) Validate() []string {
	var errs []string
	if c.Source == "" {
		errs = append(errs, "source is required")
	}
	if c.Width < 160 || c.Width > 4096 {
		errs = append(errs, "width must be between 160 and 4096")
	}
	if c.Height < 120 || c.Height > 2160 {
		errs = append(errs, "height must be between 120 and 2160")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, "quality must be between 1 and 100")
	}
	return errs
}
