// Package tracking turns recognized faces into pursuit decisions.
//
// It owns the lock on a target identity, estimates range from the apparent
// face width, and runs a bang-bang controller that emits at most one
// directional intent per axis per frame. Nothing in this package talks to
// hardware: intents are handed to a command sink by the caller.
package tracking

import (
	"fmt"
	"time"
)

// YawMode selects how horizontal error is corrected.
type YawMode string

const (
	// YawOff corrects horizontal error by lateral translation only.
	YawOff YawMode = "off"
	// YawReplace corrects horizontal error by rotating instead of translating.
	YawReplace YawMode = "replace"
	// YawAdd rotates and translates.
	YawAdd YawMode = "add"
)

// Config holds all tunable parameters for face pursuit
type Config struct {
	// Camera geometry
	FocalLengthPx    float64 `yaml:"focal_length_px" json:"focal_length_px"`         // Pinhole focal length (pixels)
	KnownFaceWidthCm float64 `yaml:"known_face_width_cm" json:"known_face_width_cm"` // Assumed real face width
	FrameWidth       int     `yaml:"frame_width" json:"frame_width"`                 // Source frame width (pixels)
	FrameHeight      int     `yaml:"frame_height" json:"frame_height"`               // Source frame height (pixels)
	Downscale        float64 `yaml:"downscale" json:"downscale"`                     // Recognition runs on frames shrunk by this factor

	// Selection
	AcceptanceThreshold float64 `yaml:"acceptance_threshold" json:"acceptance_threshold"` // Unlocked: annotate faces above this confidence (0-100)

	// Distance band (cm). Inside [NearCm, FarCm] no forward/back intent is issued.
	NearCm          float64 `yaml:"near_cm" json:"near_cm"`
	FarCm           float64 `yaml:"far_cm" json:"far_cm"`
	DistanceControl bool    `yaml:"distance_control" json:"distance_control"`

	// Deadbands (pixels from frame center, exclusive)
	HorizontalDeadbandPx int     `yaml:"horizontal_deadband_px" json:"horizontal_deadband_px"`
	VerticalDeadbandPx   int     `yaml:"vertical_deadband_px" json:"vertical_deadband_px"`
	YawDeadbandPx        int     `yaml:"yaw_deadband_px" json:"yaw_deadband_px"`
	YawMode              YawMode `yaml:"yaw_mode" json:"yaw_mode"`

	// Magnitude attached to every directional intent
	Magnitude int `yaml:"magnitude" json:"magnitude"`

	// Minimum delay between frame cycles
	FrameDelay time.Duration `yaml:"frame_delay" json:"frame_delay"`
}

// DefaultConfig returns the drone pursuit configuration
func DefaultConfig() Config {
	return Config{
		// Camera geometry - Tello front camera resized to 720x480
		FocalLengthPx:    800,
		KnownFaceWidthCm: 16,
		FrameWidth:       720,
		FrameHeight:      480,
		Downscale:        0.25, // recognize on a quarter-size frame

		// Only confident matches when nothing is locked
		AcceptanceThreshold: 95,

		// Hold between 1.9m and 2m
		NearCm:          190,
		FarCm:           200,
		DistanceControl: true,

		// Deadbands
		HorizontalDeadbandPx: 50,
		VerticalDeadbandPx:   50,
		YawDeadbandPx:        20,
		YawMode:              YawOff,

		Magnitude: 20,

		FrameDelay: 10 * time.Millisecond,
	}
}

// LooseConfig returns a configuration that annotates less certain matches
func LooseConfig() Config {
	cfg := DefaultConfig()
	cfg.AcceptanceThreshold = 80
	return cfg
}

// FirstPersonConfig returns the rotate-to-face variant: horizontal error is
// corrected by yaw and range is not controlled
func FirstPersonConfig() Config {
	cfg := DefaultConfig()
	cfg.YawMode = YawReplace
	cfg.YawDeadbandPx = 20
	cfg.VerticalDeadbandPx = 20
	cfg.DistanceControl = false
	return cfg
}

// Preset returns a named configuration: "default", "loose" or "first-person".
func Preset(name string) (Config, error) {
	switch name {
	case "", "default":
		return DefaultConfig(), nil
	case "loose":
		return LooseConfig(), nil
	case "first-person", "fpv":
		return FirstPersonConfig(), nil
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.FrameWidth <= 0 || c.FrameHeight <= 0:
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidConfig, c.FrameWidth, c.FrameHeight)
	case c.Downscale <= 0 || c.Downscale > 1:
		return fmt.Errorf("%w: downscale %v not in (0, 1]", ErrInvalidConfig, c.Downscale)
	case c.FocalLengthPx <= 0 || c.KnownFaceWidthCm <= 0:
		return fmt.Errorf("%w: focal length and face width must be positive", ErrInvalidConfig)
	case c.NearCm > c.FarCm:
		return fmt.Errorf("%w: near %vcm beyond far %vcm", ErrInvalidConfig, c.NearCm, c.FarCm)
	case c.HorizontalDeadbandPx < 0 || c.VerticalDeadbandPx < 0 || c.YawDeadbandPx < 0:
		return fmt.Errorf("%w: negative deadband", ErrInvalidConfig)
	case c.Magnitude <= 0:
		return fmt.Errorf("%w: magnitude %d", ErrInvalidConfig, c.Magnitude)
	case c.FrameDelay < 0:
		return fmt.Errorf("%w: negative frame delay", ErrInvalidConfig)
	}
	switch c.YawMode {
	case YawOff, YawReplace, YawAdd:
	default:
		return fmt.Errorf("%w: yaw mode %q", ErrInvalidConfig, c.YawMode)
	}
	return nil
}
