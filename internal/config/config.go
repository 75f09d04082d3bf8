// Package config loads the go-follow configuration file and applies
// environment overrides on top of the component defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-follow/pkg/drone"
	"github.com/teslashibe/go-follow/pkg/tracking"
	"github.com/teslashibe/go-follow/pkg/tracking/detection"
	"github.com/teslashibe/go-follow/pkg/tracking/recognition"
	"github.com/teslashibe/go-follow/pkg/video"
	"github.com/teslashibe/go-follow/pkg/web"
)

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// GalleryConfig says where enrolled identities come from.
type GalleryConfig struct {
	// Dir holds one image per identity, named after it.
	Dir string `yaml:"dir"`

	// Cache is the descriptor cache file; "" disables caching.
	Cache string `yaml:"cache"`

	// DatabaseURL, when set, loads the gallery from postgres instead of Dir.
	DatabaseURL string `yaml:"database_url"`
}

// Config is the whole application configuration.
type Config struct {
	Log        LogConfig          `yaml:"log"`
	Variant    string             `yaml:"variant"` // tracking preset the file starts from
	Camera     video.Config       `yaml:"camera"`
	Tracking   tracking.Config    `yaml:"tracking"`
	Recognizer recognition.Config `yaml:"recognizer"`
	Drone      drone.Config       `yaml:"drone"`
	Gallery    GalleryConfig      `yaml:"gallery"`
	Web        web.Config         `yaml:"web"`
}

// DefaultConfig returns the drone variant defaults.
func DefaultConfig() Config {
	return Config{
		Log:        LogConfig{Level: "info"},
		Variant:    "default",
		Camera:     video.DefaultConfig(),
		Tracking:   tracking.DefaultConfig(),
		Recognizer: recognition.DefaultConfig(),
		Drone:      drone.DefaultConfig(),
		Gallery: GalleryConfig{
			Dir:   "faces",
			Cache: filepath.Join("faces", ".descriptors.msgpack"),
		},
		Web: web.DefaultConfig(),
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path uses the defaults alone.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}

		// The variant picks the tracking base before the rest of the file
		// overrides individual fields.
		var head struct {
			Variant string `yaml:"variant"`
		}
		if err := yaml.Unmarshal(data, &head); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if head.Variant != "" {
			if err := cfg.SetVariant(head.Variant); err != nil {
				return cfg, err
			}
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// SetVariant resets tracking to a preset and matches the confidence
// threshold the variant was tuned with. Yaw variants switch the drone to rc
// so yaw is a rotation rate rather than a fixed cw/ccw turn per frame.
func (c *Config) SetVariant(name string) error {
	t, err := tracking.Preset(name)
	if err != nil {
		return &ConfigError{Field: "variant", Message: err.Error()}
	}
	c.Variant = name
	c.Tracking = t
	if name == "loose" {
		c.Recognizer.Match.ConfidenceThreshold = detection.StrictMatchThreshold
	}
	if t.YawMode != tracking.YawOff {
		c.Drone.Tello.Mode = drone.ModeRC
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "camera", Message: fmt.Sprintf("invalid camera config: %v", errs)}
	}
	if err := c.Tracking.Validate(); err != nil {
		return &ConfigError{Field: "tracking", Message: err.Error(), Err: err}
	}

	// Recognition runs on the tracking downscale
	c.Recognizer.Downscale = c.Tracking.Downscale
	if err := c.Recognizer.Validate(); err != nil {
		return &ConfigError{Field: "recognizer", Message: err.Error(), Err: err}
	}

	if c.Tracking.FrameWidth != c.Camera.Width || c.Tracking.FrameHeight != c.Camera.Height {
		return &ConfigError{
			Field: "tracking",
			Message: fmt.Sprintf("tracking frame %dx%d does not match camera %dx%d",
				c.Tracking.FrameWidth, c.Tracking.FrameHeight, c.Camera.Width, c.Camera.Height),
		}
	}

	switch c.Drone.Kind {
	case drone.KindTello, drone.KindLog, drone.KindMock:
	default:
		return &ConfigError{Field: "drone.kind", Message: fmt.Sprintf("unknown drone kind %q", c.Drone.Kind)}
	}

	if c.Gallery.Dir == "" && c.Gallery.DatabaseURL == "" {
		return &ConfigError{Field: "gallery", Message: "gallery.dir or gallery.database_url is required"}
	}
	if c.Web.Port == "" {
		return &ConfigError{Field: "web.port", Message: "web.port is required"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
