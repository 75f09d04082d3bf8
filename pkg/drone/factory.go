package drone

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-follow/internal/log"
)

// Sink kinds.
const (
	KindTello = "tello" // real drone over the SDK
	KindLog   = "log"   // webcam only, intents are logged
	KindMock  = "mock"  // recording platform
)

// Config selects and configures the command sink.
type Config struct {
	Kind       string        `yaml:"kind" json:"kind"`
	Tello      TelloConfig   `yaml:"tello" json:"tello"`
	HoldAfter  time.Duration `yaml:"hold_after" json:"hold_after"`     // idle time before zeroing rc velocity
	LandOnExit bool          `yaml:"land_on_exit" json:"land_on_exit"` // land during shutdown if flying
}

// DefaultConfig returns a Tello configuration.
func DefaultConfig() Config {
	return Config{
		Kind:       KindTello,
		Tello:      DefaultTelloConfig(),
		HoldAfter:  250 * time.Millisecond,
		LandOnExit: true,
	}
}

// Open creates the configured sink. The platform is nil for sinks that
// cannot fly (log).
func Open(ctx context.Context, cfg Config) (Sink, Platform, error) {
	log.Component("drone").Info("opening command sink", "kind", cfg.Kind)

	switch cfg.Kind {
	case KindTello:
		t, err := DialTello(ctx, cfg.Tello)
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	case KindLog:
		return NewLogSink(), nil, nil
	case KindMock:
		m := NewMock()
		return m, m, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSink, cfg.Kind)
	}
}
