// Package drone provides the command sink side of pursuit: interfaces and
// implementations that turn movement intents into platform commands.
//
// This package follows the Interface Segregation Principle (ISP) by defining
// small, focused interfaces that can be composed as needed. Consumers should
// depend only on the interfaces they actually use.
package drone

import (
	"context"

	"github.com/teslashibe/go-follow/pkg/tracking"
)

// Sink executes one frame's movement intent.
// Implementations must not assume the platform acknowledges anything.
type Sink interface {
	Execute(intent tracking.Intent) error
}

// RemoteController streams four-channel velocity commands.
// Values are percentages in [-100, 100].
type RemoteController interface {
	RC(leftRight, forwardBack, upDown, yaw int) error
}

// Flier performs takeoff and landing. Both block until the platform
// confirms or ctx expires.
type Flier interface {
	Takeoff(ctx context.Context) error
	Land(ctx context.Context) error
}

// Holder stops any residual motion left by velocity commands.
type Holder interface {
	Hold() error
}

// Platform is the composite interface for a fully controllable drone.
type Platform interface {
	Sink
	RemoteController
	Flier
	Holder
	Close() error
}

// Ensure implementations satisfy their interfaces
var (
	_ Platform = (*Tello)(nil)
	_ Platform = (*Mock)(nil)
	_ Sink     = (*LogSink)(nil)
)
