package drone

import (
	"fmt"
	"sync"
)

// Direction is a manual flight direction, one per control key.
type Direction string

const (
	Upward   Direction = "upward"
	Downward Direction = "downward"
	YawLeft  Direction = "yaw_left"
	YawRight Direction = "yaw_right"
	Forward  Direction = "forward"
	Backward Direction = "backward"
	Left     Direction = "left"
	Right    Direction = "right"
)

// Directions lists every manual direction.
var Directions = []Direction{Upward, Downward, YawLeft, YawRight, Forward, Backward, Left, Right}

// ParseDirection validates a direction name.
func ParseDirection(s string) (Direction, error) {
	for _, d := range Directions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// RCForDirection returns the rc channel values that fly in dir at speed.
func RCForDirection(dir Direction, speed int) (leftRight, forwardBack, upDown, yaw int, err error) {
	switch dir {
	case Upward:
		upDown = speed
	case Downward:
		upDown = -speed
	case YawLeft:
		yaw = -speed
	case YawRight:
		yaw = speed
	case Forward:
		forwardBack = speed
	case Backward:
		forwardBack = -speed
	case Left:
		leftRight = -speed
	case Right:
		leftRight = speed
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
	}
	return
}

// Manual flies the drone from press/release events: a press starts moving
// in one direction at a fixed speed, a release stops all motion.
type Manual struct {
	rc    RemoteController
	speed int

	mu     sync.Mutex
	active Direction
}

// NewManual creates manual control at speed (percent).
func NewManual(rc RemoteController, speed int) *Manual {
	return &Manual{rc: rc, speed: speed}
}

// Press starts moving in dir.
func (m *Manual) Press(dir Direction) error {
	lr, fb, ud, yaw, err := RCForDirection(dir, m.speed)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.rc.RC(lr, fb, ud, yaw); err != nil {
		return err
	}
	m.active = dir
	return nil
}

// Release stops all motion.
func (m *Manual) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = ""
	return m.rc.RC(0, 0, 0, 0)
}

// Active returns the direction currently held, or "".
func (m *Manual) Active() Direction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
