package tracking

import "strings"

// Step is a signed unit along one axis: -1, 0 or +1.
type Step int8

// Axis steps. Positive is forward, right, up and clockwise.
const (
	StepNone Step = 0

	Forward Step = 1
	Back    Step = -1

	Right Step = 1
	Left  Step = -1

	Up   Step = 1
	Down Step = -1

	Clockwise        Step = 1
	CounterClockwise Step = -1
)

// Intent is one frame's pursuit decision: at most one step per axis, all
// carrying the same magnitude. The zero Intent means hold position.
type Intent struct {
	ForwardBack Step `json:"forward_back"`
	LeftRight   Step `json:"left_right"`
	UpDown      Step `json:"up_down"`
	Yaw         Step `json:"yaw"`
	Magnitude   int  `json:"magnitude"`
}

// IsZero reports whether the intent moves nothing.
func (i Intent) IsZero() bool {
	return i.ForwardBack == 0 && i.LeftRight == 0 && i.UpDown == 0 && i.Yaw == 0
}

// Directions returns the platform direction names of the intent in axis
// order: forward/back, left/right, up/down, then yaw (cw/ccw).
func (i Intent) Directions() []string {
	var out []string
	switch i.ForwardBack {
	case Forward:
		out = append(out, "forward")
	case Back:
		out = append(out, "back")
	}
	switch i.LeftRight {
	case Left:
		out = append(out, "left")
	case Right:
		out = append(out, "right")
	}
	switch i.UpDown {
	case Up:
		out = append(out, "up")
	case Down:
		out = append(out, "down")
	}
	switch i.Yaw {
	case Clockwise:
		out = append(out, "cw")
	case CounterClockwise:
		out = append(out, "ccw")
	}
	return out
}

func (i Intent) String() string {
	if i.IsZero() {
		return "hold"
	}
	return strings.Join(i.Directions(), "+")
}
