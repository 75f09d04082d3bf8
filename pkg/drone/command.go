package drone

import (
	"fmt"

	"github.com/teslashibe/go-follow/pkg/tracking"
)

// Command is one named SDK move such as "forward 20".
type Command struct {
	Name   string
	Amount int
}

func (c Command) String() string {
	return fmt.Sprintf("%s %d", c.Name, c.Amount)
}

// CommandsFor expands an intent into named moves in axis order:
// forward/back, left/right, up/down, then yaw.
func CommandsFor(intent tracking.Intent) []Command {
	dirs := intent.Directions()
	cmds := make([]Command, len(dirs))
	for i, d := range dirs {
		cmds[i] = Command{Name: d, Amount: intent.Magnitude}
	}
	return cmds
}

// RCFor maps an intent onto rc channel values, using the magnitude as the
// velocity on every active axis.
func RCFor(intent tracking.Intent) (leftRight, forwardBack, upDown, yaw int) {
	m := intent.Magnitude
	return int(intent.LeftRight) * m,
		int(intent.ForwardBack) * m,
		int(intent.UpDown) * m,
		int(intent.Yaw) * m
}
