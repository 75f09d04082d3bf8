package tracking

import "github.com/teslashibe/go-follow/pkg/tracking/detection"

// Controller is a stateless bang-bang pursuit controller. Each axis either
// steps at the configured magnitude or does nothing; all comparisons are
// strict, so an error exactly on a deadband edge produces no step.
type Controller struct {
	cfg Config
}

// NewController creates a controller from cfg.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Offset returns the face center offset from the frame center in source
// frame pixels. Positive x is right of center, positive y is below.
func Offset(box detection.Box, frameW, frameH int) (dx, dy int) {
	cx, cy := box.Center()
	return cx - frameW/2, cy - frameH/2
}

// Decide maps a target box (in source frame coordinates) and its estimated
// range to an intent. A distance of 0 means the range is unknown and no
// forward/back step is issued.
func (c *Controller) Decide(box detection.Box, frameW, frameH int, distanceCm float64) Intent {
	cfg := c.cfg
	intent := Intent{Magnitude: cfg.Magnitude}

	// Range: too far -> approach, too close -> back off
	if cfg.DistanceControl && distanceCm > 0 {
		switch {
		case distanceCm > cfg.FarCm:
			intent.ForwardBack = Forward
		case distanceCm < cfg.NearCm:
			intent.ForwardBack = Back
		}
	}

	dx, dy := Offset(box, frameW, frameH)

	// Horizontal: translate, rotate, or both
	if cfg.YawMode != YawReplace {
		intent.LeftRight = bang(dx, cfg.HorizontalDeadbandPx, Right, Left)
	}
	if cfg.YawMode == YawReplace || cfg.YawMode == YawAdd {
		intent.Yaw = bang(dx, cfg.YawDeadbandPx, Clockwise, CounterClockwise)
	}

	// Vertical: image y grows downward, so a face above center means climb
	intent.UpDown = bang(dy, cfg.VerticalDeadbandPx, Down, Up)

	return intent
}

// bang returns pos when err > deadband, neg when err < -deadband.
func bang(err, deadband int, pos, neg Step) Step {
	switch {
	case err > deadband:
		return pos
	case err < -deadband:
		return neg
	default:
		return StepNone
	}
}
