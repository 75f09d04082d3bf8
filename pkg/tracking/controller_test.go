package tracking

import (
	"testing"

	"github.com/teslashibe/go-follow/pkg/tracking/detection"
)

// centeredBox returns a 20px box whose center sits at (cx, cy).
func centeredBox(cx, cy int) detection.Box {
	return detection.Box{Top: cy - 10, Right: cx + 10, Bottom: cy + 10, Left: cx - 10}
}

func TestController_DistanceBand(t *testing.T) {
	c := NewController(DefaultConfig())
	box := centeredBox(360, 240)

	tests := []struct {
		distance float64
		want     Step
	}{
		{195, StepNone},
		{201, Forward},
		{189, Back},
		{190, StepNone},
		{200, StepNone},
		{0, StepNone}, // unknown range
	}
	for _, tt := range tests {
		got := c.Decide(box, 720, 480, tt.distance)
		if got.ForwardBack != tt.want {
			t.Errorf("distance %v: ForwardBack = %v, want %v", tt.distance, got.ForwardBack, tt.want)
		}
	}
}

func TestController_HorizontalDeadband(t *testing.T) {
	c := NewController(DefaultConfig())

	tests := []struct {
		dx   int
		want Step
	}{
		{0, StepNone},
		{50, StepNone},
		{-50, StepNone},
		{51, Right},
		{-51, Left},
	}
	for _, tt := range tests {
		got := c.Decide(centeredBox(360+tt.dx, 240), 720, 480, 195)
		if got.LeftRight != tt.want {
			t.Errorf("dx %d: LeftRight = %v, want %v", tt.dx, got.LeftRight, tt.want)
		}
		if got.Yaw != StepNone {
			t.Errorf("dx %d: default config must not yaw", tt.dx)
		}
	}
}

func TestController_VerticalDeadband(t *testing.T) {
	c := NewController(DefaultConfig())

	tests := []struct {
		dy   int
		want Step
	}{
		{50, StepNone},
		{-50, StepNone},
		{51, Down}, // below center
		{-51, Up},  // above center
	}
	for _, tt := range tests {
		got := c.Decide(centeredBox(360, 240+tt.dy), 720, 480, 195)
		if got.UpDown != tt.want {
			t.Errorf("dy %d: UpDown = %v, want %v", tt.dy, got.UpDown, tt.want)
		}
	}
}

func TestController_CenteredHolds(t *testing.T) {
	c := NewController(DefaultConfig())
	got := c.Decide(centeredBox(360, 240), 720, 480, 195)
	if !got.IsZero() {
		t.Errorf("Expected hold for a centered face in band, got %v", got)
	}
	if got.Magnitude != 20 {
		t.Errorf("Expected magnitude 20, got %d", got.Magnitude)
	}
}

func TestController_YawReplace(t *testing.T) {
	c := NewController(FirstPersonConfig())

	got := c.Decide(centeredBox(360+21, 240), 720, 480, 0)
	if got.Yaw != Clockwise {
		t.Errorf("Expected clockwise yaw at +21px, got %v", got.Yaw)
	}
	if got.LeftRight != StepNone {
		t.Errorf("Yaw replace must not translate, got %v", got.LeftRight)
	}

	got = c.Decide(centeredBox(360-21, 240), 720, 480, 0)
	if got.Yaw != CounterClockwise {
		t.Errorf("Expected counter-clockwise yaw at -21px, got %v", got.Yaw)
	}

	got = c.Decide(centeredBox(360+20, 240), 720, 480, 0)
	if got.Yaw != StepNone {
		t.Errorf("Expected no yaw at exactly 20px, got %v", got.Yaw)
	}
}

func TestController_YawAdd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.YawMode = YawAdd
	c := NewController(cfg)

	got := c.Decide(centeredBox(360+60, 240), 720, 480, 195)
	if got.Yaw != Clockwise || got.LeftRight != Right {
		t.Errorf("Expected yaw and translation, got %v", got)
	}

	// inside the translation deadband but outside the yaw deadband
	got = c.Decide(centeredBox(360+30, 240), 720, 480, 195)
	if got.Yaw != Clockwise || got.LeftRight != StepNone {
		t.Errorf("Expected yaw only at +30px, got %v", got)
	}
}

func TestController_FirstPersonIgnoresDistance(t *testing.T) {
	c := NewController(FirstPersonConfig())
	got := c.Decide(centeredBox(360, 240), 720, 480, 500)
	if got.ForwardBack != StepNone {
		t.Errorf("Expected no range control in first-person mode, got %v", got.ForwardBack)
	}
}

func TestIntent_Directions(t *testing.T) {
	i := Intent{ForwardBack: Back, LeftRight: Left, UpDown: Up, Yaw: CounterClockwise, Magnitude: 20}
	got := i.Directions()
	want := []string{"back", "left", "up", "ccw"}
	if len(got) != len(want) {
		t.Fatalf("Directions() = %v, want %v", got, want)
	}
	for k := range want {
		if got[k] != want[k] {
			t.Errorf("Directions()[%d] = %q, want %q", k, got[k], want[k])
		}
	}
	if i.String() != "back+left+up+ccw" {
		t.Errorf("Unexpected String(): %q", i.String())
	}
	if (Intent{Magnitude: 20}).String() != "hold" {
		t.Error("Expected zero intent to print as hold")
	}
}
