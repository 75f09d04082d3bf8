package detection

import (
	"math"
	"testing"

	"github.com/teslashibe/go-follow/pkg/gallery"
)

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func TestBox_Rescale(t *testing.T) {
	b := Box{Top: 10, Right: 20, Bottom: 30, Left: 40}
	got := b.Rescale(0.25)
	want := Box{Top: 40, Right: 80, Bottom: 120, Left: 160}
	if got != want {
		t.Errorf("Rescale(0.25) = %+v, want %+v", got, want)
	}

	if b.Rescale(1) != b {
		t.Error("Rescale(1) should be identity")
	}
	if b.Rescale(0) != b {
		t.Error("Rescale(0) should leave the box unchanged")
	}
}

func TestBox_Center(t *testing.T) {
	tests := []struct {
		box  Box
		x, y int
	}{
		{Box{Top: 0, Right: 10, Bottom: 10, Left: 0}, 5, 5},
		{Box{Top: 0, Right: 11, Bottom: 11, Left: 0}, 5, 5},
		{Box{Top: -3, Right: 0, Bottom: 0, Left: -3}, -2, -2}, // floor, not truncation
	}
	for _, tt := range tests {
		x, y := tt.box.Center()
		if x != tt.x || y != tt.y {
			t.Errorf("%+v.Center() = (%d, %d), want (%d, %d)", tt.box, x, y, tt.x, tt.y)
		}
	}
}

func TestBox_WidthHeightRect(t *testing.T) {
	b := Box{Top: 100, Right: 340, Bottom: 260, Left: 180}
	if b.Width() != 160 || b.Height() != 160 {
		t.Errorf("Expected 160x160, got %dx%d", b.Width(), b.Height())
	}
	if BoxFromRect(b.Rect()) != b {
		t.Error("Rect round trip changed the box")
	}
}

func TestConfidenceFromDistance(t *testing.T) {
	tests := []struct {
		distance, threshold, want float64
	}{
		{0.0, 0.6, 100},
		{0.5, 0.6, 100},
		{0.55, 0.6, 90},
		{0.6, 0.6, 80},
		{0.8, 0.6, 0},  // above threshold clamps to zero
		{1.2, 0.6, 40}, // and only turns positive past 1.0
		{0.6, 0.7, 400.0 / 6},
	}
	for _, tt := range tests {
		got := ConfidenceFromDistance(tt.distance, tt.threshold)
		if !floatEquals(got, tt.want) {
			t.Errorf("ConfidenceFromDistance(%v, %v) = %v, want %v", tt.distance, tt.threshold, got, tt.want)
		}
	}
}

func TestConfidenceFromDistance_Range(t *testing.T) {
	for d := 0.0; d <= 2.0; d += 0.01 {
		c := ConfidenceFromDistance(d, DefaultMatchThreshold)
		if c < 0 || c > 100 {
			t.Fatalf("confidence %v out of range for distance %v", c, d)
		}
	}
}

func testGallery() *gallery.Gallery {
	return gallery.New(
		gallery.Entry{Name: "Alice", Descriptor: gallery.Descriptor{0, 0}},
		gallery.Entry{Name: "Bob", Descriptor: gallery.Descriptor{1, 0}},
	)
}

func TestMatcher_Nearest(t *testing.T) {
	m := NewMatcher(testGallery(), DefaultMatchConfig())

	name, dist, ok := m.Nearest(gallery.Descriptor{0.9, 0})
	if !ok || name != "Bob" || !floatEquals(dist, 0.1) {
		t.Errorf("Nearest = (%q, %v, %v), want (Bob, 0.1, true)", name, dist, ok)
	}

	if _, _, ok := m.Nearest(gallery.Descriptor{1, 2, 3}); ok {
		t.Error("Expected no match for wrong descriptor length")
	}

	empty := NewMatcher(gallery.New(), DefaultMatchConfig())
	if _, _, ok := empty.Nearest(gallery.Descriptor{0, 0}); ok {
		t.Error("Expected no match against empty gallery")
	}
}

func TestMatcher_Label(t *testing.T) {
	m := NewMatcher(testGallery(), DefaultMatchConfig())
	box := Box{Top: 1, Right: 2, Bottom: 3, Left: 0}

	det := m.Label(box, gallery.Descriptor{0, 0.3})
	if det.Identity != "Alice" {
		t.Fatalf("Expected Alice, got %q", det.Identity)
	}
	if !floatEquals(det.RawDistance, 0.3) || det.Confidence != 100 {
		t.Errorf("Unexpected match values: %+v", det)
	}
	if det.Box != box {
		t.Error("Label must keep the box")
	}

	unknown := m.Label(box, gallery.Descriptor{0.5, 5})
	if unknown.HasIdentity() || unknown.Confidence != 0 || unknown.RawDistance != 0 {
		t.Errorf("Expected unknown face with zero values, got %+v", unknown)
	}
	if unknown.DisplayName() != "Unknown" {
		t.Errorf("Expected display name Unknown, got %q", unknown.DisplayName())
	}
}

func TestMatcher_LabelToleranceInclusive(t *testing.T) {
	m := NewMatcher(gallery.New(gallery.Entry{Name: "Alice", Descriptor: gallery.Descriptor{0}}), DefaultMatchConfig())

	if det := m.Label(Box{}, gallery.Descriptor{0.5}); det.Identity != "Alice" {
		t.Error("Expected match inside tolerance")
	}
	if det := m.Label(Box{}, gallery.Descriptor{0.61}); det.HasIdentity() {
		t.Error("Expected no match beyond tolerance")
	}
}

func TestMatcher_MinIdentityConfidence(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.MinIdentityConfidence = 95
	m := NewMatcher(testGallery(), cfg)

	// distance 0.55 -> confidence 90, not enough to name
	det := m.Label(Box{}, gallery.Descriptor{0, 0.55})
	if det.HasIdentity() {
		t.Errorf("Expected identity withheld, got %q", det.Identity)
	}
	if !floatEquals(det.Confidence, 90) {
		t.Errorf("Expected confidence 90, got %v", det.Confidence)
	}

	if det := m.Label(Box{}, gallery.Descriptor{0, 0.2}); det.Identity != "Alice" {
		t.Errorf("Expected Alice at high confidence, got %q", det.Identity)
	}
}
