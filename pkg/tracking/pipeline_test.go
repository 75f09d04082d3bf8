package tracking

import (
	"testing"

	"github.com/teslashibe/go-follow/pkg/tracking/detection"
)

// aliceBox maps to (200, 440, 280, 360) on the source frame: 80px wide,
// centered at (400, 240), which puts Alice at 160cm.
var aliceBox = detection.Box{Top: 50, Right: 110, Bottom: 70, Left: 90}

var bobBox = detection.Box{Top: 10, Right: 40, Bottom: 30, Left: 20}

func scenarioDetections() []detection.Detection {
	return []detection.Detection{
		{Box: aliceBox, Identity: "Alice", Confidence: 97, RawDistance: 0.3},
		{Box: bobBox, Identity: "Bob", Confidence: 40, RawDistance: 0.58},
	}
}

func TestPipeline_RescaleBeforeGeometry(t *testing.T) {
	p := NewPipeline(DefaultConfig(), NewLockManager(roster{}))

	res := p.Process([]detection.Detection{
		{Box: detection.Box{Top: 10, Right: 20, Bottom: 30, Left: 40}, Identity: "X", Confidence: 99},
	})
	if len(res.Annotations) != 1 {
		t.Fatalf("Expected 1 annotation, got %d", len(res.Annotations))
	}

	want := detection.Box{Top: 40, Right: 80, Bottom: 120, Left: 160}
	if got := res.Annotations[0].Box; got != want {
		t.Errorf("Annotation box = %+v, want %+v", got, want)
	}
}

func TestPipeline_DistanceUsesSourceWidth(t *testing.T) {
	lock := NewLockManager(roster{"Alice": true})
	lock.Lock("Alice")
	p := NewPipeline(DefaultConfig(), lock)

	res := p.Process(scenarioDetections())
	if len(res.Annotations) != 1 {
		t.Fatalf("Expected 1 annotation, got %d", len(res.Annotations))
	}
	ann := res.Annotations[0]
	// 80px on the source frame, not 20px on the recognizer frame
	if ann.DistanceCm != 160 {
		t.Errorf("Expected 160cm, got %v", ann.DistanceCm)
	}
	if ann.OffsetX != 40 || ann.OffsetY != 0 {
		t.Errorf("Expected offset (40, 0), got (%d, %d)", ann.OffsetX, ann.OffsetY)
	}
}

func TestPipeline_AliceBobScenario(t *testing.T) {
	lock := NewLockManager(roster{"Alice": true, "Bob": true})
	p := NewPipeline(DefaultConfig(), lock)

	// Unlocked: only the confident face is annotated, nothing moves
	res := p.Process(scenarioDetections())
	if res.Locked || res.Pursuing {
		t.Error("Expected unlocked, not pursuing")
	}
	if len(res.Annotations) != 1 || res.Annotations[0].Name != "Alice" {
		t.Fatalf("Expected only Alice annotated, got %+v", res.Annotations)
	}
	if !res.Intent.IsZero() {
		t.Errorf("Unlocked pipeline must not issue intents, got %v", res.Intent)
	}
	if res.Annotations[0].Target {
		t.Error("Unlocked annotation must not be marked as target")
	}

	// Locked on Alice: same frame now drives the controller from Alice's box
	lock.Lock("Alice")
	res = p.Process(scenarioDetections())
	if !res.Locked || !res.Pursuing || res.Target != "Alice" {
		t.Fatalf("Expected pursuing Alice, got %+v", res)
	}
	if len(res.Annotations) != 1 || !res.Annotations[0].Target {
		t.Fatalf("Expected Alice as the single target annotation, got %+v", res.Annotations)
	}

	want := Intent{ForwardBack: Back, Magnitude: 20}
	if res.Intent != want {
		t.Errorf("Intent = %+v, want %+v", res.Intent, want)
	}
}

func TestPipeline_LockedIgnoresConfidence(t *testing.T) {
	lock := NewLockManager(roster{"Alice": true, "Bob": true})
	lock.Lock("Bob")
	p := NewPipeline(DefaultConfig(), lock)

	res := p.Process(scenarioDetections())
	if len(res.Annotations) != 1 || res.Annotations[0].Name != "Bob" {
		t.Fatalf("Expected Bob selected by identity, got %+v", res.Annotations)
	}
	if !res.Pursuing {
		t.Error("Expected pursuit of Bob")
	}
}

func TestPipeline_LockedTargetAbsent(t *testing.T) {
	lock := NewLockManager(roster{"Alice": true, "Carol": true})
	lock.Lock("Carol")
	p := NewPipeline(DefaultConfig(), lock)

	res := p.Process(scenarioDetections())
	if res.Pursuing || !res.Intent.IsZero() || len(res.Annotations) != 0 {
		t.Errorf("Expected no selection and no intent, got %+v", res)
	}
	if name, ok := lock.Target(); !ok || name != "Carol" {
		t.Error("Missing target must not alter the lock")
	}
}

func TestPipeline_NoDetections(t *testing.T) {
	lock := NewLockManager(roster{"Alice": true})
	lock.Lock("Alice")
	p := NewPipeline(DefaultConfig(), lock)

	res := p.Process(nil)
	if res.Pursuing || len(res.Annotations) != 0 || !res.Intent.IsZero() {
		t.Errorf("Expected empty result, got %+v", res)
	}
}

func TestPipeline_OnlyFirstMatchDrivesIntent(t *testing.T) {
	lock := NewLockManager(roster{"Alice": true})
	lock.Lock("Alice")
	p := NewPipeline(DefaultConfig(), lock)

	far := detection.Box{Top: 55, Right: 92, Bottom: 65, Left: 88} // 16px on source -> 800cm
	res := p.Process([]detection.Detection{
		{Box: aliceBox, Identity: "Alice", Confidence: 97},
		{Box: far, Identity: "Alice", Confidence: 96},
	})

	if len(res.Annotations) != 2 {
		t.Fatalf("Expected both matches annotated, got %d", len(res.Annotations))
	}
	if !res.Annotations[0].Target || res.Annotations[1].Target {
		t.Error("Expected only the first match to be the target")
	}
	if res.Intent.ForwardBack != Back {
		t.Errorf("Expected intent from the first match, got %v", res.Intent)
	}
}

func TestPipeline_UnknownFaceLabel(t *testing.T) {
	p := NewPipeline(LooseConfig(), NewLockManager(roster{}))

	res := p.Process([]detection.Detection{{Box: aliceBox, Confidence: 85}})
	if len(res.Annotations) != 1 {
		t.Fatalf("Expected the loose threshold to select the face, got %d", len(res.Annotations))
	}
	want := "Unknown (85.00%) Distance: 160.00 cm"
	if got := res.Annotations[0].Label; got != want {
		t.Errorf("Label = %q, want %q", got, want)
	}
}

func TestFormatLabel(t *testing.T) {
	got := FormatLabel("Alice", 97.456, 201.5)
	want := "Alice (97.46%) Distance: 201.50 cm"
	if got != want {
		t.Errorf("FormatLabel = %q, want %q", got, want)
	}
}

func TestPipeline_AcceptanceIsStrict(t *testing.T) {
	p := NewPipeline(DefaultConfig(), NewLockManager(roster{}))
	res := p.Process([]detection.Detection{{Box: aliceBox, Identity: "Alice", Confidence: 95}})
	if len(res.Annotations) != 0 {
		t.Error("Expected confidence equal to the threshold to be rejected")
	}
}
