package recognition

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-follow/pkg/gallery"
)

// stubBackend returns canned faces and records the image sizes it saw.
type stubBackend struct {
	faces  []Face
	err    error
	sizes  []image.Point
	closed bool
}

func (s *stubBackend) Encode(img gocv.Mat) ([]Face, error) {
	s.sizes = append(s.sizes, image.Pt(img.Cols(), img.Rows()))
	return s.faces, s.err
}

func (s *stubBackend) Close() error {
	s.closed = true
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Downscale = 0.25
	return cfg
}

func TestRecognize_DownscalesAndLabels(t *testing.T) {
	stub := &stubBackend{faces: []Face{
		{Rect: image.Rect(90, 50, 110, 70), Descriptor: gallery.Descriptor{0, 0}},
		{Rect: image.Rect(10, 10, 20, 20), Descriptor: gallery.Descriptor{5, 5}},
	}}
	r := newWithBackend(testConfig(), stub)
	r.SetGallery(gallery.New(gallery.Entry{Name: "alice", Descriptor: gallery.Descriptor{0.1, 0}}))

	frame := gocv.NewMatWithSize(480, 720, gocv.MatTypeCV8UC3)
	defer frame.Close()

	dets, err := r.Recognize(frame)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	if len(stub.sizes) != 1 || stub.sizes[0] != image.Pt(180, 120) {
		t.Errorf("backend saw %v, want [(180,120)]", stub.sizes)
	}
	if len(dets) != 2 {
		t.Fatalf("got %d detections, want 2", len(dets))
	}
	if dets[0].Identity != "alice" {
		t.Errorf("first identity = %q, want alice", dets[0].Identity)
	}
	if dets[0].Box.Top != 50 || dets[0].Box.Right != 110 || dets[0].Box.Bottom != 70 || dets[0].Box.Left != 90 {
		t.Errorf("box = %+v", dets[0].Box)
	}
	if dets[1].HasIdentity() {
		t.Errorf("second face should be unknown, got %q", dets[1].Identity)
	}
}

func TestRecognize_EmptyGalleryLeavesFacesUnknown(t *testing.T) {
	stub := &stubBackend{faces: []Face{{Rect: image.Rect(0, 0, 10, 10), Descriptor: gallery.Descriptor{1}}}}
	r := newWithBackend(testConfig(), stub)

	frame := gocv.NewMatWithSize(40, 40, gocv.MatTypeCV8UC3)
	defer frame.Close()

	dets, err := r.Recognize(frame)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(dets) != 1 || dets[0].HasIdentity() || dets[0].Confidence != 0 {
		t.Errorf("got %+v, want one unknown face", dets)
	}
}

func TestRecognize_Errors(t *testing.T) {
	boom := errors.New("boom")
	r := newWithBackend(testConfig(), &stubBackend{err: boom})

	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := r.Recognize(empty); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty frame: got %v, want ErrEmptyImage", err)
	}

	frame := gocv.NewMatWithSize(40, 40, gocv.MatTypeCV8UC3)
	defer frame.Close()
	if _, err := r.Recognize(frame); !errors.Is(err, boom) {
		t.Errorf("backend error: got %v, want boom", err)
	}
}

func TestEncodeFile(t *testing.T) {
	stub := &stubBackend{faces: []Face{
		{Rect: image.Rect(0, 0, 4, 4), Descriptor: gallery.Descriptor{1, 2}},
		{Rect: image.Rect(4, 4, 8, 8), Descriptor: gallery.Descriptor{3, 4}},
	}}
	r := newWithBackend(testConfig(), stub)

	dir := t.TempDir()
	path := filepath.Join(dir, "alice.png")
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 128, 255, 0), 32, 48, gocv.MatTypeCV8UC3)
	defer img.Close()
	if !gocv.IMWrite(path, img) {
		t.Fatal("IMWrite failed")
	}

	descs, err := r.EncodeFile(path)
	if err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	if len(descs) != 2 || descs[1][0] != 3 {
		t.Errorf("descriptors = %v", descs)
	}
	// Enrolment images are not downscaled
	if stub.sizes[0] != image.Pt(48, 32) {
		t.Errorf("backend saw %v, want (48,32)", stub.sizes[0])
	}
}

func TestEncodeFile_Unreadable(t *testing.T) {
	r := newWithBackend(testConfig(), &stubBackend{})
	path := filepath.Join(t.TempDir(), "junk.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.EncodeFile(path); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("got %v, want ErrEmptyImage", err)
	}
}

func TestClose(t *testing.T) {
	stub := &stubBackend{}
	r := newWithBackend(testConfig(), stub)
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if !stub.closed {
		t.Error("backend not closed")
	}
}

func TestNew_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "cnn"
	if _, err := New(cfg); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("got %v, want ErrUnknownBackend", err)
	}

	cfg = DefaultConfig()
	cfg.Downscale = 0
	if _, err := New(cfg); err == nil {
		t.Error("zero downscale should fail")
	}
}

func TestNew_MissingModels(t *testing.T) {
	for _, b := range []Backend{BackendDlib, BackendSFace} {
		cfg := DefaultConfig()
		cfg.Backend = b
		cfg.ModelDir = t.TempDir()
		if _, err := New(cfg); !errors.Is(err, ErrModelNotFound) {
			t.Errorf("%s: got %v, want ErrModelNotFound", b, err)
		}
	}
}

func TestNormalise(t *testing.T) {
	got := normalise([]float32{3, 4}, 0.5)
	if math.Abs(float64(got[0])-0.3) > 1e-6 || math.Abs(float64(got[1])-0.4) > 1e-6 {
		t.Errorf("normalise = %v, want [0.3 0.4]", got)
	}
	if z := normalise([]float32{0, 0}, 1); z[0] != 0 || z[1] != 0 {
		t.Errorf("zero vector = %v", z)
	}
}

// TestRecognize_RealModels runs a backend end to end when models are present
// in FOLLOW_MODELS_DIR.
func TestRecognize_RealModels(t *testing.T) {
	dir := os.Getenv("FOLLOW_MODELS_DIR")
	if dir == "" {
		t.Skip("FOLLOW_MODELS_DIR not set")
	}

	cfg := DefaultConfig()
	cfg.Backend = BackendSFace
	cfg.ModelDir = dir
	r, err := New(cfg)
	if err != nil {
		t.Skipf("models unavailable: %v", err)
	}
	defer r.Close()

	// A flat grey frame has no faces.
	frame := gocv.NewMatWithSize(480, 720, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(0, 0, 720, 480), color.RGBA{128, 128, 128, 0}, -1)

	dets, err := r.Recognize(frame)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("found %d faces in a blank frame", len(dets))
	}
}
