package recognition

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-follow/internal/log"
	"github.com/teslashibe/go-follow/pkg/gallery"
	"github.com/teslashibe/go-follow/pkg/tracking/detection"
)

// Face is one detected face with its descriptor.
type Face struct {
	Rect       image.Rectangle
	Descriptor gallery.Descriptor
}

// backend detects faces and computes descriptors on a BGR image.
type backend interface {
	Encode(img gocv.Mat) ([]Face, error)
	Close() error
}

// Recognizer detects and names faces. It implements gallery.Encoder for
// enrolment and recognizes frames for the frame loop.
type Recognizer struct {
	cfg     Config
	backend backend
	matcher atomic.Pointer[detection.Matcher]

	mu sync.Mutex // backends are not safe for concurrent inference
}

// Verify Recognizer implements gallery.Encoder
var _ gallery.Encoder = (*Recognizer)(nil)

// New loads the configured backend. Missing models are an error.
func New(cfg Config) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		b   backend
		err error
	)
	switch cfg.Backend {
	case BackendDlib:
		b, err = newDlib(cfg)
	case BackendSFace:
		b, err = newSFace(cfg)
	}
	if err != nil {
		return nil, err
	}

	r := &Recognizer{cfg: cfg, backend: b}
	r.matcher.Store(detection.NewMatcher(nil, cfg.Match))

	log.Component("recognition").Info("recognizer ready",
		"backend", cfg.Backend,
		"model_dir", cfg.ModelDir,
		"tolerance", cfg.Match.Tolerance)
	return r, nil
}

// newWithBackend is used by tests to inject a backend.
func newWithBackend(cfg Config, b backend) *Recognizer {
	r := &Recognizer{cfg: cfg, backend: b}
	r.matcher.Store(detection.NewMatcher(nil, cfg.Match))
	return r
}

// Name returns the backend name, used to tag descriptor caches.
func (r *Recognizer) Name() string {
	return string(r.cfg.Backend)
}

// SetGallery swaps the identities faces are matched against.
func (r *Recognizer) SetGallery(g *gallery.Gallery) {
	r.matcher.Store(detection.NewMatcher(g, r.cfg.Match))
}

// EncodeFile returns one descriptor per face in the image at path.
func (r *Recognizer) EncodeFile(path string) ([]gallery.Descriptor, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyImage, path)
	}

	faces, err := r.encode(img)
	if err != nil {
		return nil, err
	}

	descs := make([]gallery.Descriptor, len(faces))
	for i, f := range faces {
		descs[i] = f.Descriptor
	}
	return descs, nil
}

// Recognize shrinks frame by the configured downscale, finds faces and
// labels them. Boxes are in down-scaled coordinates.
func (r *Recognizer) Recognize(frame gocv.Mat) ([]detection.Detection, error) {
	if frame.Empty() {
		return nil, ErrEmptyImage
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(frame, &small, image.Point{}, r.cfg.Downscale, r.cfg.Downscale, gocv.InterpolationLinear)

	faces, err := r.encode(small)
	if err != nil {
		return nil, err
	}

	matcher := r.matcher.Load()
	dets := make([]detection.Detection, 0, len(faces))
	for _, f := range faces {
		dets = append(dets, matcher.Label(detection.BoxFromRect(f.Rect), f.Descriptor))
	}
	return dets, nil
}

func (r *Recognizer) encode(img gocv.Mat) ([]Face, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Encode(img)
}

// Close releases the backend.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Close()
}
