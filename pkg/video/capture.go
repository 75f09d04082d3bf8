package video

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-follow/internal/log"
)

// ErrClosed is returned when reading from a closed capture.
var ErrClosed = errors.New("video: capture closed")

// Source yields frames. Read returns false when no frame is available.
type Source interface {
	Read(dst *gocv.Mat) bool
	Close() error
}

// Capture reads frames from a camera or stream and resizes them to the
// configured frame size.
type Capture struct {
	cfg Config
	cap *gocv.VideoCapture
	raw gocv.Mat

	mu     sync.Mutex
	closed bool
}

// Verify Capture implements Source
var _ Source = (*Capture)(nil)

// Open starts capturing from cfg.Source.
func Open(cfg Config) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("video: invalid config: %v", errs)
	}

	var (
		vc  *gocv.VideoCapture
		err error
	)
	if idx, ok := cfg.DeviceIndex(); ok {
		vc, err = gocv.OpenVideoCapture(idx)
	} else {
		vc, err = gocv.OpenVideoCapture(cfg.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("open video source %q: %w", cfg.Source, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open video source %q: not opened", cfg.Source)
	}

	log.Component("video").Info("capture opened",
		"source", cfg.Source,
		"width", cfg.Width,
		"height", cfg.Height)

	return &Capture{cfg: cfg, cap: vc, raw: gocv.NewMat()}, nil
}

// Read grabs the next frame into dst, resized to the frame size.
func (c *Capture) Read(dst *gocv.Mat) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if ok := c.cap.Read(&c.raw); !ok || c.raw.Empty() {
		return false
	}
	gocv.Resize(c.raw, dst, image.Pt(c.cfg.Width, c.cfg.Height), 0, 0, gocv.InterpolationLinear)
	return true
}

// Close releases the device. Safe to call more than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.raw.Close()
	return c.cap.Close()
}
