// Package pilot runs the frame loop: read a frame, recognize faces, decide
// the pursuit intent, hand it to the drone and publish the annotated frame.
package pilot

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-follow/internal/log"
	"github.com/teslashibe/go-follow/pkg/tracking"
	"github.com/teslashibe/go-follow/pkg/tracking/detection"
	"github.com/teslashibe/go-follow/pkg/video"
)

// Recognizer finds and names the faces in a frame.
type Recognizer interface {
	Recognize(frame gocv.Mat) ([]detection.Detection, error)
}

// Dispatcher accepts intents without blocking the loop.
type Dispatcher interface {
	Dispatch(intent tracking.Intent)
}

// Publisher receives every processed frame.
type Publisher interface {
	PublishFrame(jpeg []byte)
	PublishEvent(ev FrameEvent)
}

// FrameEvent summarises one processed frame for viewers.
type FrameEvent struct {
	Seq    uint64               `json:"seq"`
	Time   time.Time            `json:"time"`
	Faces  int                  `json:"faces"` // faces recognized before selection
	Result tracking.FrameResult `json:"result"`
}

// Stats reports frame loop counters.
type Stats struct {
	Frames     uint64 `json:"frames"`     // frames processed
	Missed     uint64 `json:"missed"`     // reads that returned no frame
	Errors     uint64 `json:"errors"`     // recognition or encode failures
	Dispatched uint64 `json:"dispatched"` // intents handed to the drone
	Pursuing   uint64 `json:"pursuing"`   // frames where the target was seen
}

// Deps are the collaborators of a Pilot. Publisher may be nil.
type Deps struct {
	Source     video.Source
	Recognizer Recognizer
	Pipeline   *tracking.Pipeline
	Dispatcher Dispatcher
	Renderer   *video.Renderer
	Publisher  Publisher
}

// Pilot owns the frame loop.
type Pilot struct {
	deps   Deps
	latest video.LatestFrame
	logger *slog.Logger

	seq        atomic.Uint64
	missed     atomic.Uint64
	errors     atomic.Uint64
	dispatched atomic.Uint64
	pursuing   atomic.Uint64
}

// New creates a pilot.
func New(deps Deps) *Pilot {
	return &Pilot{deps: deps, logger: log.Component("pilot")}
}

// Run processes frames until ctx is cancelled. A missed read or a failed
// recognition skips the frame; the loop never stops on its own.
func (p *Pilot) Run(ctx context.Context) error {
	frame := gocv.NewMat()
	defer frame.Close()

	p.logger.Info("frame loop started")
	defer p.logger.Info("frame loop stopped", "frames", p.seq.Load())

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if p.deps.Source.Read(&frame) {
			p.step(frame)
		} else if n := p.missed.Add(1); n == 1 || n%100 == 0 {
			p.logger.Warn("no frame from source", "missed", n)
		}

		if !sleep(ctx, p.deps.Pipeline.Config().FrameDelay) {
			return nil
		}
	}
}

// step handles one frame.
func (p *Pilot) step(frame gocv.Mat) {
	dets, err := p.deps.Recognizer.Recognize(frame)
	if err != nil {
		p.errors.Add(1)
		p.logger.Warn("recognition failed", "error", err)
		return
	}

	result := p.deps.Pipeline.Process(dets)
	if result.Pursuing {
		p.pursuing.Add(1)
		if !result.Intent.IsZero() {
			p.deps.Dispatcher.Dispatch(result.Intent)
			p.dispatched.Add(1)
			p.logger.Debug("pursuit intent", "target", result.Target, "intent", result.Intent.String())
		}
	}

	seq := p.seq.Add(1)
	jpeg, err := p.deps.Renderer.Render(&frame, result.Annotations)
	if err != nil {
		p.errors.Add(1)
		p.logger.Warn("render failed", "error", err)
		return
	}
	p.latest.Store(jpeg)

	if pub := p.deps.Publisher; pub != nil {
		pub.PublishFrame(jpeg)
		pub.PublishEvent(FrameEvent{
			Seq:    seq,
			Time:   time.Now(),
			Faces:  len(dets),
			Result: result,
		})
	}
}

// Snapshot returns the latest annotated JPEG, or nil before the first frame.
func (p *Pilot) Snapshot() []byte {
	frame, _ := p.latest.Load()
	return frame
}

// Stats returns loop counters.
func (p *Pilot) Stats() Stats {
	return Stats{
		Frames:     p.seq.Load(),
		Missed:     p.missed.Load(),
		Errors:     p.errors.Load(),
		Dispatched: p.dispatched.Load(),
		Pursuing:   p.pursuing.Load(),
	}
}

// sleep waits d or until ctx is done. It reports whether ctx is still live.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
