package tracking

import (
	"fmt"
	"sync"

	"github.com/teslashibe/go-follow/pkg/tracking/detection"
)

// Annotation describes one selected face in source frame coordinates.
type Annotation struct {
	Box        detection.Box `json:"box"`
	Name       string        `json:"name"`
	Confidence float64       `json:"confidence"`
	DistanceCm float64       `json:"distance_cm"`
	OffsetX    int           `json:"offset_x"`
	OffsetY    int           `json:"offset_y"`
	Target     bool          `json:"target"` // this face drove the intent
	Label      string        `json:"label"`
}

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	Annotations []Annotation `json:"annotations"`
	Target      string       `json:"target,omitempty"`
	Locked      bool         `json:"locked"`
	Pursuing    bool         `json:"pursuing"` // the locked target was seen
	Intent      Intent       `json:"intent"`
}

// FormatLabel renders the annotation text for a face.
func FormatLabel(name string, confidence, distanceCm float64) string {
	return fmt.Sprintf("%s (%.2f%%) Distance: %.2f cm", name, confidence, distanceCm)
}

// Pipeline selects which recognized faces to act on, measures them on the
// source frame and decides the pursuit intent.
//
// When locked, only faces carrying the target identity are selected and the
// first of them drives the controller. When unlocked, faces above the
// acceptance threshold are selected for annotation and no intent is issued.
type Pipeline struct {
	lock *LockManager

	mu  sync.RWMutex
	cfg Config
}

// NewPipeline creates a pipeline reading the target from lock.
func NewPipeline(cfg Config, lock *LockManager) *Pipeline {
	return &Pipeline{cfg: cfg, lock: lock}
}

// Config returns the current configuration.
func (p *Pipeline) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Lock returns the lock manager the pipeline reads.
func (p *Pipeline) Lock() *LockManager {
	return p.lock
}

// Process handles the detections of one frame. Boxes in dets are in
// down-scaled coordinates; returned annotations are in source coordinates.
func (p *Pipeline) Process(dets []detection.Detection) FrameResult {
	cfg := p.Config()
	ctrl := NewController(cfg)

	target, locked := p.lock.Target()
	result := FrameResult{Target: target, Locked: locked}

	for _, det := range dets {
		if !selected(det, target, locked, cfg.AcceptanceThreshold) {
			continue
		}

		box := det.Box.Rescale(cfg.Downscale)
		dist := EstimateDistanceCm(float64(box.Width()), cfg.FocalLengthPx, cfg.KnownFaceWidthCm)
		dx, dy := Offset(box, cfg.FrameWidth, cfg.FrameHeight)
		name := det.DisplayName()

		ann := Annotation{
			Box:        box,
			Name:       name,
			Confidence: det.Confidence,
			DistanceCm: dist,
			OffsetX:    dx,
			OffsetY:    dy,
			Label:      FormatLabel(name, det.Confidence, dist),
		}

		// One intent per frame: the first matching face wins
		if locked && !result.Pursuing {
			result.Intent = ctrl.Decide(box, cfg.FrameWidth, cfg.FrameHeight, dist)
			result.Pursuing = true
			ann.Target = true
		}

		result.Annotations = append(result.Annotations, ann)
	}

	return result
}

func selected(det detection.Detection, target string, locked bool, acceptance float64) bool {
	if locked {
		return det.Identity == target
	}
	return det.Confidence > acceptance
}
