// Package detection defines recognized faces and the identity matching
// shared by the recognizer backends and the tracking pipeline.
package detection

import (
	"image"
	"math"
)

// Box is a face bounding box in pixel coordinates, in the
// (top, right, bottom, left) order recognizers report.
type Box struct {
	Top, Right, Bottom, Left int
}

// BoxFromRect converts an image rectangle to a Box.
func BoxFromRect(r image.Rectangle) Box {
	return Box{Top: r.Min.Y, Right: r.Max.X, Bottom: r.Max.Y, Left: r.Min.X}
}

// Width returns right - left.
func (b Box) Width() int {
	return b.Right - b.Left
}

// Height returns bottom - top.
func (b Box) Height() int {
	return b.Bottom - b.Top
}

// Center returns the box center using floor division, so negative
// coordinates round toward negative infinity.
func (b Box) Center() (x, y int) {
	return floorDiv(b.Left+b.Right, 2), floorDiv(b.Top+b.Bottom, 2)
}

// Rescale maps a box found on a frame shrunk by downscale back onto the
// source frame. A downscale of 0.25 multiplies every coordinate by 4.
func (b Box) Rescale(downscale float64) Box {
	if downscale <= 0 || downscale == 1 {
		return b
	}
	inv := 1 / downscale
	scale := func(v int) int { return int(math.Round(float64(v) * inv)) }
	return Box{
		Top:    scale(b.Top),
		Right:  scale(b.Right),
		Bottom: scale(b.Bottom),
		Left:   scale(b.Left),
	}
}

// Rect returns the box as an image rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Detection is one recognized face in a frame.
type Detection struct {
	Box        Box     `json:"box"`
	Identity   string  `json:"identity,omitempty"` // empty when unknown
	Confidence float64 `json:"confidence"`         // 0-100
	// RawDistance is the descriptor distance to the matched identity,
	// zero when no identity matched.
	RawDistance float64 `json:"raw_distance"`
}

// HasIdentity reports whether the face matched an enrolled identity.
func (d Detection) HasIdentity() bool {
	return d.Identity != ""
}

// DisplayName returns the identity or "Unknown".
func (d Detection) DisplayName() string {
	if d.Identity == "" {
		return "Unknown"
	}
	return d.Identity
}
