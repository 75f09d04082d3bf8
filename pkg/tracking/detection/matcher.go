package detection

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/teslashibe/go-follow/pkg/gallery"
)

// MatchConfig controls how probe descriptors are matched to a gallery.
type MatchConfig struct {
	// Tolerance is the maximum descriptor distance for a match.
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`

	// ConfidenceThreshold parameterizes ConfidenceFromDistance.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`

	// MinIdentityConfidence, when positive, withholds the identity of
	// matches whose confidence does not exceed it.
	MinIdentityConfidence float64 `yaml:"min_identity_confidence" json:"min_identity_confidence"`
}

// DefaultMatchConfig returns the dlib defaults.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Tolerance:           DefaultMatchThreshold,
		ConfidenceThreshold: DefaultMatchThreshold,
	}
}

// Matcher finds the nearest enrolled identity for a probe descriptor.
// It holds a snapshot of the gallery and never mutates it.
type Matcher struct {
	cfg   MatchConfig
	names []string
	refs  [][]float64
}

// NewMatcher snapshots g for matching.
func NewMatcher(g *gallery.Gallery, cfg MatchConfig) *Matcher {
	m := &Matcher{cfg: cfg}
	for _, e := range g.Entries() {
		m.names = append(m.names, e.Name)
		m.refs = append(m.refs, toFloat64(e.Descriptor))
	}
	return m
}

// Len returns the number of identities in the snapshot.
func (m *Matcher) Len() int {
	return len(m.names)
}

// Nearest returns the closest identity and its Euclidean distance.
// ok is false for an empty gallery or a descriptor of the wrong length.
func (m *Matcher) Nearest(probe gallery.Descriptor) (name string, distance float64, ok bool) {
	p := toFloat64(probe)
	best := -1
	distance = math.Inf(1)
	for i, ref := range m.refs {
		if len(ref) != len(p) {
			continue
		}
		if d := floats.Distance(ref, p, 2); d < distance {
			best, distance = i, d
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return m.names[best], distance, true
}

// Label recognizes one face: the identity is the nearest enrolled name when
// its distance is within tolerance, otherwise the face stays unknown with
// zero confidence and zero raw distance.
func (m *Matcher) Label(box Box, probe gallery.Descriptor) Detection {
	det := Detection{Box: box}

	name, dist, ok := m.Nearest(probe)
	if !ok || dist > m.cfg.Tolerance {
		return det
	}

	conf := ConfidenceFromDistance(dist, m.cfg.ConfidenceThreshold)
	if m.cfg.MinIdentityConfidence > 0 && conf <= m.cfg.MinIdentityConfidence {
		det.Confidence = conf
		det.RawDistance = dist
		return det
	}

	det.Identity = name
	det.Confidence = conf
	det.RawDistance = dist
	return det
}

func toFloat64(d gallery.Descriptor) []float64 {
	out := make([]float64, len(d))
	for i, v := range d {
		out[i] = float64(v)
	}
	return out
}
