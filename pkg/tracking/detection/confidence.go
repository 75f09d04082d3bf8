package detection

// Default thresholds for the descriptor distance to confidence mapping.
const (
	// DefaultMatchThreshold is the distance at which a dlib descriptor
	// match is considered the same person.
	DefaultMatchThreshold = 0.6

	// StrictMatchThreshold is used by the webcam variants.
	StrictMatchThreshold = 0.7
)

// ConfidenceFromDistance maps a descriptor distance to a 0-100 confidence.
//
// The mapping is linear on either side of threshold and clamped to [0, 1]
// before scaling. Distances well inside the threshold approach 100; any
// distance above the threshold maps to a negative linear value and clamps
// to 0 unless the distance exceeds 1.
func ConfidenceFromDistance(distance, threshold float64) float64 {
	var linear float64
	if distance > threshold {
		linear = (1.0 - distance) / (0.1 - threshold)
	} else {
		linear = (1.0 - distance) / (threshold - 0.1)
	}
	if linear < 0 {
		linear = 0
	}
	if linear > 1 {
		linear = 1
	}
	return linear * 100
}
