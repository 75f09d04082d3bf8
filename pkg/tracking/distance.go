package tracking

// EstimateDistanceCm estimates the range to a face from its apparent width
// using the pinhole model. A non-positive width yields 0, which callers
// treat as "unknown range" rather than a real distance.
func EstimateDistanceCm(widthPx, focalLengthPx, knownWidthCm float64) float64 {
	if widthPx <= 0 {
		return 0.0
	}
	return (knownWidthCm * focalLengthPx) / widthPx
}
