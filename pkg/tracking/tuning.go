package tracking

// TuningParams holds the real-time adjustable pursuit parameters.
// These can be modified via the tuning API without restarting.
type TuningParams struct {
	// Selection
	AcceptanceThreshold float64 `json:"acceptance_threshold"` // Unlocked confidence cutoff (0-100)

	// Distance band
	NearCm float64 `json:"near_cm"`
	FarCm  float64 `json:"far_cm"`

	// Deadbands
	HorizontalDeadbandPx int `json:"horizontal_deadband_px"`
	VerticalDeadbandPx   int `json:"vertical_deadband_px"`
	YawDeadbandPx        int `json:"yaw_deadband_px"`

	// Step size
	Magnitude int `json:"magnitude"`

	// Horizontal correction mode ("off", "replace", "add")
	YawMode YawMode `json:"yaw_mode,omitempty"`
}

// Tuning returns the current tuning parameters.
func (p *Pipeline) Tuning() TuningParams {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return TuningParams{
		AcceptanceThreshold:  p.cfg.AcceptanceThreshold,
		NearCm:               p.cfg.NearCm,
		FarCm:                p.cfg.FarCm,
		HorizontalDeadbandPx: p.cfg.HorizontalDeadbandPx,
		VerticalDeadbandPx:   p.cfg.VerticalDeadbandPx,
		YawDeadbandPx:        p.cfg.YawDeadbandPx,
		Magnitude:            p.cfg.Magnitude,
		YawMode:              p.cfg.YawMode,
	}
}

// SetTuning updates tuning parameters at runtime.
// Only non-zero values are applied, and the update is rejected as a whole
// if the resulting configuration is invalid.
func (p *Pipeline) SetTuning(params TuningParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := p.cfg
	if params.AcceptanceThreshold > 0 {
		cfg.AcceptanceThreshold = clamp(params.AcceptanceThreshold, 0, 100)
	}
	if params.NearCm > 0 {
		cfg.NearCm = params.NearCm
	}
	if params.FarCm > 0 {
		cfg.FarCm = params.FarCm
	}
	if params.HorizontalDeadbandPx > 0 {
		cfg.HorizontalDeadbandPx = params.HorizontalDeadbandPx
	}
	if params.VerticalDeadbandPx > 0 {
		cfg.VerticalDeadbandPx = params.VerticalDeadbandPx
	}
	if params.YawDeadbandPx > 0 {
		cfg.YawDeadbandPx = params.YawDeadbandPx
	}
	if params.Magnitude > 0 {
		cfg.Magnitude = params.Magnitude
	}
	if params.YawMode != "" {
		cfg.YawMode = params.YawMode
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	p.cfg = cfg
	return nil
}

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
