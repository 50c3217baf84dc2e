package depth

// AnalyzerConfig holds the tuning parameters for one Analyze call. It is a
// plain value record: callers may replace it wholesale between frames (for
// example on a sensitivity preset change) and the analyzer snapshots it at
// the start of each call, so a concurrent replacement is never observed
// mid-frame.
type AnalyzerConfig struct {
	// ROIVerticalMin and ROIVerticalMax bound the vertical band of
	// interest as normalized row positions in [0,1] (top = 0).
	ROIVerticalMin float64
	ROIVerticalMax float64

	// Percentile selects the per-sector near-distance estimate: the
	// value at index floor(count*Percentile) of the sector's sorted
	// valid samples. A low percentile suppresses single-pixel noise
	// spikes while still reporting the practical near edge.
	Percentile float64

	// SmoothingAlpha is the exponential-moving-average coefficient in
	// (0,1]; smaller means more smoothing.
	SmoothingAlpha float64

	// StabilityWindow is the number of recent smoothed center samples
	// retained for the jitter estimate.
	StabilityWindow int

	// InvalidThreshold is the max tolerable fraction of invalid pixels
	// within the ROI before the frame is flagged unreliable.
	InvalidThreshold float64

	// StabilityThreshold is the max tolerable standard deviation
	// (meters) of the stability window before flagged unreliable.
	StabilityThreshold float64

	// MinFPS is the minimum acceptable measured frame rate.
	MinFPS float64

	// DepthMin and DepthMax bound the physically valid depth range in
	// meters; samples outside are treated as holes.
	DepthMin float64
	DepthMax float64

	// CenterOnlySmoothing disables exponential smoothing for the left
	// and right sectors, reporting their raw percentile estimates.
	// Center smoothing is always on since the stability metric and the
	// stop decision depend on it.
	CenterOnlySmoothing bool
}

// DefaultAnalyzerConfig returns the tuning used when no config file is
// supplied. Values match config/tuning.defaults.json.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		ROIVerticalMin:     0.3,
		ROIVerticalMax:     0.7,
		Percentile:         0.1,
		SmoothingAlpha:     0.3,
		StabilityWindow:    30,
		InvalidThreshold:   0.4,
		StabilityThreshold: 0.5,
		MinFPS:             15,
		DepthMin:           0.15,
		DepthMax:           8.0,
	}
}

// sanitized clamps out-of-range parameters to safe values so a bad config
// can degrade output quality but never break the analysis contract.
func (c AnalyzerConfig) sanitized() AnalyzerConfig {
	def := DefaultAnalyzerConfig()

	if c.ROIVerticalMin < 0 {
		c.ROIVerticalMin = 0
	}
	if c.ROIVerticalMax > 1 {
		c.ROIVerticalMax = 1
	}
	if c.ROIVerticalMax < c.ROIVerticalMin {
		c.ROIVerticalMin, c.ROIVerticalMax = def.ROIVerticalMin, def.ROIVerticalMax
	}
	if c.Percentile < 0 {
		c.Percentile = 0
	}
	if c.Percentile > 1 {
		c.Percentile = 1
	}
	if c.SmoothingAlpha <= 0 || c.SmoothingAlpha > 1 {
		c.SmoothingAlpha = def.SmoothingAlpha
	}
	if c.StabilityWindow < 1 {
		c.StabilityWindow = def.StabilityWindow
	}
	if c.InvalidThreshold <= 0 {
		c.InvalidThreshold = def.InvalidThreshold
	}
	if c.StabilityThreshold <= 0 {
		c.StabilityThreshold = def.StabilityThreshold
	}
	if c.DepthMin < 0 {
		c.DepthMin = 0
	}
	if c.DepthMax <= c.DepthMin {
		c.DepthMin, c.DepthMax = def.DepthMin, def.DepthMax
	}
	return c
}
