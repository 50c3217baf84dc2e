package depth

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// ClearDistance is the fixed distance (meters) reported for a sector with
// no usable return. It stands in for "effectively clear" so downstream
// arithmetic never sees NaN, infinity or zero. It must stay materially
// larger than any plausible warn distance.
const ClearDistance = 10.0

// stabilityMinSamples is how many smoothed center samples must be buffered
// before the jitter estimate is reported; below this the analyzer assumes
// stable rather than unstable.
const stabilityMinSamples = 10

// maxCenterDropoutFrames is how many consecutive frames may lack a raw
// center estimate before the quality verdict flags sustained dropout.
const maxCenterDropoutFrames = 5

// Sector indexes into SectorDepth-ordered arrays.
const (
	sectorLeft = iota
	sectorCenter
	sectorRight
	sectorCount
)

// SectorDepth is the per-frame result of sector extraction: smoothed
// nearest-distance estimates in meters for the three horizontal thirds of
// the field of view. Values are always finite; sectors with no usable
// return report ClearDistance.
type SectorDepth struct {
	Left   float64 `json:"left"`
	Center float64 `json:"center"`
	Right  float64 `json:"right"`

	// InvalidRatio is the fraction of ROI pixels lacking a usable
	// reading (the hole ratio), in [0,1].
	InvalidRatio float64 `json:"invalidRatio"`

	// Stability is the population standard deviation (meters) of the
	// recent smoothed center distance. 0 means steady (or not enough
	// samples yet to judge).
	Stability float64 `json:"stability"`
}

// Analyzer extracts per-sector distance estimates from raw depth frames.
// It keeps smoothing and stability history across calls; Reset must be
// called whenever acquisition restarts so stale smoothing does not bias
// the first seconds of a new session.
//
// Analyze never fails: absence of valid data degrades to sentinel outputs
// plus an unreliable verdict. History buffers are bounded, so repeated
// calls do not grow allocations.
type Analyzer struct {
	mu  sync.Mutex
	cfg AnalyzerConfig

	// smoothed holds the EMA state per sector; NaN means no estimate yet.
	smoothed [sectorCount]float64

	// Ring buffer of recent smoothed center values.
	history []float64
	head    int
	size    int

	// centerDropout counts consecutive frames whose raw center estimate
	// was absent.
	centerDropout int

	// Reusable scratch buffers, one per sector, to keep per-call
	// allocation flat.
	sectorValues [sectorCount][]float64
	windowValues []float64
}

// NewAnalyzer creates an analyzer with the given tuning.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	a := &Analyzer{cfg: cfg.sanitized()}
	a.clearStateLocked()
	return a
}

// SetConfig replaces the analyzer tuning. Safe to call between frames from
// another goroutine; the running Analyze call keeps the snapshot it took.
// Smoothing state is kept: stale smoothed values blend toward new readings
// via the existing EMA, so no reset is needed on a config change alone.
func (a *Analyzer) SetConfig(cfg AnalyzerConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg.sanitized()
}

// Config returns a copy of the current tuning.
func (a *Analyzer) Config() AnalyzerConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// Reset clears all smoothing state, the stability window and the dropout
// counter. Call on session start/stop.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clearStateLocked()
}

func (a *Analyzer) clearStateLocked() {
	for i := range a.smoothed {
		a.smoothed[i] = math.NaN()
	}
	a.head = 0
	a.size = 0
	a.centerDropout = 0
}

// Analyze processes one depth frame plus the current measured frame rate
// and returns the per-sector distances and the quality verdict. The frame
// is only read, never retained.
func (a *Analyzer) Analyze(frame *Frame, measuredFPS float64) (SectorDepth, QualityMetrics) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg := a.cfg

	raw, invalidRatio := a.extractSectors(frame, cfg)

	// Exponential smoothing per sector. A missing raw estimate keeps
	// the previous smoothed value unchanged (or stays absent if none
	// exists yet).
	for s := 0; s < sectorCount; s++ {
		if cfg.CenterOnlySmoothing && s != sectorCenter {
			a.smoothed[s] = raw[s]
			continue
		}
		a.smoothed[s] = ema(a.smoothed[s], raw[s], cfg.SmoothingAlpha)
	}

	if math.IsNaN(raw[sectorCenter]) {
		a.centerDropout++
	} else {
		a.centerDropout = 0
	}

	// The stability window only accumulates real measurements; while the
	// center has never produced one there is nothing to judge jitter on.
	if !math.IsNaN(a.smoothed[sectorCenter]) {
		a.pushHistory(a.smoothed[sectorCenter], cfg.StabilityWindow)
	}
	stability := a.stabilityLocked()

	sd := SectorDepth{
		Left:         sentinelIfAbsent(a.smoothed[sectorLeft]),
		Center:       sentinelIfAbsent(a.smoothed[sectorCenter]),
		Right:        sentinelIfAbsent(a.smoothed[sectorRight]),
		InvalidRatio: invalidRatio,
		Stability:    stability,
	}

	qm := buildQualityMetrics(cfg, invalidRatio, stability, measuredFPS, a.centerDropout)
	return sd, qm
}

// extractSectors walks the ROI once, partitioning valid samples into the
// three sector buffers, and returns the raw percentile estimate per sector
// (NaN where a sector had no valid sample) plus the ROI hole ratio.
func (a *Analyzer) extractSectors(frame *Frame, cfg AnalyzerConfig) (raw [sectorCount]float64, invalidRatio float64) {
	for s := range raw {
		raw[s] = math.NaN()
		a.sectorValues[s] = a.sectorValues[s][:0]
	}

	if !frame.wellFormed() {
		return raw, 1.0
	}

	w, h := frame.Width, frame.Height
	rowStart := int(float64(h) * cfg.ROIVerticalMin)
	rowEnd := int(float64(h) * cfg.ROIVerticalMax)
	if rowStart < 0 {
		rowStart = 0
	}
	if rowEnd > h {
		rowEnd = h
	}
	if rowEnd <= rowStart {
		return raw, 1.0
	}

	var invalid, total int
	for row := rowStart; row < rowEnd; row++ {
		base := row * w
		for col := 0; col < w; col++ {
			total++
			v := frame.Depths[base+col]
			if !isUsable(v, cfg) {
				invalid++
				continue
			}
			// Contiguous equal (+-1) thirds: left, center, right.
			sector := col * sectorCount / w
			a.sectorValues[sector] = append(a.sectorValues[sector], v)
		}
	}

	for s := 0; s < sectorCount; s++ {
		raw[s] = percentileEstimate(a.sectorValues[s], cfg.Percentile)
	}

	if total == 0 {
		return raw, 1.0
	}
	return raw, float64(invalid) / float64(total)
}

// isUsable applies the invalid-sample policy: finite, positive, and inside
// the configured physical depth range.
func isUsable(v float64, cfg AnalyzerConfig) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return false
	}
	return v >= cfg.DepthMin && v <= cfg.DepthMax
}

// percentileEstimate sorts values ascending and picks the entry at
// floor(count*p), clamped into range. Empty input yields NaN.
func percentileEstimate(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(values)
	idx := int(float64(n) * p)
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return values[idx]
}

// ema blends a raw reading into the previous smoothed value. A NaN raw
// reading keeps prev; an absent prev adopts raw directly.
func ema(prev, raw, alpha float64) float64 {
	if math.IsNaN(raw) {
		return prev
	}
	if math.IsNaN(prev) {
		return raw
	}
	return alpha*raw + (1-alpha)*prev
}

func sentinelIfAbsent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ClearDistance
	}
	return v
}

// pushHistory appends a smoothed center value to the bounded ring buffer,
// resizing only when the configured window changes.
func (a *Analyzer) pushHistory(v float64, window int) {
	if len(a.history) != window {
		a.resizeHistory(window)
	}
	a.history[a.head] = v
	a.head = (a.head + 1) % window
	if a.size < window {
		a.size++
	}
}

// resizeHistory rebuilds the ring around a new window size, keeping the
// newest samples. Config changes are rare, so the reallocation is fine.
func (a *Analyzer) resizeHistory(window int) {
	keep := a.size
	if keep > window {
		keep = window
	}
	next := make([]float64, window)
	for i := 0; i < keep; i++ {
		// Oldest of the kept samples first.
		idx := (a.head - keep + i + len(a.history)) % maxInt(len(a.history), 1)
		next[i] = a.history[idx]
	}
	a.history = next
	a.head = keep % window
	a.size = keep
}

// stabilityLocked reports the population standard deviation of the
// buffered smoothed center values, or 0 while fewer than
// stabilityMinSamples are available.
func (a *Analyzer) stabilityLocked() float64 {
	if a.size < stabilityMinSamples {
		return 0
	}
	a.windowValues = a.windowValues[:0]
	for i := 0; i < a.size; i++ {
		idx := (a.head - a.size + i + len(a.history)) % len(a.history)
		a.windowValues = append(a.windowValues, a.history[idx])
	}
	return stat.PopStdDev(a.windowValues, nil)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
