package pipeline

import "time"

// defaultFPSAlpha weights the most recent inter-frame interval in the
// smoothed rate estimate.
const defaultFPSAlpha = 0.2

// fpsMeter estimates the incoming frame rate from frame timestamps with an
// exponential moving average over instantaneous rates. The first frame has
// no interval to measure, so the meter reports 0 until the second frame;
// the quality layer treats that as an unreliable rate, which is the right
// posture during startup.
type fpsMeter struct {
	alpha float64
	last  time.Time
	rate  float64
}

func newFPSMeter() *fpsMeter {
	return &fpsMeter{alpha: defaultFPSAlpha}
}

// observe folds one frame timestamp into the estimate and returns the
// current smoothed rate. Non-increasing timestamps leave the estimate
// unchanged.
func (m *fpsMeter) observe(ts time.Time) float64 {
	if m.last.IsZero() {
		m.last = ts
		return 0
	}
	dt := ts.Sub(m.last).Seconds()
	if dt <= 0 {
		return m.rate
	}
	m.last = ts

	instant := 1.0 / dt
	if m.rate == 0 {
		m.rate = instant
	} else {
		m.rate = m.alpha*instant + (1-m.alpha)*m.rate
	}
	return m.rate
}

func (m *fpsMeter) reset() {
	m.last = time.Time{}
	m.rate = 0
}
