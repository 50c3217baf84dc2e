package depth

import (
	"fmt"
	"strings"
)

// QualityMetrics is the per-frame reliability assessment. Error-like
// conditions are represented here as data rather than control flow: the
// analyzer never fails, it reports why its output should not be trusted.
type QualityMetrics struct {
	IsReliable bool `json:"is_reliable"`

	// InvalidRatio mirrors SectorDepth.InvalidRatio for telemetry.
	InvalidRatio float64 `json:"invalid_ratio"`

	// TemporalStability mirrors SectorDepth.Stability.
	TemporalStability float64 `json:"temporal_stability"`

	// FPS is the measured frame rate this verdict was built against.
	FPS float64 `json:"fps"`

	// Reason concatenates every violated criterion; empty when the
	// frame is reliable.
	Reason string `json:"reason,omitempty"`
}

// buildQualityMetrics applies the reliability criteria. Every violated
// criterion is listed so operators can see all of what went wrong, not
// just the first check that tripped.
func buildQualityMetrics(cfg AnalyzerConfig, invalidRatio, stability, fps float64, centerDropout int) QualityMetrics {
	var reasons []string

	if invalidRatio > cfg.InvalidThreshold {
		reasons = append(reasons, fmt.Sprintf("hole ratio %.2f exceeds %.2f", invalidRatio, cfg.InvalidThreshold))
	}
	if stability > cfg.StabilityThreshold {
		reasons = append(reasons, fmt.Sprintf("stability %.2fm exceeds %.2fm", stability, cfg.StabilityThreshold))
	}
	if fps < cfg.MinFPS {
		reasons = append(reasons, fmt.Sprintf("frame rate %.1f below %.1f", fps, cfg.MinFPS))
	}
	if centerDropout >= maxCenterDropoutFrames {
		reasons = append(reasons, fmt.Sprintf("no center estimate for %d consecutive frames", centerDropout))
	}

	return QualityMetrics{
		IsReliable:        len(reasons) == 0,
		InvalidRatio:      invalidRatio,
		TemporalStability: stability,
		FPS:               fps,
		Reason:            strings.Join(reasons, "; "),
	}
}
