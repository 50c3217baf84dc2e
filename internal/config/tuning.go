package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sensepath-app/sensepath/internal/depth"
	"github.com/sensepath-app/sensepath/internal/guidance"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// Every field is optional so partial configs (for example a sensitivity
// preset that only moves the distance thresholds) are safe: omitted
// fields keep their defaults via the Get* accessors.
type TuningConfig struct {
	// Depth analyzer params
	ROIVerticalMin      *float64 `json:"roi_vertical_min,omitempty"`
	ROIVerticalMax      *float64 `json:"roi_vertical_max,omitempty"`
	Percentile          *float64 `json:"percentile,omitempty"`
	SmoothingAlpha      *float64 `json:"smoothing_alpha,omitempty"`
	StabilityWindow     *int     `json:"stability_window,omitempty"`
	InvalidThreshold    *float64 `json:"invalid_threshold,omitempty"`
	StabilityThreshold  *float64 `json:"stability_threshold,omitempty"`
	MinFPS              *float64 `json:"min_fps,omitempty"`
	DepthMin            *float64 `json:"depth_min,omitempty"`
	DepthMax            *float64 `json:"depth_max,omitempty"`
	CenterOnlySmoothing *bool    `json:"center_only_smoothing,omitempty"`

	// Guidance params
	StopDistance     *float64 `json:"stop_distance,omitempty"`
	WarnDistance     *float64 `json:"warn_distance,omitempty"`
	Hysteresis       *float64 `json:"hysteresis,omitempty"`
	MinStateDuration *string  `json:"min_state_duration,omitempty"` // duration string like "500ms"
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to have a .json extension and to be under the max file size.
// Fields omitted from the JSON retain their defaults, so partial configs
// are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching the current directory and common parent
// directories. Panics if the file cannot be loaded; intended for test
// setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are consistent.
func (c *TuningConfig) Validate() error {
	if c.Percentile != nil {
		if *c.Percentile < 0 || *c.Percentile > 1 {
			return fmt.Errorf("percentile must be between 0 and 1, got %f", *c.Percentile)
		}
	}

	if c.SmoothingAlpha != nil {
		if *c.SmoothingAlpha <= 0 || *c.SmoothingAlpha > 1 {
			return fmt.Errorf("smoothing_alpha must be in (0,1], got %f", *c.SmoothingAlpha)
		}
	}

	if c.ROIVerticalMin != nil && c.ROIVerticalMax != nil {
		if *c.ROIVerticalMin < 0 || *c.ROIVerticalMax > 1 || *c.ROIVerticalMin >= *c.ROIVerticalMax {
			return fmt.Errorf("roi vertical range [%f,%f] must be a non-empty sub-range of [0,1]",
				*c.ROIVerticalMin, *c.ROIVerticalMax)
		}
	}

	if c.StabilityWindow != nil {
		if *c.StabilityWindow < 1 {
			return fmt.Errorf("stability_window must be at least 1, got %d", *c.StabilityWindow)
		}
	}

	stop := c.GetStopDistance()
	warn := c.GetWarnDistance()
	if stop >= warn {
		return fmt.Errorf("stop_distance (%f) must be less than warn_distance (%f)", stop, warn)
	}

	if c.MinStateDuration != nil && *c.MinStateDuration != "" {
		if _, err := time.ParseDuration(*c.MinStateDuration); err != nil {
			return fmt.Errorf("invalid min_state_duration '%s': %w", *c.MinStateDuration, err)
		}
	}

	if c.DepthMin != nil && c.DepthMax != nil {
		if *c.DepthMin < 0 || *c.DepthMax <= *c.DepthMin {
			return fmt.Errorf("depth range [%f,%f] must be non-empty and non-negative", *c.DepthMin, *c.DepthMax)
		}
	}

	return nil
}

// GetROIVerticalMin returns the roi_vertical_min value or the default.
func (c *TuningConfig) GetROIVerticalMin() float64 {
	if c.ROIVerticalMin == nil {
		return 0.3
	}
	return *c.ROIVerticalMin
}

// GetROIVerticalMax returns the roi_vertical_max value or the default.
func (c *TuningConfig) GetROIVerticalMax() float64 {
	if c.ROIVerticalMax == nil {
		return 0.7
	}
	return *c.ROIVerticalMax
}

// GetPercentile returns the percentile value or the default.
func (c *TuningConfig) GetPercentile() float64 {
	if c.Percentile == nil {
		return 0.1
	}
	return *c.Percentile
}

// GetSmoothingAlpha returns the smoothing_alpha value or the default.
func (c *TuningConfig) GetSmoothingAlpha() float64 {
	if c.SmoothingAlpha == nil {
		return 0.3
	}
	return *c.SmoothingAlpha
}

// GetStabilityWindow returns the stability_window value or the default.
func (c *TuningConfig) GetStabilityWindow() int {
	if c.StabilityWindow == nil {
		return 30
	}
	return *c.StabilityWindow
}

// GetInvalidThreshold returns the invalid_threshold value or the default.
func (c *TuningConfig) GetInvalidThreshold() float64 {
	if c.InvalidThreshold == nil {
		return 0.4
	}
	return *c.InvalidThreshold
}

// GetStabilityThreshold returns the stability_threshold value or the default.
func (c *TuningConfig) GetStabilityThreshold() float64 {
	if c.StabilityThreshold == nil {
		return 0.5
	}
	return *c.StabilityThreshold
}

// GetMinFPS returns the min_fps value or the default.
func (c *TuningConfig) GetMinFPS() float64 {
	if c.MinFPS == nil {
		return 15.0
	}
	return *c.MinFPS
}

// GetDepthMin returns the depth_min value or the default.
func (c *TuningConfig) GetDepthMin() float64 {
	if c.DepthMin == nil {
		return 0.15
	}
	return *c.DepthMin
}

// GetDepthMax returns the depth_max value or the default.
func (c *TuningConfig) GetDepthMax() float64 {
	if c.DepthMax == nil {
		return 8.0
	}
	return *c.DepthMax
}

// GetCenterOnlySmoothing returns the center_only_smoothing value or the default.
func (c *TuningConfig) GetCenterOnlySmoothing() bool {
	if c.CenterOnlySmoothing == nil {
		return false
	}
	return *c.CenterOnlySmoothing
}

// GetStopDistance returns the stop_distance value or the default.
func (c *TuningConfig) GetStopDistance() float64 {
	if c.StopDistance == nil {
		return 1.0
	}
	return *c.StopDistance
}

// GetWarnDistance returns the warn_distance value or the default.
func (c *TuningConfig) GetWarnDistance() float64 {
	if c.WarnDistance == nil {
		return 2.5
	}
	return *c.WarnDistance
}

// GetHysteresis returns the hysteresis value or the default.
func (c *TuningConfig) GetHysteresis() float64 {
	if c.Hysteresis == nil {
		return 0.3
	}
	return *c.Hysteresis
}

// GetMinStateDuration parses and returns the min_state_duration as a
// time.Duration.
func (c *TuningConfig) GetMinStateDuration() time.Duration {
	if c.MinStateDuration == nil || *c.MinStateDuration == "" {
		return 500 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.MinStateDuration)
	if err != nil {
		return 500 * time.Millisecond // default on parse error
	}
	return d
}

// AnalyzerConfig materializes the depth analyzer tuning record.
func (c *TuningConfig) AnalyzerConfig() depth.AnalyzerConfig {
	return depth.AnalyzerConfig{
		ROIVerticalMin:      c.GetROIVerticalMin(),
		ROIVerticalMax:      c.GetROIVerticalMax(),
		Percentile:          c.GetPercentile(),
		SmoothingAlpha:      c.GetSmoothingAlpha(),
		StabilityWindow:     c.GetStabilityWindow(),
		InvalidThreshold:    c.GetInvalidThreshold(),
		StabilityThreshold:  c.GetStabilityThreshold(),
		MinFPS:              c.GetMinFPS(),
		DepthMin:            c.GetDepthMin(),
		DepthMax:            c.GetDepthMax(),
		CenterOnlySmoothing: c.GetCenterOnlySmoothing(),
	}
}

// GuidanceThresholds materializes the guidance tuning record.
func (c *TuningConfig) GuidanceThresholds() guidance.Thresholds {
	return guidance.Thresholds{
		StopDistance:     c.GetStopDistance(),
		WarnDistance:     c.GetWarnDistance(),
		Hysteresis:       c.GetHysteresis(),
		MinStateDuration: c.GetMinStateDuration(),
	}
}
