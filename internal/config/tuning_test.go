package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensepath-app/sensepath/internal/depth"
	"github.com/sensepath-app/sensepath/internal/guidance"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmptyConfigMatchesPackageDefaults(t *testing.T) {
	t.Parallel()

	cfg := EmptyTuningConfig()

	if diff := cmp.Diff(depth.DefaultAnalyzerConfig(), cfg.AnalyzerConfig()); diff != "" {
		t.Errorf("analyzer defaults mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(guidance.DefaultThresholds(), cfg.GuidanceThresholds()); diff != "" {
		t.Errorf("guidance defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultsFileMatchesPackageDefaults(t *testing.T) {
	t.Parallel()

	cfg := MustLoadDefaultConfig()

	if diff := cmp.Diff(depth.DefaultAnalyzerConfig(), cfg.AnalyzerConfig()); diff != "" {
		t.Errorf("defaults file disagrees with analyzer defaults (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(guidance.DefaultThresholds(), cfg.GuidanceThresholds()); diff != "" {
		t.Errorf("defaults file disagrees with guidance defaults (-want +got):\n%s", diff)
	}
}

func TestPartialConfigKeepsUnsetDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{"stop_distance": 0.8, "warn_distance": 3.0}`)
	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.GetStopDistance())
	assert.Equal(t, 3.0, cfg.GetWarnDistance())
	assert.Equal(t, 0.3, cfg.GetHysteresis())
	assert.Equal(t, 500*time.Millisecond, cfg.GetMinStateDuration())
	assert.Equal(t, 0.1, cfg.GetPercentile())
}

func TestLoadRejectsBadFiles(t *testing.T) {
	t.Parallel()

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTuningConfig("tuning.yaml")
		assert.ErrorContains(t, err, ".json extension")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `{"percentile": `)
		_, err := LoadTuningConfig(path)
		assert.ErrorContains(t, err, "parse")
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	f := func(v float64) *float64 { return &v }
	i := func(v int) *int { return &v }
	s := func(v string) *string { return &v }

	cases := []struct {
		name    string
		cfg     TuningConfig
		wantErr string
	}{
		{"percentile above 1", TuningConfig{Percentile: f(1.5)}, "percentile"},
		{"zero smoothing alpha", TuningConfig{SmoothingAlpha: f(0)}, "smoothing_alpha"},
		{"inverted roi band", TuningConfig{ROIVerticalMin: f(0.8), ROIVerticalMax: f(0.2)}, "roi vertical range"},
		{"zero stability window", TuningConfig{StabilityWindow: i(0)}, "stability_window"},
		{"stop above warn", TuningConfig{StopDistance: f(3.0), WarnDistance: f(2.0)}, "stop_distance"},
		{"bad duration", TuningConfig{MinStateDuration: s("half a second")}, "min_state_duration"},
		{"inverted depth range", TuningConfig{DepthMin: f(5.0), DepthMax: f(1.0)}, "depth range"},
		{"valid overrides", TuningConfig{Percentile: f(0.2), StopDistance: f(0.5), MinStateDuration: s("250ms")}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestGetMinStateDuration(t *testing.T) {
	t.Parallel()

	s := func(v string) *string { return &v }

	assert.Equal(t, 500*time.Millisecond, (&TuningConfig{}).GetMinStateDuration())
	assert.Equal(t, 500*time.Millisecond, (&TuningConfig{MinStateDuration: s("")}).GetMinStateDuration())
	assert.Equal(t, 2*time.Second, (&TuningConfig{MinStateDuration: s("2s")}).GetMinStateDuration())
}
