package guidance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensepath-app/sensepath/internal/depth"
	"github.com/sensepath-app/sensepath/internal/timeutil"
)

func reliable() depth.QualityMetrics {
	return depth.QualityMetrics{IsReliable: true, FPS: 30}
}

func unreliable() depth.QualityMetrics {
	return depth.QualityMetrics{IsReliable: false, FPS: 30, Reason: "hole ratio 0.80 exceeds 0.40"}
}

func sectors(left, center, right float64) depth.SectorDepth {
	return depth.SectorDepth{Left: left, Center: center, Right: right}
}

func newTestMachine(t *testing.T) (*Machine, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	return NewMachine(DefaultThresholds(), clock), clock
}

func TestStatePriorityOrdering(t *testing.T) {
	t.Parallel()

	th := Thresholds{StopDistance: 0.5, WarnDistance: 1.0, Hysteresis: 0.25, MinStateDuration: 0}

	t.Run("stop outranks everything, including unreliable quality", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		out := m.Update(sectors(5.0, 0.3, 5.0), unreliable())
		assert.Equal(t, StateStop, out.State)
		assert.Equal(t, 1.0, out.Urgency)
	})

	t.Run("directional warning outranks low confidence", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		out := m.Update(sectors(2.0, 0.8, 1.0), unreliable())
		assert.Equal(t, StateWarningLeft, out.State)
	})

	t.Run("low confidence only when no physical hazard", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		out := m.Update(sectors(5.0, 5.0, 5.0), unreliable())
		assert.Equal(t, StateLowConfidence, out.State)
		assert.Equal(t, 0.3, out.Urgency)
	})

	t.Run("normal when clear and reliable", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		out := m.Update(sectors(5.0, 5.0, 5.0), reliable())
		assert.Equal(t, StateNormal, out.State)
		assert.Equal(t, 0.0, out.Urgency)
	})
}

func TestHysteresisDeadZone(t *testing.T) {
	t.Parallel()

	th := Thresholds{StopDistance: 0.5, WarnDistance: 2.0, Hysteresis: 0.25, MinStateDuration: 0}

	t.Run("symmetric clearance declares no direction", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		out := m.Update(sectors(1.0, 1.5, 1.0), reliable())
		assert.NotEqual(t, StateWarningLeft, out.State)
		assert.NotEqual(t, StateWarningRight, out.State)
		assert.Equal(t, StateNormal, out.State)
	})

	t.Run("difference equal to hysteresis stays in the dead-zone", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		out := m.Update(sectors(1.25, 1.5, 1.0), reliable())
		assert.Equal(t, StateNormal, out.State)
	})

	t.Run("clearer left side selects WarningLeft", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		out := m.Update(sectors(1.5, 1.5, 1.0), reliable())
		assert.Equal(t, StateWarningLeft, out.State)
	})

	t.Run("clearer right side selects WarningRight", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		out := m.Update(sectors(1.0, 1.5, 1.5), reliable())
		assert.Equal(t, StateWarningRight, out.State)
	})
}

func TestDebounceHoldsState(t *testing.T) {
	t.Parallel()

	m, clock := newTestMachine(t)

	out := m.Update(sectors(5.0, 0.5, 5.0), reliable())
	require.Equal(t, StateStop, out.State)
	require.True(t, out.StateChanged)

	// 100ms later the reading says clear, but 500ms has not elapsed.
	clock.Advance(100 * time.Millisecond)
	out = m.Update(sectors(5.0, 5.0, 5.0), reliable())
	assert.Equal(t, StateStop, out.State)
	assert.False(t, out.StateChanged)
	assert.Empty(t, out.Message)

	// After the minimum duration the transition is accepted.
	clock.Advance(450 * time.Millisecond)
	out = m.Update(sectors(5.0, 5.0, 5.0), reliable())
	assert.Equal(t, StateNormal, out.State)
	assert.True(t, out.StateChanged)
}

func TestDebounceDoesNotBlockFirstDecision(t *testing.T) {
	t.Parallel()

	m, _ := newTestMachine(t)
	out := m.Update(sectors(5.0, 0.2, 5.0), reliable())
	assert.Equal(t, StateStop, out.State)
	assert.True(t, out.StateChanged)
	assert.NotEmpty(t, out.Message)
}

func TestMessageEmittedExactlyOncePerTransition(t *testing.T) {
	t.Parallel()

	m, clock := newTestMachine(t)

	out := m.Update(sectors(5.0, 0.5, 5.0), reliable())
	require.True(t, out.StateChanged)
	assert.Equal(t, StateStop.Advisory(), out.Message)

	// Holding the same state re-emits nothing.
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		out = m.Update(sectors(5.0, 0.5, 5.0), reliable())
		assert.False(t, out.StateChanged)
		assert.Empty(t, out.Message)
	}

	clock.Advance(time.Second)
	out = m.Update(sectors(5.0, 5.0, 5.0), reliable())
	assert.True(t, out.StateChanged)
	assert.Equal(t, StateNormal.Advisory(), out.Message)
}

func TestUrgencyMapping(t *testing.T) {
	t.Parallel()

	th := Thresholds{StopDistance: 1.0, WarnDistance: 3.0, Hysteresis: 0.25, MinStateDuration: 0}

	t.Run("warning urgency interpolates between warn and stop", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		out := m.Update(sectors(3.0, 2.0, 1.0), reliable())
		require.Equal(t, StateWarningLeft, out.State)
		assert.InDelta(t, 0.5, out.Urgency, 1e-9)
	})

	t.Run("urgency clamps to [0,1]", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		// Enter a warning state, then hold it while the reading
		// briefly exceeds the warn distance.
		out := m.Update(sectors(3.0, 2.0, 1.0), reliable())
		require.Equal(t, StateWarningLeft, out.State)

		m.SetThresholds(Thresholds{StopDistance: 1.0, WarnDistance: 3.0, Hysteresis: 0.25, MinStateDuration: time.Hour})
		out = m.Update(sectors(3.0, 3.5, 1.0), reliable())
		require.Equal(t, StateWarningLeft, out.State) // held by debounce
		assert.Equal(t, 0.0, out.Urgency)
	})

	t.Run("stop urgency is always 1", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(th, timeutil.NewMockClock(time.Unix(0, 0)))
		out := m.Update(sectors(5.0, 0.1, 5.0), reliable())
		assert.Equal(t, 1.0, out.Urgency)
	})
}

func TestDebugInfoFormat(t *testing.T) {
	t.Parallel()

	m, _ := newTestMachine(t)
	sd := depth.SectorDepth{Left: 1.5, Center: 2.25, Right: 3.0, InvalidRatio: 0.25, Stability: 0.12}
	out := m.Update(sd, reliable())
	assert.Equal(t, "L:1.50m C:2.25m R:3.00m holes:25% stability:0.12m", out.DebugInfo)
}

func TestResetClearsDebounceTiming(t *testing.T) {
	t.Parallel()

	m, clock := newTestMachine(t)

	out := m.Update(sectors(5.0, 0.5, 5.0), reliable())
	require.Equal(t, StateStop, out.State)

	// Reset mid-hold: the next update transitions immediately even
	// though the minimum duration has not elapsed.
	clock.Advance(50 * time.Millisecond)
	m.Reset()
	require.Equal(t, StateNormal, m.State())

	out = m.Update(sectors(5.0, 0.5, 5.0), reliable())
	assert.Equal(t, StateStop, out.State)
	assert.True(t, out.StateChanged)
}

func TestResetRoundTripMatchesFreshMachine(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	fresh := NewMachine(DefaultThresholds(), clock)
	want := fresh.Update(sectors(2.0, 1.5, 1.0), reliable())

	used := NewMachine(DefaultThresholds(), clock)
	used.Update(sectors(5.0, 0.2, 5.0), reliable())
	used.Update(sectors(5.0, 5.0, 5.0), unreliable())
	used.Reset()
	got := used.Update(sectors(2.0, 1.5, 1.0), reliable())

	assert.Equal(t, want, got)
}

func TestStateStringsAndAdvisories(t *testing.T) {
	t.Parallel()

	states := []State{StateNormal, StateWarningLeft, StateWarningRight, StateStop, StateLowConfidence}
	seen := map[string]bool{}
	for _, s := range states {
		assert.NotEqual(t, "Unknown", s.String())
		assert.NotEmpty(t, s.Advisory())
		assert.False(t, seen[s.String()], "duplicate state name %q", s)
		seen[s.String()] = true
	}
	assert.Equal(t, "Unknown", State(99).String())
	assert.Empty(t, State(99).Advisory())
}
