package replay

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensepath-app/sensepath/internal/depth"
	"github.com/sensepath-app/sensepath/internal/timeutil"
)

// centerMin returns the smallest measured depth in the middle third of the
// frame.
func centerMin(f *depth.Frame) float64 {
	min := math.Inf(1)
	third := f.Width / 3
	for row := 0; row < f.Height; row++ {
		for col := third; col < f.Width-third; col++ {
			v := f.At(row, col)
			if !math.IsNaN(v) && v < min {
				min = v
			}
		}
	}
	return min
}

func TestSyntheticObstacleApproaches(t *testing.T) {
	t.Parallel()

	gen := NewSyntheticSource(timeutil.NewMockClock(time.Unix(0, 0)), 0)
	gen.Seed(1)
	gen.HoleRatio = 0 // keep the geometry fully observable
	gen.Jitter = 0

	ctx := context.Background()
	first, err := gen.NextFrame(ctx)
	require.NoError(t, err)

	// Skip ahead three simulated seconds.
	var last *depth.Frame
	for i := 0; i < 90; i++ {
		last, err = gen.NextFrame(ctx)
		require.NoError(t, err)
	}

	closed := centerMin(first) - centerMin(last)
	assert.InDelta(t, 3.0*gen.ApproachMPS, closed, 0.1)
}

func TestSyntheticObstacleStopsAtMinimum(t *testing.T) {
	t.Parallel()

	gen := NewSyntheticSource(timeutil.NewMockClock(time.Unix(0, 0)), 0)
	gen.Seed(1)
	gen.HoleRatio = 0
	gen.Jitter = 0
	gen.ObstacleStart = 1.0
	gen.ApproachMPS = 5.0

	ctx := context.Background()
	var f *depth.Frame
	for i := 0; i < 60; i++ {
		var err error
		f, err = gen.NextFrame(ctx)
		require.NoError(t, err)
	}
	assert.InDelta(t, gen.ObstacleMin, centerMin(f), 1e-9)
}

func TestSyntheticHoleRatio(t *testing.T) {
	t.Parallel()

	gen := NewSyntheticSource(timeutil.NewMockClock(time.Unix(0, 0)), 0)
	gen.Seed(7)
	gen.HoleRatio = 0.2

	f, err := gen.NextFrame(context.Background())
	require.NoError(t, err)

	holes := 0
	for _, v := range f.Depths {
		if math.IsNaN(v) {
			holes++
		}
	}
	ratio := float64(holes) / float64(len(f.Depths))
	assert.InDelta(t, 0.2, ratio, 0.05)
}

func TestSyntheticFrameCountAndTimestamps(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	gen := NewSyntheticSource(timeutil.NewMockClock(start), 3)
	gen.Seed(1)

	ctx := context.Background()
	var frames []*depth.Frame
	for {
		f, err := gen.NextFrame(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}

	require.Len(t, frames, 3)
	interval := time.Duration(float64(time.Second) / gen.FrameRate)
	for i, f := range frames {
		assert.True(t, f.Timestamp.Equal(start.Add(time.Duration(i)*interval)), "frame %d timestamp", i)
	}
}

func TestSyntheticPacedSleepsBetweenFrames(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(time.Unix(0, 0))
	gen := NewSyntheticSource(clock, 3)
	gen.Paced = true

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := gen.NextFrame(ctx)
		require.NoError(t, err)
	}

	// No sleep before the first frame.
	assert.Len(t, clock.Sleeps(), 2)
}
