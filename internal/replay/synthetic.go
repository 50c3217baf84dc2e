package replay

import (
	"context"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/sensepath-app/sensepath/internal/depth"
	"github.com/sensepath-app/sensepath/internal/timeutil"
)

// SyntheticSource generates a synthetic corridor walk for testing and
// demos: clear side walls and a single obstacle dead ahead that approaches
// at walking pace, with sensor-like noise and dropout holes.
type SyntheticSource struct {
	// Configuration
	Width         int
	Height        int
	FrameRate     float64 // frames per second
	CorridorDepth float64 // metres, clearance of the open corridor
	ObstacleStart float64 // metres, initial obstacle distance
	ObstacleMin   float64 // metres, closest the obstacle gets
	ApproachMPS   float64 // metres per second closing speed
	HoleRatio     float64 // fraction of pixels with no reading
	Jitter        float64 // metres, uniform noise amplitude

	// Paced, when true, sleeps one frame interval per NextFrame so the
	// source behaves like a live sensor. Leave false for batch
	// generation.
	Paced bool

	// Internal state
	clock   timeutil.Clock
	rng     *rand.Rand
	start   time.Time
	total   int // 0 means unbounded
	emitted int
}

// NewSyntheticSource creates a synthetic corridor source emitting total
// frames (0 for unbounded). A nil clock falls back to the real one.
func NewSyntheticSource(clock timeutil.Clock, total int) *SyntheticSource {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &SyntheticSource{
		Width:         64,
		Height:        48,
		FrameRate:     30.0,
		CorridorDepth: 6.0,
		ObstacleStart: 6.0,
		ObstacleMin:   0.4,
		ApproachMPS:   0.8,
		HoleRatio:     0.05,
		Jitter:        0.03,
		clock:         clock,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		start:         clock.Now(),
		total:         total,
	}
}

// Seed makes the noise pattern deterministic.
func (g *SyntheticSource) Seed(seed int64) {
	g.rng = rand.New(rand.NewSource(seed))
}

// NextFrame generates the next synthetic frame. Returns io.EOF once the
// configured frame count has been emitted.
func (g *SyntheticSource) NextFrame(ctx context.Context) (*depth.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.total > 0 && g.emitted >= g.total {
		return nil, io.EOF
	}

	interval := time.Duration(float64(time.Second) / g.FrameRate)
	if g.Paced && g.emitted > 0 {
		g.clock.Sleep(interval)
	}

	elapsed := float64(g.emitted) / g.FrameRate
	obstacle := g.ObstacleStart - g.ApproachMPS*elapsed
	if obstacle < g.ObstacleMin {
		obstacle = g.ObstacleMin
	}

	frame := depth.NewFrame(g.Width, g.Height)
	frame.Timestamp = g.start.Add(time.Duration(g.emitted) * interval)

	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if g.rng.Float64() < g.HoleRatio {
				continue // leave as unmeasured
			}

			// The middle third of the image holds the obstacle; the
			// sides see down the corridor with walls angling slightly
			// closer at the edges.
			var base float64
			third := g.Width / 3
			if col >= third && col < g.Width-third {
				base = obstacle
			} else {
				edge := math.Abs(float64(col)-float64(g.Width)/2) / (float64(g.Width) / 2)
				base = g.CorridorDepth * (1.0 - 0.2*edge)
			}

			noise := (g.rng.Float64()*2 - 1) * g.Jitter
			frame.Set(row, col, base+noise)
		}
	}

	g.emitted++
	return frame, nil
}
