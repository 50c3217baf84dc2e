// Package pipeline drives depth frames from a source through the analyzer
// and the guidance state machine, fanning the per-frame outcome out to
// sinks (telemetry store, live hub, plotters).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/sensepath-app/sensepath/internal/depth"
	"github.com/sensepath-app/sensepath/internal/guidance"
	"github.com/sensepath-app/sensepath/internal/monitoring"
	"github.com/sensepath-app/sensepath/internal/telemetry"
	"github.com/sensepath-app/sensepath/internal/timeutil"
)

// FrameSource produces depth frames. NextFrame blocks until a frame is
// available, the context is canceled, or the source is exhausted; an
// exhausted source returns io.EOF.
type FrameSource interface {
	NextFrame(ctx context.Context) (*depth.Frame, error)
}

// Sink consumes one per-frame guidance outcome. A sink error is logged and
// counted but never stops the pipeline: guidance must keep flowing even if
// a recorder falls over.
type Sink interface {
	Consume(rec telemetry.FrameRecord) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(rec telemetry.FrameRecord) error

func (f SinkFunc) Consume(rec telemetry.FrameRecord) error { return f(rec) }

// RunnerConfig holds the dependencies for a pipeline run.
type RunnerConfig struct {
	Analyzer *depth.Analyzer
	Machine  *guidance.Machine
	Source   FrameSource
	Sinks    []Sink

	// Clock drives the periodic stats log. Nil falls back to the real
	// clock.
	Clock timeutil.Clock

	// StatsInterval is how often throughput stats are logged. Zero
	// disables the periodic log.
	StatsInterval time.Duration
}

// Runner owns one processing loop over a frame source. Each Run call is a
// fresh session: both cores are reset and a new session id is minted, so
// state from a previous walk can never leak into the next.
type Runner struct {
	cfg       RunnerConfig
	stats     *FrameStats
	fps       *fpsMeter
	sessionID string
}

// NewRunner validates the configuration and creates a Runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("pipeline: Analyzer is required")
	}
	if cfg.Machine == nil {
		return nil, errors.New("pipeline: Machine is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("pipeline: Source is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Runner{
		cfg:   cfg,
		stats: NewFrameStats(),
		fps:   newFPSMeter(),
	}, nil
}

// SessionID returns the id of the current (or most recent) run. Empty
// before the first Run.
func (r *Runner) SessionID() string {
	return r.sessionID
}

// Stats exposes the throughput counters, mainly for the monitor pages.
func (r *Runner) Stats() *FrameStats {
	return r.stats
}

// Run processes frames until the source is exhausted or the context is
// canceled. Source exhaustion is a normal end and returns nil; any other
// source error aborts the run.
func (r *Runner) Run(ctx context.Context) error {
	r.sessionID = uuid.NewString()
	r.cfg.Analyzer.Reset()
	r.cfg.Machine.Reset()
	r.fps.reset()

	monitoring.Logf("pipeline: session %s started", r.sessionID)

	if r.cfg.StatsInterval > 0 {
		ticker := r.cfg.Clock.NewTicker(r.cfg.StatsInterval)
		defer ticker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C():
					r.stats.LogStats()
				}
			}
		}()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := r.cfg.Source.NextFrame(ctx)
		if errors.Is(err, io.EOF) {
			monitoring.Logf("pipeline: session %s ended, source exhausted", r.sessionID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("pipeline: source failed: %w", err)
		}

		rec := r.processFrame(frame)
		for _, sink := range r.cfg.Sinks {
			if err := sink.Consume(rec); err != nil {
				r.stats.AddSinkError()
				monitoring.Logf("pipeline: sink error: %v", err)
			}
		}
	}
}

// processFrame runs one frame through both cores and assembles the
// telemetry record.
func (r *Runner) processFrame(frame *depth.Frame) telemetry.FrameRecord {
	measuredFPS := r.fps.observe(frame.Timestamp)
	sd, qm := r.cfg.Analyzer.Analyze(frame, measuredFPS)
	out := r.cfg.Machine.Update(sd, qm)

	r.stats.AddFrame()
	if out.StateChanged {
		r.stats.AddTransition()
	}
	if !qm.IsReliable {
		r.stats.AddUnreliable()
	}

	return telemetry.FrameRecord{
		SessionID:    r.sessionID,
		State:        out.State.String(),
		Left:         sd.Left,
		Center:       sd.Center,
		Right:        sd.Right,
		InvalidRatio: sd.InvalidRatio,
		Stability:    sd.Stability,
		FPS:          qm.FPS,
		Urgency:      out.Urgency,
		Message:      out.Message,
		Timestamp:    frame.Timestamp,
	}
}
