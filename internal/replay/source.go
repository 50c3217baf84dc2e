package replay

import (
	"context"
	"time"

	"github.com/sensepath-app/sensepath/internal/depth"
	"github.com/sensepath-app/sensepath/internal/timeutil"
)

// LogSource plays a recorded depth log back as a pipeline frame source,
// pacing frames according to their recorded timestamps.
type LogSource struct {
	reader *LogReader
	clock  timeutil.Clock

	// Rate scales playback speed: 2.0 plays twice as fast, 0 disables
	// pacing entirely (frames are delivered as fast as they decode).
	Rate float64

	lastTS time.Time
}

// NewLogSource wraps a log reader for paced playback. A nil clock falls
// back to the real one.
func NewLogSource(reader *LogReader, clock timeutil.Clock) *LogSource {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &LogSource{reader: reader, clock: clock, Rate: 1.0}
}

// NextFrame returns the next recorded frame, sleeping to reproduce the
// recorded inter-frame timing. Returns io.EOF at the end of the log.
func (s *LogSource) NextFrame(ctx context.Context) (*depth.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := s.reader.ReadFrame()
	if err != nil {
		return nil, err
	}

	if !s.lastTS.IsZero() && s.Rate > 0 {
		gap := frame.Timestamp.Sub(s.lastTS)
		if gap > 0 {
			s.clock.Sleep(time.Duration(float64(gap) / s.Rate))
		}
	}
	s.lastTS = frame.Timestamp

	return frame, nil
}

// Close closes the underlying log reader.
func (s *LogSource) Close() error {
	return s.reader.Close()
}
