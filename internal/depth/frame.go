// Package depth converts raw per-pixel depth frames into smoothed per-sector
// distance estimates and a reliability verdict for the guidance layer.
package depth

import (
	"math"
	"time"
)

// Frame is one depth map: Width x Height distance samples in meters,
// row-major. The frame is read-only for the duration of one Analyze call
// and is not retained by the analyzer.
type Frame struct {
	Width  int
	Height int

	// Depths holds Width*Height samples in meters. Non-finite or
	// non-positive entries mean the sensor produced no reading for
	// that pixel.
	Depths []float64

	// Timestamp is when the frame was captured. Used by the pipeline
	// for frame-rate metering and replay pacing, not by the analyzer.
	Timestamp time.Time
}

// NewFrame allocates an empty frame of the given dimensions with every
// sample marked as unmeasured.
func NewFrame(width, height int) *Frame {
	f := &Frame{
		Width:  width,
		Height: height,
		Depths: make([]float64, width*height),
	}
	for i := range f.Depths {
		f.Depths[i] = math.NaN()
	}
	return f
}

// At returns the depth sample at the given row and column. Out-of-range
// positions report NaN rather than panicking.
func (f *Frame) At(row, col int) float64 {
	if row < 0 || row >= f.Height || col < 0 || col >= f.Width {
		return math.NaN()
	}
	return f.Depths[row*f.Width+col]
}

// Set stores a depth sample at the given row and column. Out-of-range
// positions are ignored.
func (f *Frame) Set(row, col int, meters float64) {
	if row < 0 || row >= f.Height || col < 0 || col >= f.Width {
		return
	}
	f.Depths[row*f.Width+col] = meters
}

// wellFormed reports whether the frame dimensions and backing slice agree.
func (f *Frame) wellFormed() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Depths) == f.Width*f.Height
}
