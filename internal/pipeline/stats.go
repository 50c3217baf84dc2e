package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/sensepath-app/sensepath/internal/monitoring"
)

// FrameStats tracks pipeline throughput counters with thread-safe
// operations.
type FrameStats struct {
	mu          sync.Mutex
	frameCount  int64
	transitions int64
	unreliable  int64
	sinkErrors  int64
	lastReset   time.Time
}

// NewFrameStats creates a new FrameStats instance.
func NewFrameStats() *FrameStats {
	return &FrameStats{
		lastReset: time.Now(),
	}
}

// AddFrame increments the processed frame count.
func (fs *FrameStats) AddFrame() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.frameCount++
}

// AddTransition increments the accepted state transition count.
func (fs *FrameStats) AddTransition() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.transitions++
}

// AddUnreliable increments the count of frames flagged unreliable.
func (fs *FrameStats) AddUnreliable() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.unreliable++
}

// AddSinkError increments the count of sink delivery failures.
func (fs *FrameStats) AddSinkError() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.sinkErrors++
}

// Snapshot returns the counters accumulated since the last reset without
// resetting them. Used by the monitor's health endpoint.
func (fs *FrameStats) Snapshot() (frames, transitions, unreliable, sinkErrors int64) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.frameCount, fs.transitions, fs.unreliable, fs.sinkErrors
}

// GetAndReset returns current stats and resets counters.
func (fs *FrameStats) GetAndReset() (frames, transitions, unreliable, sinkErrors int64, duration time.Duration) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := time.Now()
	duration = now.Sub(fs.lastReset)
	frames = fs.frameCount
	transitions = fs.transitions
	unreliable = fs.unreliable
	sinkErrors = fs.sinkErrors

	fs.frameCount = 0
	fs.transitions = 0
	fs.unreliable = 0
	fs.sinkErrors = 0
	fs.lastReset = now

	return
}

// LogStats logs formatted statistics and resets the counters.
func (fs *FrameStats) LogStats() {
	frames, transitions, unreliable, sinkErrors, duration := fs.GetAndReset()
	if frames == 0 {
		return
	}

	framesPerSec := float64(frames) / duration.Seconds()
	logMsg := fmt.Sprintf("Guidance stats: %.1f frames/sec, %d transitions, %d unreliable",
		framesPerSec, transitions, unreliable)
	if sinkErrors > 0 {
		logMsg += fmt.Sprintf(", %d sink errors", sinkErrors)
	}
	monitoring.Logf("%s", logMsg)
}
