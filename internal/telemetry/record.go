// Package telemetry persists per-frame guidance decisions to sqlite for
// later inspection via the monitor pages and SQL debugging console.
package telemetry

import (
	"fmt"
	"time"
)

// FrameRecord is one analyzed frame's outcome: the sector depths, the
// quality inputs and the guidance decision taken. JSON field names match
// the wire format POSTed to /log and returned from /data.
type FrameRecord struct {
	SessionID    string    `json:"session_id"`
	State        string    `json:"state"`
	Left         float64   `json:"left"`
	Center       float64   `json:"center"`
	Right        float64   `json:"right"`
	InvalidRatio float64   `json:"invalidRatio"`
	Stability    float64   `json:"stability"`
	FPS          float64   `json:"fps"`
	Urgency      float64   `json:"urgency"`
	Message      string    `json:"message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func (r *FrameRecord) String() string {
	return fmt.Sprintf("Session: %s, State: %s, Left: %.2f, Center: %.2f, Right: %.2f, InvalidRatio: %.2f, Stability: %.2f, FPS: %.1f, Urgency: %.2f",
		r.SessionID, r.State, r.Left, r.Center, r.Right, r.InvalidRatio, r.Stability, r.FPS, r.Urgency)
}
