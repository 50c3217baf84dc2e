package guidance

import (
	"fmt"
	"sync"
	"time"

	"github.com/sensepath-app/sensepath/internal/depth"
	"github.com/sensepath-app/sensepath/internal/timeutil"
)

// Thresholds holds the externally owned guidance tuning. Like the analyzer
// config it is a plain value record, replaceable wholesale between frames;
// the machine snapshots it at the start of each Update.
type Thresholds struct {
	// StopDistance is the center distance (meters) below which the
	// state is Stop. Must be less than WarnDistance.
	StopDistance float64

	// WarnDistance is the center distance below which a directional
	// warning is considered.
	WarnDistance float64

	// Hysteresis is the minimum left-vs-right clearance difference
	// (meters) required to prefer one direction over the other. Inside
	// this dead-zone no directional preference is declared.
	Hysteresis float64

	// MinStateDuration is how long a state must be held before a
	// different state is accepted, regardless of instantaneous
	// readings.
	MinStateDuration time.Duration
}

// DefaultThresholds returns the guidance tuning used when no config file
// is supplied. Values match config/tuning.defaults.json.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StopDistance:     1.0,
		WarnDistance:     2.5,
		Hysteresis:       0.3,
		MinStateDuration: 500 * time.Millisecond,
	}
}

// Output is the per-frame guidance decision.
type Output struct {
	State State `json:"state"`

	// Urgency in [0,1] scales actuator pulse rate/intensity. May be
	// consumed every frame.
	Urgency float64 `json:"urgency"`

	// StateChanged is true only on the call that accepted a transition.
	StateChanged bool `json:"state_changed"`

	// Message is the advisory for the newly entered state; empty unless
	// StateChanged is true, so speech/tone events fire exactly once per
	// transition.
	Message string `json:"message,omitempty"`

	// DebugInfo is a fixed-format summary of the inputs, independent of
	// state.
	DebugInfo string `json:"debug_info"`
}

// Machine is the guidance state machine. It is a pure transformation over
// (inputs, persistent current state): deterministic given history, with
// the debounce timer driven by an injectable clock.
type Machine struct {
	mu         sync.Mutex
	clock      timeutil.Clock
	thresholds Thresholds

	current   State
	enteredAt time.Time
	// entered is false until the first Update (and again after Reset),
	// so the first decision is never blocked by stale debounce timing.
	entered bool
}

// NewMachine creates a state machine with the given thresholds. A nil
// clock falls back to the real one.
func NewMachine(th Thresholds, clock timeutil.Clock) *Machine {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Machine{
		clock:      clock,
		thresholds: th,
		current:    StateNormal,
	}
}

// SetThresholds replaces the guidance tuning. Safe to call between frames
// from another goroutine.
func (m *Machine) SetThresholds(th Thresholds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = th
}

// Thresholds returns a copy of the current tuning.
func (m *Machine) Thresholds() Thresholds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.thresholds
}

// Reset returns the machine to Normal with no entry timestamp, so the next
// Update can transition immediately. Call on session start/stop.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = StateNormal
	m.entered = false
	m.enteredAt = time.Time{}
}

// State returns the currently held state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Update evaluates one frame's sector depths and quality verdict and
// returns the guidance decision. It never fails.
func (m *Machine) Update(sd depth.SectorDepth, qm depth.QualityMetrics) Output {
	m.mu.Lock()
	defer m.mu.Unlock()

	th := m.thresholds
	candidate := selectState(sd, qm, th)
	now := m.clock.Now()

	changed := false
	if !m.entered {
		// First frame after construction or Reset: accept immediately.
		changed = candidate != m.current
		m.current = candidate
		m.enteredAt = now
		m.entered = true
	} else if candidate != m.current {
		// Debounce: hold the current state until it has been in force
		// for the minimum duration.
		if now.Sub(m.enteredAt) >= th.MinStateDuration {
			m.current = candidate
			m.enteredAt = now
			changed = true
		}
	}

	out := Output{
		State:        m.current,
		Urgency:      urgency(m.current, sd.Center, th),
		StateChanged: changed,
		DebugInfo:    debugInfo(sd),
	}
	if changed {
		out.Message = m.current.Advisory()
	}
	return out
}

// selectState applies the priority ordering: an imminent obstacle always
// outranks a reliability complaint.
func selectState(sd depth.SectorDepth, qm depth.QualityMetrics, th Thresholds) State {
	switch {
	case sd.Center < th.StopDistance:
		return StateStop
	case sd.Center < th.WarnDistance:
		diff := sd.Left - sd.Right
		if diff > th.Hysteresis {
			return StateWarningLeft
		}
		if diff < -th.Hysteresis {
			return StateWarningRight
		}
		// Near-symmetric clearance: no directional preference; fall
		// through to the quality check.
	}
	if !qm.IsReliable {
		return StateLowConfidence
	}
	return StateNormal
}

// urgency maps the held state plus the current center distance to [0,1].
func urgency(s State, center float64, th Thresholds) float64 {
	switch s {
	case StateStop:
		return 1.0
	case StateWarningLeft, StateWarningRight:
		span := th.WarnDistance - th.StopDistance
		if span <= 0 {
			return 1.0
		}
		u := (th.WarnDistance - center) / span
		if u < 0 {
			return 0
		}
		if u > 1 {
			return 1
		}
		return u
	case StateLowConfidence:
		return lowConfidenceUrgency
	default:
		return 0
	}
}

// debugInfo renders the fixed-format input summary shown on monitor pages
// and in activity logs.
func debugInfo(sd depth.SectorDepth) string {
	return fmt.Sprintf("L:%.2fm C:%.2fm R:%.2fm holes:%.0f%% stability:%.2fm",
		sd.Left, sd.Center, sd.Right, sd.InvalidRatio*100, sd.Stability)
}
