// Package guidance turns per-sector depth estimates into a debounced,
// hysteresis-stable navigational state with an urgency scalar and one-shot
// advisory messages for the actuator layer.
package guidance

// State is the closed set of navigational conditions. Exactly one is
// current at any time; mappings over it are exhaustive by construction.
type State int

const (
	// StateNormal means the path ahead is clear.
	StateNormal State = iota
	// StateWarningLeft means an obstacle is ahead and the left side has
	// materially more clearance: advise moving toward the left.
	StateWarningLeft
	// StateWarningRight mirrors StateWarningLeft for the right side.
	StateWarningRight
	// StateStop means an obstacle is directly ahead inside the stop
	// distance.
	StateStop
	// StateLowConfidence means depth readings are currently too
	// unreliable to act on, and no higher-priority hazard is present.
	StateLowConfidence
)

var stateNames = map[State]string{
	StateNormal:        "Normal",
	StateWarningLeft:   "WarningLeft",
	StateWarningRight:  "WarningRight",
	StateStop:          "Stop",
	StateLowConfidence: "LowConfidence",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// advisories are the fixed one-shot messages spoken or displayed when a
// state is entered. Emitted once per transition, never re-emitted while a
// state is held.
var advisories = map[State]string{
	StateNormal:        "Path clear",
	StateWarningLeft:   "Obstacle ahead, clearer to the left",
	StateWarningRight:  "Obstacle ahead, clearer to the right",
	StateStop:          "Stop, obstacle directly ahead",
	StateLowConfidence: "Depth readings unreliable, proceed with caution",
}

// Advisory returns the fixed message for entering this state.
func (s State) Advisory() string {
	if msg, ok := advisories[s]; ok {
		return msg
	}
	return ""
}

// lowConfidenceUrgency is the fixed urgency reported while readings are
// untrustworthy: enough to modulate haptics noticeably without implying a
// physical hazard.
const lowConfidenceUrgency = 0.3
