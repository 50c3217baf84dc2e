// Package units provides shared constants and conversion for distance units.
package units

import "fmt"

// Unit constants
const (
	Meters = "m"
	Feet   = "ft"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Meters, Feet}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ConvertDistance converts a distance from meters to the target units.
// The analyzer and telemetry store always work in meters.
func ConvertDistance(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case Feet:
		return meters * 3.28084
	case Meters:
		return meters
	default:
		return meters
	}
}

// FormatDistance renders a distance in the target units with its suffix,
// e.g. "1.25m" or "4.10ft". Unknown units fall back to meters.
func FormatDistance(meters float64, targetUnits string) string {
	if !IsValid(targetUnits) {
		targetUnits = Meters
	}
	return fmt.Sprintf("%.2f%s", ConvertDistance(meters, targetUnits), targetUnits)
}
