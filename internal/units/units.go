// Package units provides speed unit constants and conversions. The planner
// works in metres per second internally; scenario files may state speeds in
// any of the units below.
package units

import (
	"fmt"
	"strings"
)

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

const mpsToMPH = 2.2369362920544

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units.
// The empty string is accepted and means metres per second.
func IsValid(unit string) bool {
	if unit == "" {
		return true
	}
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ConvertSpeed converts a speed from metres per second to the target units.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * mpsToMPH
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// ToMPS converts a speed expressed in unit to metres per second.
func ToMPS(speed float64, unit string) (float64, error) {
	switch unit {
	case MPS, "":
		return speed, nil
	case MPH:
		return speed / mpsToMPH, nil
	case KMPH, KPH:
		return speed / 3.6, nil
	default:
		return 0, fmt.Errorf("invalid speed unit %q (valid: %s)", unit, strings.Join(ValidUnits, ", "))
	}
}
