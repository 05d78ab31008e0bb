package analysis

import (
	"fmt"
	"math"
)

// Validation messages shown to the user
const (
	MsgSelectDistance = "Please select a recent race distance"
	MsgHoursRange     = "Hours must be between 0 and 23"
	MsgMinutesRange   = "Minutes must be between 0 and 59"
	MsgSecondsRange   = "Seconds must be between 0 and 59"
	MsgInvalidTime    = "Please enter a valid time"
)

// ValidateInputs checks the raw form values for a race result.
// Every check runs; the returned slice is empty when the input is valid.
func ValidateInputs(hours, minutes, seconds float64, distance string) []string {
	errs := []string{}

	if distance == "" {
		errs = append(errs, MsgSelectDistance)
	}

	if !inRange(hours, 0, 23) {
		errs = append(errs, MsgHoursRange)
	}
	if !inRange(minutes, 0, 59) {
		errs = append(errs, MsgMinutesRange)
	}
	if !inRange(seconds, 0, 59) {
		errs = append(errs, MsgSecondsRange)
	}

	// The total only makes sense when every component is a number
	if !isFinite(hours) || !isFinite(minutes) || !isFinite(seconds) {
		return errs
	}

	total := hours*3600 + minutes*60 + seconds
	if total == 0 {
		errs = append(errs, MsgInvalidTime)
	} else if minTime, ok := Distance(distance).MinTime(); ok && total < float64(minTime) {
		errs = append(errs, fmt.Sprintf("Time seems too short for %s. Please check your input.", distance))
	}

	return errs
}

func inRange(v, min, max float64) bool {
	return isFinite(v) && v >= min && v <= max
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
