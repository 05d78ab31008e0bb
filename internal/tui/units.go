package tui

import (
	"fmt"

	"racepredictor/internal/analysis"
	"racepredictor/internal/config"
)

const metersPerKm = 1000.0

// Units provides unit conversion and formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in meters to the user's preferred unit
func (u Units) FormatDistance(meters float64) string {
	if u.IsMiles() {
		return fmt.Sprintf("%.2f mi", meters/analysis.Meters1Mile)
	}
	return fmt.Sprintf("%.2f km", meters/metersPerKm)
}

// PaceSeconds returns seconds per preferred pace unit, or 0 when undefined
func (u Units) PaceSeconds(seconds int, meters float64) float64 {
	if u.cfg.PaceUnit == "min/mi" {
		return analysis.CalculatePacePerMile(meters, seconds)
	}
	return analysis.CalculatePacePerKm(meters, seconds)
}

// FormatPace formats pace from total seconds and meters to the user's preferred unit
func (u Units) FormatPace(seconds int, meters float64) string {
	pace := u.PaceSeconds(seconds, meters)
	if pace <= 0 {
		return "-"
	}

	mins := int(pace) / 60
	secs := int(pace) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// FormatPaceWithUnit formats pace with the unit label
func (u Units) FormatPaceWithUnit(seconds int, meters float64) string {
	pace := u.FormatPace(seconds, meters)
	if pace == "-" {
		return pace
	}
	return pace + "/" + u.paceDistanceLabel()
}

func (u Units) paceDistanceLabel() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "mi"
	}
	return "km"
}

// PaceLabel returns the pace unit label ("min/mi" or "min/km")
func (u Units) PaceLabel() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "min/mi"
	}
	return "min/km"
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit == "mi"
}
