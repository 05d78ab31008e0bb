package tui

import (
	"testing"

	"racepredictor/internal/analysis"
	"racepredictor/internal/config"
)

func TestUnitsFormatPace(t *testing.T) {
	km := NewUnits(config.DisplayConfig{DistanceUnit: "km", PaceUnit: "min/km"})
	mi := NewUnits(config.DisplayConfig{DistanceUnit: "mi", PaceUnit: "min/mi"})

	tests := []struct {
		name    string
		units   Units
		seconds int
		meters  float64
		want    string
	}{
		{"20 minute 5K per km", km, 1200, 5000, "4:00"},
		{"6 minute mile per mile", mi, 360, analysis.Meters1Mile, "6:00"},
		{"zero distance", km, 1200, 0, "-"},
		{"zero time", mi, 0, 5000, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.units.FormatPace(tt.seconds, tt.meters); got != tt.want {
				t.Errorf("FormatPace(%d, %v) = %q, want %q", tt.seconds, tt.meters, got, tt.want)
			}
		})
	}

	if got := km.FormatPaceWithUnit(1200, 5000); got != "4:00/km" {
		t.Errorf("FormatPaceWithUnit() = %q, want 4:00/km", got)
	}
}

func TestUnitsLabels(t *testing.T) {
	km := NewUnits(config.DisplayConfig{DistanceUnit: "km", PaceUnit: "min/km"})
	if km.IsMiles() || km.PaceLabel() != "min/km" {
		t.Errorf("km units: IsMiles=%v PaceLabel=%q", km.IsMiles(), km.PaceLabel())
	}
	if got := km.FormatDistance(5000); got != "5.00 km" {
		t.Errorf("FormatDistance(5000) = %q", got)
	}

	mi := NewUnits(config.DisplayConfig{DistanceUnit: "mi", PaceUnit: "min/mi"})
	if !mi.IsMiles() || mi.PaceLabel() != "min/mi" {
		t.Errorf("mi units: IsMiles=%v PaceLabel=%q", mi.IsMiles(), mi.PaceLabel())
	}
	if got := mi.FormatDistance(analysis.Meters1Mile); got != "1.00 mi" {
		t.Errorf("FormatDistance(mile) = %q", got)
	}
}
