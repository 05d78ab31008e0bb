package tui

import (
	"fmt"
	"strings"

	"racepredictor/internal/analysis"
	"racepredictor/internal/service"

	"github.com/guptarohit/asciigraph"
)

// FormatVDOT renders a VDOT with one decimal, or none when it is whole
func FormatVDOT(vdot float64) string {
	if vdot == float64(int(vdot)) {
		return fmt.Sprintf("%d", int(vdot))
	}
	return fmt.Sprintf("%.1f", vdot)
}

// RenderPredictionTable renders the predicted times for result as a
// plain-text table. Shared by the results screen and the CLI.
func RenderPredictionTable(result *service.Result, units Units) string {
	var b strings.Builder

	header := fmt.Sprintf("%-15s %10s %10s %8s", "Distance", "Time", "Pace", "%VO2max")
	b.WriteString(tableHeaderStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", len(header)))
	b.WriteString("\n")

	for _, p := range result.Predictions {
		b.WriteString(fmt.Sprintf("%-15s %10s %10s %7.1f%%\n",
			p.Distance.Label(),
			p.Time,
			units.FormatPace(p.Seconds, p.Distance.Meters()),
			p.Distance.PercentVO2Max()*100,
		))
	}

	return b.String()
}

// RenderSummary renders the input race and the resolved VDOT
func RenderSummary(result *service.Result, units Units) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s  %s",
		vdotStyle.Render("VDOT "+FormatVDOT(result.VDOT)),
		successStyle.Render(result.Label)))
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("From %s in %s (%s)",
		result.Distance.Label(),
		analysis.FormatSeconds(result.InputSeconds),
		units.FormatPaceWithUnit(result.InputSeconds, result.Distance.Meters()))))

	return strings.Join(lines, "\n")
}

// RenderPaceChart plots pace against distance, shortest first, with the
// input race placed among the predictions
func RenderPaceChart(result *service.Result, units Units, width int) string {
	type point struct {
		meters float64
		pace   float64
	}

	points := make([]point, 0, len(result.Predictions)+1)
	points = append(points, point{
		meters: result.Distance.Meters(),
		pace:   units.PaceSeconds(result.InputSeconds, result.Distance.Meters()),
	})
	for _, p := range result.Predictions {
		points = append(points, point{
			meters: p.Distance.Meters(),
			pace:   units.PaceSeconds(p.Seconds, p.Distance.Meters()),
		})
	}

	// Insertion sort, the series is tiny
	for i := 1; i < len(points); i++ {
		for j := i; j > 0 && points[j].meters < points[j-1].meters; j-- {
			points[j], points[j-1] = points[j-1], points[j]
		}
	}

	data := make([]float64, 0, len(points))
	for _, p := range points {
		if p.pace > 0 {
			data = append(data, p.pace/60)
		}
	}
	if len(data) < 2 {
		return mutedStyle.Render("Not enough data for a chart")
	}

	if width <= 0 || width > 50 {
		width = 50
	}
	return asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("Pace (%s) by distance, shortest first", units.PaceLabel())),
	)
}
