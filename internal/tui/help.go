package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Keyboard Shortcuts"))

	sections = append(sections, m.renderSection("Global", []keyHelp{
		{"?", "Help (this screen)"},
		{"esc", "Close help"},
		{"q", "Quit (outside time fields)"},
		{"ctrl+c", "Quit"},
	}))

	sections = append(sections, m.renderSection("Race Form", []keyHelp{
		{"tab / down", "Next field"},
		{"shift+tab / up", "Previous field"},
		{"left / right", "Choose distance"},
		{"0-9", "Hours (0-23), minutes and seconds (0-59)"},
		{"enter", "Calculate predictions"},
		{"ctrl+r", "Reset the form"},
	}))

	sections = append(sections, m.renderSection("Predictions", []keyHelp{
		{"j / k", "Scroll"},
		{"b / esc", "Back to the form"},
	}))

	sections = append(sections, m.renderVDOTHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderVDOTHelp() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("VDOT Explained"))
	lines = append(lines, "")

	terms := []struct {
		name string
		desc string
	}{
		{"VDOT", "Effective VO2max implied by a race result, read from the lookup table."},
		{"Fitness level", "Novice below 30, then Beginner, Intermediate, Advanced Recreational, Competitive, Highly Competitive and Elite from 75."},
		{"%VO2max", "Share of VO2max a runner can hold for the whole race. Lower for longer races."},
		{"Predictions", "Equivalent-effort times at every other distance for the same VDOT."},
	}

	for _, term := range terms {
		lines = append(lines, "  "+helpKeyStyle.Render(term.name))
		lines = append(lines, "  "+mutedStyle.Render(term.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
