package tui

import (
	"strconv"
	"strings"

	"racepredictor/internal/analysis"
	"racepredictor/internal/analytics"
	"racepredictor/internal/service"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Form fields in focus order
const (
	fieldDistance = iota
	fieldHours
	fieldMinutes
	fieldSeconds
	fieldCount
)

var fieldMax = [fieldCount]int{fieldHours: 23, fieldMinutes: 59, fieldSeconds: 59}

// SubmitMsg asks the app to run a prediction
type SubmitMsg struct {
	Request service.Request
}

// FormModel is the race entry form
type FormModel struct {
	catalog  analysis.Catalog
	selected int // index into catalog, -1 when nothing is chosen
	focus    int
	inputs   [fieldCount]textinput.Model
	errors   []string
	tracker  *analytics.Tracker
}

// NewFormModel creates an empty form over catalog
func NewFormModel(catalog analysis.Catalog, tracker *analytics.Tracker) FormModel {
	m := FormModel{
		catalog:  catalog,
		selected: -1,
		tracker:  tracker,
	}

	placeholders := [fieldCount]string{fieldHours: "HH", fieldMinutes: "MM", fieldSeconds: "SS"}
	for i := fieldHours; i < fieldCount; i++ {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 2
		ti.Width = 3
		m.inputs[i] = ti
	}

	return m
}

// Init initializes the form
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInput(msg)
	}

	switch keyMsg.String() {
	case "tab", "down":
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case "enter":
		return m, m.submit
	case "ctrl+r":
		return m.reset()
	}

	if m.focus == fieldDistance {
		switch keyMsg.String() {
		case "left", "h":
			m.selectDistance(m.selected - 1)
		case "right", "l", " ":
			m.selectDistance(m.selected + 1)
		}
		return m, nil
	}

	return m.updateInput(msg)
}

func (m FormModel) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus == fieldDistance {
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.clamp(m.focus)
	return m, cmd
}

// clamp strips non-digits from a field and caps it at the field maximum
func (m *FormModel) clamp(field int) {
	raw := m.inputs[field].Value()
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if digits != "" {
		n := analysis.ParseTimeInput(digits, 0)
		if c := analysis.ClampValue(n, 0, fieldMax[field]); c != n {
			digits = strconv.Itoa(c)
		}
	}

	if digits != raw {
		m.inputs[field].SetValue(digits)
	}
}

func (m *FormModel) selectDistance(i int) {
	if len(m.catalog) == 0 {
		return
	}
	i = analysis.ClampValue(i, 0, len(m.catalog)-1)
	if i == m.selected {
		return
	}
	m.selected = i
	m.tracker.TrackDistanceSelection(string(m.catalog[i]))
}

func (m *FormModel) setFocus(field int) tea.Cmd {
	m.focus = field
	var cmd tea.Cmd
	for i := fieldHours; i < fieldCount; i++ {
		if i == field {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m FormModel) reset() (tea.Model, tea.Cmd) {
	for i := fieldHours; i < fieldCount; i++ {
		m.inputs[i].Reset()
	}
	m.selected = -1
	m.errors = nil
	m.tracker.TrackReset()
	return m, m.setFocus(fieldDistance)
}

// Request builds a prediction request from the current field values
func (m FormModel) Request() service.Request {
	req := service.Request{
		Hours:   float64(analysis.ParseTimeInput(m.inputs[fieldHours].Value(), 0)),
		Minutes: float64(analysis.ParseTimeInput(m.inputs[fieldMinutes].Value(), 0)),
		Seconds: float64(analysis.ParseTimeInput(m.inputs[fieldSeconds].Value(), 0)),
	}
	if m.selected >= 0 {
		req.Distance = string(m.catalog[m.selected])
	}
	return req
}

func (m FormModel) submit() tea.Msg {
	return SubmitMsg{Request: m.Request()}
}

// SetErrors replaces the messages shown under the form
func (m *FormModel) SetErrors(errs []string) {
	m.errors = errs
}

// Fill loads a race into the form, as after a Strava import
func (m *FormModel) Fill(req service.Request) {
	for i, d := range m.catalog {
		if string(d) == req.Distance {
			m.selected = i
		}
	}
	values := [fieldCount]float64{fieldHours: req.Hours, fieldMinutes: req.Minutes, fieldSeconds: req.Seconds}
	for i := fieldHours; i < fieldCount; i++ {
		m.inputs[i].SetValue(strconv.Itoa(int(values[i])))
		m.clamp(i)
	}
	m.errors = nil
}

// editing reports whether keystrokes are going to a text field
func (m FormModel) editing() bool {
	return m.focus != fieldDistance
}

// View renders the form
func (m FormModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Enter a Recent Race"))
	sections = append(sections, m.renderDistances())
	sections = append(sections, m.renderTime())

	if len(m.errors) > 0 {
		var lines []string
		for _, e := range m.errors {
			lines = append(lines, errorStyle.Render("• "+e))
		}
		sections = append(sections, "\n"+strings.Join(lines, "\n"))
	}

	sections = append(sections, "\n"+RenderKeyHelp("tab", "next field")+"  "+
		RenderKeyHelp("←/→", "choose distance")+"  "+
		RenderKeyHelp("enter", "calculate")+"  "+
		RenderKeyHelp("ctrl+r", "reset"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m FormModel) renderDistances() string {
	label := fieldLabelStyle.Render("Distance")
	if m.focus == fieldDistance {
		label = fieldFocusedStyle.Render("Distance")
	}

	choices := make([]string, 0, len(m.catalog))
	for i, d := range m.catalog {
		if i == m.selected {
			choices = append(choices, choiceSelectedStyle.Render(d.Label()))
		} else {
			choices = append(choices, choiceStyle.Render(d.Label()))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, label, strings.Join(choices, " "))
}

func (m FormModel) renderTime() string {
	label := fieldLabelStyle.Render("Time")
	if m.focus != fieldDistance {
		label = fieldFocusedStyle.Render("Time")
	}

	fields := make([]string, 0, 3)
	for i := fieldHours; i < fieldCount; i++ {
		fields = append(fields, m.inputs[i].View())
	}

	return "\n" + label + strings.Join(fields, mutedStyle.Render(" : "))
}
