package tui

import (
	"racepredictor/internal/service"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// BackMsg asks the app to return to the form
type BackMsg struct{}

// ResultsModel shows a prediction result
type ResultsModel struct {
	result   *service.Result
	units    Units
	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

// NewResultsModel creates a results screen for result
func NewResultsModel(result *service.Result, units Units, width, height int) ResultsModel {
	m := ResultsModel{
		result: result,
		units:  units,
		width:  width,
		height: height,
	}
	if width > 0 && height > 0 {
		m.initViewport()
	}
	return m
}

func (m *ResultsModel) initViewport() {
	m.viewport = viewport.New(m.width, m.height-6)
	m.viewport.SetContent(m.renderContent())
	m.ready = true
}

// Init initializes the results screen
func (m ResultsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "b", "esc", "backspace":
			return m, func() tea.Msg { return BackMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.initViewport()
		return m, nil
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the results screen
func (m ResultsModel) View() string {
	if m.result == nil {
		return mutedStyle.Render("No prediction yet")
	}
	if !m.ready {
		return m.renderContent()
	}
	return m.viewport.View()
}

func (m ResultsModel) renderContent() string {
	width := m.width
	if width <= 0 {
		width = 60
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		cardTitleStyle.Render("Your Predictions"),
		RenderSummary(m.result, m.units),
		"",
		sectionHeader("Predicted Times", min(width, 60)),
		RenderPredictionTable(m.result, m.units),
		sectionHeader("Pace", min(width, 60)),
		RenderPaceChart(m.result, m.units, width-10),
		"",
		RenderKeyHelp("b / esc", "back to form")+"  "+RenderKeyHelp("j / k", "scroll"),
	)
}
