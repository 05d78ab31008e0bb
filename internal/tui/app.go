package tui

import (
	"context"
	"errors"
	"time"

	"racepredictor/internal/analysis"
	"racepredictor/internal/analytics"
	"racepredictor/internal/service"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenForm
	ScreenCalculating
	ScreenResults
	ScreenHelp
)

// TableLoader loads the VDOT table the predictor reads from
type TableLoader interface {
	Load(ctx context.Context) (*analysis.Table, error)
	Describe() string
}

// AppConfig holds the dependencies for NewApp
type AppConfig struct {
	Tables      TableLoader
	Predictor   *service.Predictor
	Tracker     *analytics.Tracker
	Units       Units
	ResultDelay time.Duration
	Prefill     *service.Request
}

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	form    FormModel
	results ResultsModel
	help    HelpModel
	spinner spinner.Model

	// Services
	tables    TableLoader
	predictor *service.Predictor
	tracker   *analytics.Tracker
	units     Units
	delay     time.Duration

	loadErr error

	// Window dimensions
	width  int
	height int

	// Status message
	status string
}

// NewApp creates a new App with all dependencies
func NewApp(cfg AppConfig) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = vdotStyle

	form := NewFormModel(cfg.Predictor.Catalog(), cfg.Tracker)
	if cfg.Prefill != nil {
		form.Fill(*cfg.Prefill)
	}

	return &App{
		screen:    ScreenLoading,
		form:      form,
		help:      NewHelpModel(),
		spinner:   s,
		tables:    cfg.Tables,
		predictor: cfg.Predictor,
		tracker:   cfg.Tracker,
		units:     cfg.Units,
		delay:     cfg.ResultDelay,
	}
}

// Messages

type tableLoadedMsg struct {
	err error
}

// TableReloadedMsg is sent from outside the program when the table file
// changes. Err is set when the new file failed to load and the previous
// table is still in use.
type TableReloadedMsg struct {
	Table *analysis.Table
	Err   error
}

type resultReadyMsg struct {
	result *service.Result
}

func (a *App) loadTable() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), service.TableFetchTimeout)
	defer cancel()

	_, err := a.tables.Load(ctx)
	return tableLoadedMsg{err: err}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadTable)
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.screen != ScreenForm || !a.form.editing() {
				return a, tea.Quit
			}
		case "?":
			if a.screen != ScreenHelp && a.screen != ScreenLoading {
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			}
		case "esc":
			if a.screen == ScreenHelp {
				a.screen = a.prevScreen
				return a, nil
			}
		case "r":
			if a.screen == ScreenLoading && a.loadErr != nil {
				a.loadErr = nil
				return a, tea.Batch(a.spinner.Tick, a.loadTable)
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case spinner.TickMsg:
		if a.screen != ScreenLoading && a.screen != ScreenCalculating {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tableLoadedMsg:
		if msg.err != nil {
			a.loadErr = msg.err
			return a, nil
		}
		a.screen = ScreenForm
		a.status = "Loaded VDOT table from " + a.tables.Describe()
		return a, tea.Batch(a.form.Init(), a.form.setFocus(a.form.focus))

	case TableReloadedMsg:
		if msg.Err != nil {
			a.status = errorStyle.Render("Reload failed, keeping previous table: " + msg.Err.Error())
			return a, nil
		}
		a.status = "Reloaded VDOT table from " + a.tables.Describe()
		return a, nil

	case SubmitMsg:
		return a, a.calculate(msg.Request)

	case resultReadyMsg:
		a.showResults(msg.result)
		return a, nil

	case BackMsg:
		a.tracker.TrackBackToForm()
		a.screen = ScreenForm
		a.status = ""
		return a, nil
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenForm:
		var m tea.Model
		m, cmd = a.form.Update(msg)
		a.form = m.(FormModel)
	case ScreenResults:
		var m tea.Model
		m, cmd = a.results.Update(msg)
		a.results = m.(ResultsModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// calculate runs a prediction and either shows the errors on the form or
// waits out the result delay before switching to the results
func (a *App) calculate(req service.Request) tea.Cmd {
	result, err := a.predictor.Predict(req)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			a.form.SetErrors(validationErr.Messages)
		} else {
			a.form.SetErrors([]string{err.Error()})
		}
		return nil
	}

	a.form.SetErrors(nil)
	if a.delay <= 0 {
		a.showResults(result)
		return nil
	}

	a.screen = ScreenCalculating
	return tea.Batch(a.spinner.Tick, tea.Tick(a.delay, func(time.Time) tea.Msg {
		return resultReadyMsg{result: result}
	}))
}

func (a *App) showResults(result *service.Result) {
	a.results = NewResultsModel(result, a.units, a.width, a.height)
	a.screen = ScreenResults
	a.tracker.TrackResultsView(string(result.Distance), len(result.Predictions))
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenLoading:
		content = a.renderLoading()
	case ScreenForm:
		content = a.form.View()
	case ScreenCalculating:
		content = a.spinner.View() + " Calculating predictions..."
	case ScreenResults:
		content = a.results.View()
	case ScreenHelp:
		content = a.help.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderLoading() string {
	if a.loadErr != nil {
		return errorStyle.Render("Failed to load the VDOT table: "+a.loadErr.Error()) + "\n\n" +
			RenderKeyHelp("r", "retry") + "  " + RenderKeyHelp("q", "quit")
	}
	return a.spinner.View() + " Loading VDOT table from " + a.tables.Describe() + "..."
}

func (a *App) renderHeader() string {
	return headerStyle.Render("VDOT Race Predictor")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"b", "Form", ScreenForm},
		{"enter", "Predictions", ScreenResults},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	if a.screen == ScreenForm {
		return statusStyle.Render(warningStyle.Render("Strategy: ") + a.predictor.Strategy().String())
	}
	return ""
}
