package tui

import (
	"testing"

	"racepredictor/internal/analysis"
	"racepredictor/internal/service"

	tea "github.com/charmbracelet/bubbletea"
)

func typeKeys(m FormModel, s string) FormModel {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(FormModel)
	}
	return m
}

func pressKey(m FormModel, key tea.KeyType) (FormModel, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	return next.(FormModel), cmd
}

func TestFormClampsFields(t *testing.T) {
	tests := []struct {
		name  string
		field int
		typed string
		want  string
	}{
		{"hours above 23", fieldHours, "99", "23"},
		{"hours in range", fieldHours, "07", "07"},
		{"minutes above 59", fieldMinutes, "75", "59"},
		{"seconds above 59", fieldSeconds, "60", "59"},
		{"letters dropped", fieldSeconds, "a4b", "4"},
		{"only letters", fieldMinutes, "xy", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFormModel(analysis.CanonicalCatalog, nil)
			m.setFocus(tt.field)
			m = typeKeys(m, tt.typed)

			if got := m.inputs[tt.field].Value(); got != tt.want {
				t.Errorf("typed %q, field = %q, want %q", tt.typed, got, tt.want)
			}
		})
	}
}

func TestFormDistanceSelection(t *testing.T) {
	m := NewFormModel(analysis.CanonicalCatalog, nil)
	if m.Request().Distance != "" {
		t.Fatalf("new form has distance %q", m.Request().Distance)
	}

	m, _ = pressKey(m, tea.KeyRight)
	if got := m.Request().Distance; got != string(analysis.Distance1500) {
		t.Errorf("after right, distance = %q, want 1500", got)
	}

	m, _ = pressKey(m, tea.KeyLeft)
	m, _ = pressKey(m, tea.KeyLeft)
	if got := m.Request().Distance; got != string(analysis.Distance1500) {
		t.Errorf("left past the start, distance = %q, want 1500", got)
	}

	for range len(analysis.CanonicalCatalog) + 2 {
		m, _ = pressKey(m, tea.KeyRight)
	}
	if got := m.Request().Distance; got != string(analysis.DistanceMarathon) {
		t.Errorf("right past the end, distance = %q, want M", got)
	}
}

func TestFormSubmit(t *testing.T) {
	m := NewFormModel(analysis.CanonicalCatalog, nil)
	m.Fill(service.Request{Hours: 0, Minutes: 19, Seconds: 57, Distance: "5K"})

	_, cmd := pressKey(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	msg, ok := cmd().(SubmitMsg)
	if !ok {
		t.Fatalf("enter produced %T, want SubmitMsg", cmd())
	}

	want := service.Request{Hours: 0, Minutes: 19, Seconds: 57, Distance: "5K"}
	if msg.Request != want {
		t.Errorf("submitted %+v, want %+v", msg.Request, want)
	}
}

func TestFormReset(t *testing.T) {
	m := NewFormModel(analysis.CanonicalCatalog, nil)
	m.Fill(service.Request{Hours: 1, Minutes: 30, Distance: "HM"})
	m.SetErrors([]string{"Please enter a valid time."})
	m.setFocus(fieldMinutes)

	m, _ = pressKey(m, tea.KeyCtrlR)

	if m.selected != -1 || m.focus != fieldDistance || len(m.errors) != 0 {
		t.Errorf("after reset: selected=%d focus=%d errors=%q", m.selected, m.focus, m.errors)
	}
	for i := fieldHours; i < fieldCount; i++ {
		if v := m.inputs[i].Value(); v != "" {
			t.Errorf("field %d = %q after reset", i, v)
		}
	}
}
