package preview

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobfeeds/internal/model"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPicker_SelectsFeed(t *testing.T) {
	var m tea.Model = pickerModel{
		feeds:  []model.Feed{{Name: "A", Active: true}, {Name: "B"}, {Name: "C", Active: true}},
		chosen: noChoice,
	}
	for _, k := range []string{"down", "down", "down", "up", "enter"} {
		m, _ = m.Update(key(k))
	}
	if got := m.(pickerModel).chosen; got != 1 {
		t.Errorf("chosen = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "B () [inactive]") {
		t.Errorf("inactive feed not marked:\n%s", m.View())
	}
}

func TestPicker_Quit(t *testing.T) {
	var m tea.Model = pickerModel{feeds: []model.Feed{{Name: "A"}}, chosen: noChoice}
	m, cmd := m.Update(key("q"))
	if m.(pickerModel).chosen != quitChoice || cmd == nil {
		t.Error("q should quit without a choice")
	}
}

func TestPicker_EnterWithoutFeeds(t *testing.T) {
	var m tea.Model = pickerModel{chosen: noChoice}
	m, cmd := m.Update(key("enter"))
	if m.(pickerModel).chosen != noChoice || cmd != nil {
		t.Error("enter on an empty list must do nothing")
	}
}

func TestSamples_Navigation(t *testing.T) {
	result := model.ConnectionResult{
		Success: true,
		Message: "Connection successful. Found 2 jobs.",
		SampleJobs: []model.Job{
			{Title: "Dev Go", Company: "Acme", Description: "<p>Vaga <b>boa</b></p>"},
			{Title: "Analista", Location: "Recife, PE"},
		},
	}
	var m tea.Model = newSamplesModel("Feed", result)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("down"))

	s := m.(samplesModel)
	if s.cursor != 1 {
		t.Fatalf("cursor = %d, want 1 (clamped)", s.cursor)
	}

	m, _ = m.Update(key("up"))
	m, _ = m.Update(key("enter"))
	s = m.(samplesModel)
	if s.view != sampleDetail {
		t.Fatal("enter should open the detail view")
	}
	if !strings.Contains(s.viewport.View(), "Vaga boa") {
		t.Errorf("detail should show plain description:\n%s", s.viewport.View())
	}

	m, _ = m.Update(key("esc"))
	if m.(samplesModel).view != sampleList {
		t.Error("esc should return to the list")
	}
	m, _ = m.Update(key("q"))
	if !m.(samplesModel).wantQuit {
		t.Error("q should request quit")
	}
}

func TestRenderJobs(t *testing.T) {
	if got := renderJobs(nil, 0); !strings.Contains(got, "no sample jobs") {
		t.Errorf("empty render = %q", got)
	}
	out := renderJobs([]model.Job{{Title: "Dev", Company: "Acme", Location: "Natal, RN"}}, 0)
	if !strings.Contains(out, "Acme · Natal, RN") {
		t.Errorf("render = %q", out)
	}
}

func TestWordWrap(t *testing.T) {
	text := "vaga para desenvolvedor com experiência"
	got := wordWrap(text, 12)
	for _, line := range strings.Split(got, "\n") {
		if len([]rune(line)) > 12 {
			t.Errorf("line %q exceeds width", line)
		}
	}
	strip := func(s string) string { return strings.Join(strings.Fields(s), "") }
	if strip(got) != strip(text) {
		t.Errorf("wrapping lost text: %q", got)
	}
	if got := wordWrap("a b c", 3); got != "a b\nc" {
		t.Errorf("wordWrap short words = %q", got)
	}
	if wordWrap("   ", 10) != "" {
		t.Error("blank text should wrap to empty")
	}
}
