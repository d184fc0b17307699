package preview

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobfeeds/internal/model"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type testDoneMsg struct {
	result model.ConnectionResult
}

type spinnerTickMsg struct{}

// TestFunc runs a connection test for the chosen feed.
type TestFunc func(ctx context.Context) model.ConnectionResult

type loaderModel struct {
	feedName  string
	testFn    TestFunc
	frame     int
	result    model.ConnectionResult
	cancelled bool
	done      bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.runTest(), m.tick())
}

func (m loaderModel) runTest() tea.Cmd {
	testFn := m.testFn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return testDoneMsg{result: testFn(ctx)}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case testDoneMsg:
		m.result = msg.result
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s Testing %s...\n", spinner, m.feedName)
}

// RunLoader shows a spinner while testFn runs. It renders inline (no alt screen).
func RunLoader(feedName string, testFn TestFunc) (model.ConnectionResult, error) {
	p := tea.NewProgram(loaderModel{feedName: feedName, testFn: testFn})
	result, err := p.Run()
	if err != nil {
		return model.ConnectionResult{}, err
	}
	final := result.(loaderModel)
	if final.cancelled {
		return model.ConnectionResult{}, fmt.Errorf("cancelled")
	}
	return final.result, nil
}
