// Package preview is the terminal UI behind `jobfeeds preview`: pick a feed,
// run its connection test and browse the sample jobs.
package preview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobfeeds/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 0, 0, 4)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

const (
	noChoice   = -1
	quitChoice = -2
)

type pickerModel struct {
	feeds  []model.Feed
	cursor int
	chosen int
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.chosen = quitChoice
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.feeds)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.feeds) > 0 {
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func feedLabel(f model.Feed) string {
	label := fmt.Sprintf("%s (%s)", f.Name, f.Provider)
	if !f.Active {
		label += " [inactive]"
	}
	return label
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Feed Preview: select a feed"))
	b.WriteByte('\n')

	if len(m.feeds) == 0 {
		b.WriteString(pickerItemStyle.Render("(no feeds configured)") + "\n")
	}
	for i, f := range m.feeds {
		label := feedLabel(f)
		switch {
		case i == m.cursor:
			b.WriteString(pickerSelectedStyle.Render("> "+label) + "\n")
		case !f.Active:
			b.WriteString(pickerInactiveStyle.Render(label) + "\n")
		default:
			b.WriteString(pickerItemStyle.Render(label) + "\n")
		}
	}

	b.WriteString(pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit"))
	return b.String()
}

// RunFeedPicker shows an interactive feed selector. It returns the index of
// the chosen feed, or -1 if the user quit.
func RunFeedPicker(feeds []model.Feed) (int, error) {
	p := tea.NewProgram(pickerModel{feeds: feeds, chosen: noChoice})
	result, err := p.Run()
	if err != nil {
		return -1, err
	}
	final := result.(pickerModel)
	if final.chosen < 0 {
		return -1, nil
	}
	return final.chosen, nil
}
