package preview

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobfeeds/internal/extract"
	"github.com/amishk599/jobfeeds/internal/model"
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	failureStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

type sampleView int

const (
	sampleList sampleView = iota
	sampleDetail
)

type samplesModel struct {
	feedName string
	result   model.ConnectionResult
	jobs     []model.Job
	cursor   int
	view     sampleView
	viewport viewport.Model
	width    int
	height   int
	ready    bool
	wantQuit bool
}

func newSamplesModel(feedName string, result model.ConnectionResult) samplesModel {
	return samplesModel{feedName: feedName, result: result, jobs: result.SampleJobs}
}

func (m samplesModel) Init() tea.Cmd {
	return nil
}

func (m samplesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		w, h := max(m.width-4, 20), max(m.height-4, 5)
		if !m.ready {
			m.viewport = viewport.New(w, h)
			m.ready = true
		} else {
			m.viewport.Width, m.viewport.Height = w, h
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.wantQuit = true
			return m, tea.Quit
		case "esc", "backspace":
			if m.view == sampleDetail {
				m.view = sampleList
				m.refresh()
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.view == sampleList {
				m.move(-1)
				return m, nil
			}
		case "down", "j":
			if m.view == sampleList {
				m.move(1)
				return m, nil
			}
		case "enter":
			if m.view == sampleList && len(m.jobs) > 0 {
				m.view = sampleDetail
				m.refresh()
				m.viewport.GotoTop()
				return m, nil
			}
		case "o":
			if len(m.jobs) > 0 && m.jobs[m.cursor].URL != "" {
				openURL(m.jobs[m.cursor].URL)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *samplesModel) move(delta int) {
	if len(m.jobs) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.jobs)-1)
	m.refresh()
}

func (m *samplesModel) refresh() {
	if !m.ready {
		return
	}
	if m.view == sampleDetail {
		m.viewport.SetContent(renderJobDetail(m.jobs[m.cursor], m.viewport.Width))
		return
	}
	m.viewport.SetContent(renderJobs(m.jobs, m.cursor))
}

func (m samplesModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var header string
	if m.result.Success {
		header = headerStyle.Render(fmt.Sprintf("%s: %s", m.feedName, m.result.Message))
	} else {
		header = failureStyle.Render(fmt.Sprintf("%s: %s", m.feedName, m.result.Message))
	}

	body := borderStyle.Width(m.width - 2).Render(m.viewport.View())

	status := " ↑/↓ select  enter detail  o open URL  esc back  q quit"
	if m.view == sampleDetail {
		status = " ↑/↓ scroll  o open URL  esc back  q quit"
	}
	return header + "\n" + body + "\n" + statusBarStyle.Width(m.width).Render(status)
}

func renderJobs(jobs []model.Job, cursor int) string {
	if len(jobs) == 0 {
		return "  (no sample jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		titleSt, subtitleSt, prefix := jobTitleStyle, jobSubtitleStyle, "  "
		if i == cursor {
			titleSt, subtitleSt, prefix = selectedJobTitleStyle, selectedJobSubtitleStyle, "> "
		}

		b.WriteString(prefix + titleSt.Render(j.Title) + "\n")
		b.WriteString(prefix + subtitleSt.Render(subtitle(j)) + "\n")
		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func subtitle(j model.Job) string {
	var parts []string
	for _, p := range []string{j.Company, j.Location, j.Date} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "n/a"
	}
	return strings.Join(parts, " · ")
}

func renderJobDetail(j model.Job, width int) string {
	var b strings.Builder
	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label) + value + "\n")
	}

	addField("Title", j.Title)
	addField("Company", j.Company)
	addField("Location", j.Location)
	addField("Salary", j.Salary)
	addField("Type", j.JobType)
	addField("Date", j.Date)
	addField("URL", j.URL)

	wrap := max(width-2, 20)
	b.WriteString("\n" + dividerStyle.Render(strings.Repeat("─", wrap)) + "\n\n")
	b.WriteString(wordWrap(extract.PlainText(j.Description), wrap))
	b.WriteByte('\n')
	return b.String()
}

// wordWrap wraps text at width runes. Words longer than width are broken.
func wordWrap(text string, width int) string {
	width = max(width, 1)
	var lines []string
	var line []rune
	for _, w := range strings.Fields(text) {
		word := []rune(w)
		for len(word) > 0 {
			switch {
			case len(line) == 0 && len(word) <= width:
				line, word = word, nil
			case len(line) > 0 && len(line)+1+len(word) <= width:
				line = append(append(line, ' '), word...)
				word = nil
			case len(line) > 0:
				lines = append(lines, string(line))
				line = nil
			default:
				lines = append(lines, string(word[:width]))
				word = word[width:]
			}
		}
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return strings.Join(lines, "\n")
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunSamples shows a connection test result and its sample jobs. It returns
// wantQuit=true if the user pressed q, false if they pressed esc to go back
// to the picker.
func RunSamples(feedName string, result model.ConnectionResult) (bool, error) {
	p := tea.NewProgram(newSamplesModel(feedName, result), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(samplesModel).wantQuit, nil
}
