package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/barviz/internal/pipeline"
)

// ProgressModel is the Bubbletea model shown while a batch renders.
type ProgressModel struct {
	spinner  spinner.Model
	progress progress.Model
	status   pipeline.Status
	finished []finishedJob
	total    int
	width    int
	stopping bool
	aborted  bool
	quitting bool
	statusCh <-chan pipeline.Status
	stop     func()
	abort    func()
}

// NewProgress creates a progress view for total jobs fed by statusCh. The
// first quit key calls stop, the second calls abort.
func NewProgress(total int, statusCh <-chan pipeline.Status, stop, abort func()) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	p := progress.New(
		progress.WithScaledGradient("#FF0000", "#0000FF"),
		progress.WithoutPercentage(),
	)

	return ProgressModel{
		spinner:  s,
		progress: p,
		total:    total,
		statusCh: statusCh,
		stop:     stop,
		abort:    abort,
	}
}

// Aborted reports whether the user aborted the batch.
func (m ProgressModel) Aborted() bool { return m.aborted }

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForStatus(),
	)
}

func (m ProgressModel) waitForStatus() tea.Cmd {
	ch := m.statusCh
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return batchDoneMsg{}
		}
		return statusMsg(s)
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !isQuit(msg) {
			return m, nil
		}
		if !m.stopping {
			m.stopping = true
			if m.stop != nil {
				m.stop()
			}
			return m, nil
		}
		m.aborted = true
		m.quitting = true
		if m.abort != nil {
			m.abort()
		}
		return m, tea.Quit

	case statusMsg:
		s := pipeline.Status(msg)
		if s.Phase == pipeline.PhaseDone || s.Err != nil {
			m.finished = append(m.finished, finishedJob{title: s.Title, err: s.Err})
		}
		m.status = s
		return m, m.waitForStatus()

	case batchDoneMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-8, 20), 60)
		return m, nil
	}

	return m, nil
}

func (m ProgressModel) View() string {
	if m.quitting {
		return ""
	}

	header := headerStyle.Render("barviz")
	if m.total > 1 {
		header += helpStyle.Render(fmt.Sprintf("  %d/%d", min(len(m.finished)+1, m.total), m.total))
	}

	lines := "\n"
	lines += "  " + header + "\n"
	lines += "\n"

	for _, j := range m.finished {
		lines += "  " + renderFinished(j) + "\n"
	}

	s := m.status
	if s.Title != "" && s.Phase != pipeline.PhaseDone && s.Err == nil {
		lines += "  " + titleStyle.Render(s.Title) + "\n"
		switch s.Phase {
		case pipeline.PhaseAnalyzing, pipeline.PhaseCapturing:
			lines += "  " + m.progress.ViewAs(s.Fraction()) + fmt.Sprintf("  %.0f%%", s.Fraction()*100) + "\n"
			lines += "  " + statusStyle.Render(s.Phase.String()+"...") + "  " + helpStyle.Render(renderCounts(s)) + "\n"
		default:
			lines += "  " + m.spinner.View() + " " + statusStyle.Render(s.Phase.String()+"...") + "\n"
		}
	} else if len(m.finished) < m.total {
		lines += "  " + m.spinner.View() + " " + statusStyle.Render("Starting...") + "\n"
	}

	lines += "\n  " + helpStyle.Render(helpText(m.stopping)) + "\n"
	return lines
}
