package job

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	monitordto "camwatch/internal/modules/monitor/dto"
	"camwatch/internal/ui/theme"
)

// ─── messages ────────────────────────────────────────────────────────────────

// ProgressMsg carries a non-terminal or terminal progress update.
type ProgressMsg struct{ Model monitordto.Progress }

// TerminalMsg follows the final ProgressMsg of a job.
type TerminalMsg struct{ Model monitordto.Progress }

// AbandonedMsg reports that the appliance no longer knows the job.
type AbandonedMsg struct{ JobID string }

// TrackingMsg announces a newly tracked job before its first update lands.
type TrackingMsg struct{ JobID string }

// ClearedMsg resets the panel after stop or dismiss.
type ClearedMsg struct{}

// ─── model ───────────────────────────────────────────────────────────────────

type phase int

const (
	phaseIdle phase = iota
	phaseTracking
	phaseDone
	phaseAbandoned
)

// Model renders the progress panel for the tracked job.
type Model struct {
	phase   phase
	jobID   string
	last    monitordto.Progress
	hasLast bool
	overall progress.Model
	item    progress.Model
	spinner spinner.Model
	results viewport.Model
	width   int
	height  int
}

func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		overall: progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Lavender))),
		item:    progress.New(progress.WithSolidFill(string(theme.Green))),
		spinner: sp,
		results: viewport.New(0, 0),
	}
}

func (m Model) Init() tea.Cmd { return m.spinner.Tick }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case TrackingMsg:
		m.phase = phaseTracking
		m.jobID = msg.JobID
		m.hasLast = false
		m.last = monitordto.Progress{}
		m.results.SetContent("")

	case ProgressMsg:
		if m.phase != phaseDone || msg.Model.JobID != m.jobID {
			m.phase = phaseTracking
		}
		m.jobID = msg.Model.JobID
		m.last = msg.Model
		m.hasLast = true

	case TerminalMsg:
		m.jobID = msg.Model.JobID
		m.last = msg.Model
		m.hasLast = true
		m.phase = phaseDone
		m.results.SetContent(renderResults(msg.Model))
		m.results.GotoTop()

	case AbandonedMsg:
		m.phase = phaseAbandoned
		m.jobID = msg.JobID

	case ClearedMsg:
		m.phase = phaseIdle
		m.jobID = ""
		m.hasLast = false
		m.last = monitordto.Progress{}
		m.results.SetContent("")

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.phase == phaseDone {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Tracking reports whether a job is being polled.
func (m Model) Tracking() bool { return m.phase == phaseTracking }

func (m Model) JobID() string { return m.jobID }

func (m Model) View() string {
	var body string
	switch m.phase {
	case phaseIdle:
		body = theme.Muted.Render("No job tracked. Press : and type watch <jobId>, or resume.")
	case phaseAbandoned:
		body = theme.Title.Render("Job "+m.jobID) + "\n\n" +
			theme.Failure.Render("Tracking lost") + "\n" +
			theme.Muted.Render("The appliance no longer knows this job. It may have been cleaned up or the appliance restarted.")
	default:
		body = m.renderProgress()
	}
	return theme.Pane.Width(max(m.width-2, 20)).Render(body)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	barW := max(m.width-12, 10)
	m.overall.Width = barW
	m.item.Width = barW
	m.results.Width = max(m.width-8, 10)
	m.results.Height = max(m.height-16, 3)
}

func (m Model) renderProgress() string {
	var sb strings.Builder
	header := theme.Title.Render("Job " + m.jobID)
	if m.phase == phaseTracking {
		header = m.spinner.View() + " " + header
	}
	sb.WriteString(header + "\n\n")

	if !m.hasLast {
		sb.WriteString(theme.Muted.Render("waiting for first status…"))
		return sb.String()
	}
	p := m.last

	label := p.OverallLabel
	if p.IsTerminal {
		label = theme.Outcome(string(p.Outcome)).Render(string(p.Outcome)) + "  " + label
	}
	sb.WriteString(label + "\n")
	sb.WriteString(m.overall.ViewAs(float64(p.OverallPercent)/100) + "\n")
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("done %d  active %d  queued %d  failed %d  elapsed %s",
		p.Summary.Completed, p.Summary.Active, p.Summary.Queued, p.Summary.Failed, p.ElapsedLabel)) + "\n")

	if item := p.ActiveItem; item != nil && !p.IsTerminal {
		sb.WriteString("\n" + theme.Hot.Render(item.Label) + "\n")
		sb.WriteString(m.item.ViewAs(item.Percent/100) + "\n")
		detail := fmt.Sprintf("%s  eta %s", item.RateLabel, item.ETALabel)
		if item.BytesLabel != "" {
			detail += "  " + item.BytesLabel
		}
		sb.WriteString(theme.Muted.Render(detail) + "\n")
	}

	if m.phase == phaseDone {
		sb.WriteString("\n" + m.results.View())
	}
	return sb.String()
}

func renderResults(p monitordto.Progress) string {
	var sb strings.Builder
	for _, item := range p.Items {
		name := item.Name
		if name == "" {
			name = item.ID
		}
		switch string(item.Status) {
		case "COMPLETED":
			line := theme.Success.Render("✓") + " " + name
			if item.ResultURI != "" {
				line += theme.Muted.Render("  " + item.ResultURI)
			}
			sb.WriteString(line + "\n")
		case "FAILED":
			sb.WriteString(theme.Failure.Render("✗") + " " + name + theme.Muted.Render("  "+item.ErrorMessage) + "\n")
		default:
			sb.WriteString(theme.Muted.Render("· "+name+"  "+strings.ToLower(string(item.Status))) + "\n")
		}
	}
	return sb.String()
}
