package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	jobsdto "camwatch/internal/modules/jobs/dto"
	monitordto "camwatch/internal/modules/monitor/dto"
	apperrors "camwatch/internal/platform/errors"
	"camwatch/internal/ui/components"
	"camwatch/internal/ui/theme"
	historyview "camwatch/internal/ui/views/history"
	jobview "camwatch/internal/ui/views/job"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type monitorPort interface {
	Start(ctx context.Context, input monitordto.StartInput) (monitordto.StartOutput, error)
	Resume(ctx context.Context) (monitordto.ResumeOutput, error)
	Stop(ctx context.Context) error
	Dismiss(ctx context.Context) error
	History(ctx context.Context, input monitordto.HistoryInput) ([]monitordto.HistoryOutput, error)
}

type jobsPort interface {
	StartDirectDownload(ctx context.Context, input jobsdto.SearchInput) (jobsdto.StartOutput, error)
	ExecuteBackup(ctx context.Context, configID string) (jobsdto.StartOutput, error)
	CancelBatch(ctx context.Context, batchID string) (jobsdto.CancelOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabJob tabID = iota
	tabHistory
	tabCount
)

var tabLabels = [tabCount]string{"Job", "History"}

// hints must stay in sync with the switch in executePalette.
var paletteHints = []string{
	"watch <jobId>",
	"resume",
	"stop",
	"dismiss",
	"direct <start> <end> [pageSize]",
	"backup <configId>",
	"cancel <batchId>",
	"history",
}

// ─── async messages ───────────────────────────────────────────────────────────

type resumedMsg struct {
	out monitordto.ResumeOutput
	err error
}

type watchStartedMsg struct {
	jobID string
	err   error
}

type jobStartedMsg struct {
	what string
	out  jobsdto.StartOutput
	err  error
}

type clearedMsg struct {
	what string
	err  error
}

type cancelledMsg struct {
	out jobsdto.CancelOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Resume  key.Binding
	Dismiss key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Resume:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
		Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Palette, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Palette},
		{k.Resume, k.Dismiss},
		{k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It hosts the progress panel and the
// history list; monitor events arrive through ProgramSink.
type Model struct {
	monitor monitorPort
	jobs    jobsPort

	jobView     jobview.Model
	historyView historyview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// NewModel wires the views to the use-cases. jobs may be nil, which disables
// the producer commands.
func NewModel(monitor monitorPort, jobs jobsPort) Model {
	return Model{
		monitor:     monitor,
		jobs:        jobs,
		jobView:     jobview.New(),
		historyView: historyview.New(monitor),
		activeTab:   tabJob,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(paletteHints),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.jobView.Init(), m.historyView.Init(), m.resumeCmd())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
		m.jobView, _ = m.jobView.Update(sz)
		m.historyView, _ = m.historyView.Update(sz)
		return m, nil

	case resumedMsg:
		switch {
		case msg.err != nil:
			m.status = "resume failed: " + msg.err.Error()
		case msg.out.Resumed:
			m.status = "resumed " + msg.out.JobID
		default:
			m.status = "no job to resume"
		}
		return m, nil

	case watchStartedMsg:
		if msg.err != nil {
			m.status = "watch failed: " + msg.err.Error()
			m.jobView, _ = m.jobView.Update(jobview.ClearedMsg{})
		} else if m.jobView.Tracking() {
			m.status = "tracking " + msg.jobID
		}
		return m, nil

	case jobStartedMsg:
		switch {
		case msg.err != nil:
			m.status = msg.what + " failed: " + msg.err.Error()
		case msg.out.Message != "":
			m.status = msg.out.Message
		default:
			m.status = fmt.Sprintf("%s started as %s", msg.what, msg.out.JobID)
		}
		return m, nil

	case clearedMsg:
		if msg.err != nil {
			m.status = msg.what + " failed: " + msg.err.Error()
			return m, nil
		}
		m.status = msg.what
		m.jobView, _ = m.jobView.Update(jobview.ClearedMsg{})
		return m, nil

	case cancelledMsg:
		if msg.err != nil {
			m.status = "cancel failed: " + msg.err.Error()
		} else {
			m.status = msg.out.Message
		}
		return m, nil

	case jobview.TerminalMsg:
		m.status = fmt.Sprintf("%s finished: %s", msg.Model.JobID, msg.Model.Outcome)
		var cmd tea.Cmd
		m.jobView, cmd = m.jobView.Update(msg)
		return m, tea.Batch(cmd, m.historyView.Reload())

	case jobview.AbandonedMsg:
		m.status = "tracking lost: " + msg.JobID
		m.jobView, _ = m.jobView.Update(msg)
		return m, nil

	case jobview.ProgressMsg:
		var cmd tea.Cmd
		m.jobView, cmd = m.jobView.Update(msg)
		return m, cmd

	case historyview.LoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabHistory && m.historyView.Filtering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "r":
			return m, m.resumeCmd()
		case "x":
			return m, m.dismissCmd()
		}
	}

	// Spinners tick in both views regardless of the visible tab.
	if _, ok := msg.(spinner.TickMsg); ok {
		var jobCmd, historyCmd tea.Cmd
		m.jobView, jobCmd = m.jobView.Update(msg)
		m.historyView, historyCmd = m.historyView.Update(msg)
		return m, tea.Batch(jobCmd, historyCmd)
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabJob:
		m.jobView, tabCmd = m.jobView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	}
	return m, tabCmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabHistory:
		content = m.historyView.View()
	default:
		content = m.jobView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := " " + tabLabels[i] + " "
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(label)
		} else {
			parts[i] = theme.Muted.Render(label)
		}
	}
	bar := "camwatch  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.jobView.Tracking() {
		left = theme.Hot.Render("● "+m.jobView.JobID()) + "  " + left
	}
	right := m.help.View(m.keys)
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "watch":
		if len(parts) != 2 {
			m.status = "usage: watch <jobId>"
			return m, nil
		}
		m.activeTab = tabJob
		// Set the panel up first: Start emits the first update before it returns.
		m.jobView, _ = m.jobView.Update(jobview.TrackingMsg{JobID: parts[1]})
		return m, m.watchCmd(parts[1])

	case "resume":
		return m, m.resumeCmd()

	case "stop":
		return m, m.stopCmd()

	case "dismiss":
		return m, m.dismissCmd()

	case "direct":
		if len(parts) < 3 {
			m.status = "usage: direct <start> <end> [pageSize]"
			return m, nil
		}
		input := jobsdto.SearchInput{StartTime: parts[1], EndTime: parts[2]}
		if len(parts) >= 4 {
			size, err := strconv.Atoi(parts[3])
			if err != nil {
				m.status = "invalid page size"
				return m, nil
			}
			input.PageSize = size
		}
		m.activeTab = tabJob
		return m, m.producerCmd("direct download", func(ctx context.Context) (jobsdto.StartOutput, error) {
			return m.jobs.StartDirectDownload(ctx, input)
		})

	case "backup":
		if len(parts) != 2 {
			m.status = "usage: backup <configId>"
			return m, nil
		}
		m.activeTab = tabJob
		configID := parts[1]
		return m, m.producerCmd("backup", func(ctx context.Context) (jobsdto.StartOutput, error) {
			return m.jobs.ExecuteBackup(ctx, configID)
		})

	case "cancel":
		if len(parts) != 2 {
			m.status = "usage: cancel <batchId>"
			return m, nil
		}
		return m, m.cancelCmd(parts[1])

	case "history":
		m.activeTab = tabHistory
		return m, m.historyView.Reload()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) resumeCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.monitor.Resume(context.Background())
		return resumedMsg{out: out, err: err}
	}
}

func (m Model) watchCmd(jobID string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.monitor.Start(context.Background(), monitordto.StartInput{JobID: jobID})
		return watchStartedMsg{jobID: out.JobID, err: err}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		return clearedMsg{what: "stopped", err: m.monitor.Stop(context.Background())}
	}
}

func (m Model) dismissCmd() tea.Cmd {
	return func() tea.Msg {
		return clearedMsg{what: "dismissed", err: m.monitor.Dismiss(context.Background())}
	}
}

func (m Model) producerCmd(what string, call func(ctx context.Context) (jobsdto.StartOutput, error)) tea.Cmd {
	return func() tea.Msg {
		if m.jobs == nil {
			return jobStartedMsg{what: what, err: errors.New("appliance client not configured")}
		}
		out, err := call(context.Background())
		return jobStartedMsg{what: what, out: out, err: err}
	}
}

func (m Model) cancelCmd(batchID string) tea.Cmd {
	return func() tea.Msg {
		if m.jobs == nil {
			return cancelledMsg{err: errors.New("appliance client not configured")}
		}
		out, err := m.jobs.CancelBatch(context.Background(), batchID)
		if errors.Is(err, apperrors.ErrJobNotFound) {
			err = fmt.Errorf("batch %s not found", batchID)
		}
		return cancelledMsg{out: out, err: err}
	}
}
