package history

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	monitordto "camwatch/internal/modules/monitor/dto"
	"camwatch/internal/ui/theme"
)

// Port is the slice of the monitor use-case this view reads.
type Port interface {
	History(ctx context.Context, input monitordto.HistoryInput) ([]monitordto.HistoryOutput, error)
}

// LoadedMsg carries a fresh history listing.
type LoadedMsg struct {
	Entries []monitordto.HistoryOutput
	Err     error
}

type entryItem struct {
	entry monitordto.HistoryOutput
}

func (i entryItem) Title() string {
	return theme.Outcome(i.entry.Outcome).Render(i.entry.Outcome) + "  " + i.entry.JobID
}

func (i entryItem) Description() string {
	return fmt.Sprintf("%d/%d done, %d failed  %s",
		i.entry.Completed, i.entry.Total, i.entry.Failed, humanize.Time(i.entry.FinishedAt))
}

func (i entryItem) FilterValue() string { return i.entry.JobID }

type Model struct {
	port    Port
	list    list.Model
	spinner spinner.Model
	loading bool
	err     error
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Finished jobs"
	l.Styles.Title = theme.Title
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, spinner: sp, loading: port != nil}
}

func (m Model) Init() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload fetches the latest entries.
func (m Model) Reload() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := m.port.History(context.Background(), monitordto.HistoryInput{})
		return LoadedMsg{Entries: entries, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height)

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		items := make([]list.Item, len(msg.Entries))
		for i, e := range msg.Entries {
			items[i] = entryItem{entry: e}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	switch {
	case m.port == nil:
		return theme.Muted.Render("History is not configured.")
	case m.loading:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading history…")
	case m.err != nil:
		return theme.Failure.Render("history: " + m.err.Error())
	case len(m.list.Items()) == 0:
		return theme.Muted.Render("No finished jobs yet.")
	}
	return m.list.View()
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}
