package job_test

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"camwatch/internal/modules/monitor/domain"
	monitordto "camwatch/internal/modules/monitor/dto"
	"camwatch/internal/ui/views/job"
)

func sized() job.Model {
	m := job.New()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func TestIdlePanelPromptsForJob(t *testing.T) {
	t.Parallel()
	m := sized()
	if m.Tracking() {
		t.Fatalf("new panel must be idle")
	}
	if !strings.Contains(m.View(), "No job tracked") {
		t.Fatalf("idle view missing prompt: %q", m.View())
	}
}

func TestProgressAndTerminalRendering(t *testing.T) {
	t.Parallel()
	m := sized()
	m, _ = m.Update(job.TrackingMsg{JobID: "b-7"})
	if !m.Tracking() || !strings.Contains(m.View(), "waiting for first status") {
		t.Fatalf("tracking view wrong: %q", m.View())
	}

	m, _ = m.Update(job.ProgressMsg{Model: monitordto.Progress{
		JobID:          "b-7",
		OverallPercent: 33,
		OverallLabel:   "1 of 3 complete",
		ElapsedLabel:   "0:42",
		ActiveItem:     &domain.ActiveItem{Label: "cam-2", Percent: 45, RateLabel: "1.0 MiB/s", ETALabel: "2m 17s"},
		Summary:        domain.Summary{Completed: 1, Active: 1, Queued: 1},
	}})
	view := m.View()
	for _, want := range []string{"Job b-7", "1 of 3 complete", "cam-2", "2m 17s", "elapsed 0:42"} {
		if !strings.Contains(view, want) {
			t.Fatalf("progress view missing %q:\n%s", want, view)
		}
	}

	final := monitordto.Progress{
		JobID:          "b-7",
		OverallPercent: 100,
		OverallLabel:   "2 of 3 complete, 1 failed",
		ElapsedLabel:   "1:10",
		IsTerminal:     true,
		Outcome:        domain.OutcomePartial,
		Items: []domain.Item{
			{ID: "r1", Name: "cam-1", Status: domain.SubJobCompleted, ResultURI: "/files/r1.mp4"},
			{ID: "r2", Status: domain.SubJobFailed, ErrorMessage: "disk full"},
		},
	}
	m, _ = m.Update(job.ProgressMsg{Model: final})
	m, _ = m.Update(job.TerminalMsg{Model: final})
	if m.Tracking() {
		t.Fatalf("terminal panel must stop tracking")
	}
	view = m.View()
	for _, want := range []string{"PARTIAL", "/files/r1.mp4", "r2", "disk full"} {
		if !strings.Contains(view, want) {
			t.Fatalf("terminal view missing %q:\n%s", want, view)
		}
	}
}

func TestAbandonedAndCleared(t *testing.T) {
	t.Parallel()
	m := sized()
	m, _ = m.Update(job.TrackingMsg{JobID: "b-9"})
	m, _ = m.Update(job.AbandonedMsg{JobID: "b-9"})
	if !strings.Contains(m.View(), "Tracking lost") {
		t.Fatalf("abandoned view wrong: %q", m.View())
	}
	m, _ = m.Update(job.ClearedMsg{})
	if m.JobID() != "" || !strings.Contains(m.View(), "No job tracked") {
		t.Fatalf("cleared view wrong: %q", m.View())
	}
}
