package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	monitordto "camwatch/internal/modules/monitor/dto"
	"camwatch/internal/ui/views/job"
)

// ProgramSink forwards monitor events into a running Bubble Tea program.
// Events raised before Attach are dropped.
type ProgramSink struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

func NewProgramSink() *ProgramSink {
	return &ProgramSink{}
}

// Attach routes subsequent events to p.
func (s *ProgramSink) Attach(p *tea.Program) {
	s.AttachFunc(p.Send)
}

// AttachFunc routes subsequent events to send.
func (s *ProgramSink) AttachFunc(send func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = send
}

func (s *ProgramSink) OnProgress(m monitordto.Progress) {
	s.dispatch(job.ProgressMsg{Model: m})
}

func (s *ProgramSink) OnTerminal(m monitordto.Progress) {
	s.dispatch(job.TerminalMsg{Model: m})
}

func (s *ProgramSink) OnAbandoned(jobID string) {
	s.dispatch(job.AbandonedMsg{JobID: jobID})
}

func (s *ProgramSink) dispatch(msg tea.Msg) {
	s.mu.RLock()
	send := s.send
	s.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}
