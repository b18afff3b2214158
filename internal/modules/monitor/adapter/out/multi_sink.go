package out

import (
	"camwatch/internal/modules/monitor/domain"
	monitorout "camwatch/internal/modules/monitor/port/out"
)

// MultiSink fans events out to every sink in order.
type MultiSink []monitorout.Sink

func (m MultiSink) OnProgress(model domain.ProgressModel) {
	for _, s := range m {
		s.OnProgress(model)
	}
}

func (m MultiSink) OnTerminal(model domain.ProgressModel) {
	for _, s := range m {
		s.OnTerminal(model)
	}
}

func (m MultiSink) OnAbandoned(jobID string) {
	for _, s := range m {
		s.OnAbandoned(jobID)
	}
}

// SinkFuncs adapts plain functions to a Sink. Nil fields are ignored.
type SinkFuncs struct {
	Progress  func(domain.ProgressModel)
	Terminal  func(domain.ProgressModel)
	Abandoned func(string)
}

func (f SinkFuncs) OnProgress(model domain.ProgressModel) {
	if f.Progress != nil {
		f.Progress(model)
	}
}

func (f SinkFuncs) OnTerminal(model domain.ProgressModel) {
	if f.Terminal != nil {
		f.Terminal(model)
	}
}

func (f SinkFuncs) OnAbandoned(jobID string) {
	if f.Abandoned != nil {
		f.Abandoned(jobID)
	}
}
