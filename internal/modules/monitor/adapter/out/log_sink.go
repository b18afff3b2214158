package out

import (
	"github.com/ternarybob/arbor"

	"camwatch/internal/modules/monitor/domain"
	"camwatch/internal/platform/logging"
)

// LogSink records monitor events as structured log lines, used by the
// headless server.
type LogSink struct {
	logger arbor.ILogger
}

func NewLogSink(logger arbor.ILogger) LogSink {
	return LogSink{logger: logging.OrNop(logger)}
}

func (s LogSink) OnProgress(m domain.ProgressModel) {
	event := s.logger.Debug().
		Str("job", m.JobID).
		Int("percent", m.OverallPercent).
		Int("completed", m.Summary.Completed).
		Int("failed", m.Summary.Failed).
		Str("elapsed", m.ElapsedLabel)
	if m.ActiveItem != nil {
		event = event.Str("item", m.ActiveItem.Label).Str("rate", m.ActiveItem.RateLabel)
	}
	event.Msg(m.OverallLabel)
}

func (s LogSink) OnTerminal(m domain.ProgressModel) {
	s.logger.Info().
		Str("job", m.JobID).
		Str("outcome", string(m.Outcome)).
		Str("elapsed", m.ElapsedLabel).
		Msg(m.OverallLabel)
}

func (s LogSink) OnAbandoned(jobID string) {
	s.logger.Warn().Str("job", jobID).Msg("Tracking lost, job no longer known to appliance")
}
