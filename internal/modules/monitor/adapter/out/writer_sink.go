package out

import (
	"fmt"
	"io"
	"strings"

	"camwatch/internal/modules/monitor/domain"
)

// WriterSink prints one plain line per event, for non-interactive terminals.
type WriterSink struct {
	w io.Writer
}

func NewWriterSink(w io.Writer) WriterSink {
	return WriterSink{w: w}
}

func (s WriterSink) OnProgress(m domain.ProgressModel) {
	fmt.Fprintln(s.w, FormatProgressLine(m))
}

func (s WriterSink) OnTerminal(m domain.ProgressModel) {
	fmt.Fprintf(s.w, "[%s] %s: %s (%s)\n", m.JobID, m.Outcome, m.OverallLabel, m.ElapsedLabel)
	for _, item := range m.Items {
		switch item.Status {
		case domain.SubJobFailed:
			fmt.Fprintf(s.w, "  x %s: %s\n", itemName(item), item.ErrorMessage)
		case domain.SubJobCompleted:
			if item.ResultURI != "" {
				fmt.Fprintf(s.w, "  ok %s -> %s\n", itemName(item), item.ResultURI)
			} else {
				fmt.Fprintf(s.w, "  ok %s\n", itemName(item))
			}
		}
	}
}

func (s WriterSink) OnAbandoned(jobID string) {
	fmt.Fprintf(s.w, "[%s] tracking lost: job no longer known to appliance\n", jobID)
}

// FormatProgressLine renders a compact single-line summary of m.
func FormatProgressLine(m domain.ProgressModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %3d%% %s", m.JobID, m.OverallPercent, m.OverallLabel)
	if item := m.ActiveItem; item != nil {
		fmt.Fprintf(&b, " | %s %.0f%% %s eta %s", item.Label, item.Percent, item.RateLabel, item.ETALabel)
		if item.BytesLabel != "" {
			fmt.Fprintf(&b, " (%s)", item.BytesLabel)
		}
	}
	fmt.Fprintf(&b, " | done %d active %d queued %d failed %d | %s",
		m.Summary.Completed, m.Summary.Active, m.Summary.Queued, m.Summary.Failed, m.ElapsedLabel)
	return b.String()
}

func itemName(item domain.Item) string {
	if item.Name != "" {
		return item.Name
	}
	return item.ID
}
