package dto

import (
	"time"

	"camwatch/internal/modules/monitor/domain"
)

// Progress is the model pushed to sinks, re-exported for hosts outside the module.
type Progress = domain.ProgressModel

type StartInput struct {
	JobID string
}

type StartOutput struct {
	JobID     string
	StartedAt time.Time
}

type ResumeOutput struct {
	Resumed   bool
	JobID     string
	StartedAt time.Time
}

type ActiveOutput struct {
	JobID     string
	StartedAt time.Time
	State     string
	Last      *Progress
}

type HistoryInput struct {
	Limit int
}

type HistoryOutput struct {
	JobID      string
	Outcome    string
	Completed  int
	Failed     int
	Total      int
	FinishedAt time.Time
}

type Item = domain.Item

type ActiveItem = domain.ActiveItem
