package domain

import "time"

const (
	KeyActiveJobID = "monitor.active_job_id"
	KeyStartedAtMs = "monitor.started_at_ms"
)

// TrackedSession is the minimal record needed to resume polling after a restart.
type TrackedSession struct {
	JobID     string
	StartedAt time.Time
}

type State string

const (
	StateIdle       State = "IDLE"
	StatePolling    State = "POLLING"
	StateTerminated State = "TERMINATED"
	StateAbandoned  State = "ABANDONED"
)

// HistoryEntry records how a tracked job ended.
type HistoryEntry struct {
	JobID      string
	Outcome    Outcome
	Completed  int
	Failed     int
	Total      int
	FinishedAt time.Time
}

// Snapshot is the in-memory view of the monitor.
type Snapshot struct {
	Session *TrackedSession
	State   State
	Last    *ProgressModel
}
