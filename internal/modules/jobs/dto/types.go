package dto

import "time"

// RecordingInput matches the appliance's search result JSON, so a saved
// search response can be fed straight into a batch download.
type RecordingInput struct {
	RecordingID string `json:"recordingId"`
	TrackID     string `json:"trackId"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Duration    string `json:"duration"`
	Codec       string `json:"codec"`
	PlaybackURL string `json:"playbackUrl"`
	FileSize    string `json:"fileSize"`
}

type SearchInput struct {
	StartTime string
	EndTime   string
	Page      int
	PageSize  int
}

type StartOutput struct {
	JobID     string
	StatusURL string
	Total     int
	Message   string
	Tracking  bool
	StartedAt time.Time
}

type CancelOutput struct {
	JobID   string
	Message string
}
