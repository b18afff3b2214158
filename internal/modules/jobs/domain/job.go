package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// LocalLayout is the appliance's zone-less timestamp format.
const LocalLayout = "2006-01-02T15:04:05"

const DefaultPageSize = 10

// Recording is one search hit that can be downloaded.
type Recording struct {
	RecordingID string
	TrackID     string
	StartTime   time.Time `validate:"required"`
	EndTime     time.Time `validate:"required"`
	Duration    string
	Codec       string
	PlaybackURL string `validate:"required"`
	FileSize    string
}

type recordingWire struct {
	RecordingID string `json:"recordingId,omitempty"`
	TrackID     string `json:"trackId,omitempty"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Duration    string `json:"duration,omitempty"`
	Codec       string `json:"codec,omitempty"`
	PlaybackURL string `json:"playbackUrl"`
	FileSize    string `json:"fileSize,omitempty"`
}

func (r Recording) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordingWire{
		RecordingID: r.RecordingID,
		TrackID:     r.TrackID,
		StartTime:   r.StartTime.Format(LocalLayout),
		EndTime:     r.EndTime.Format(LocalLayout),
		Duration:    r.Duration,
		Codec:       r.Codec,
		PlaybackURL: r.PlaybackURL,
		FileSize:    r.FileSize,
	})
}

// SearchRequest selects recordings by time range for a direct download.
type SearchRequest struct {
	StartTime time.Time `validate:"required"`
	EndTime   time.Time `validate:"required"`
	Page      int       `validate:"gte=0"`
	PageSize  int       `validate:"gte=1"`
}

func (s SearchRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
		Page      int    `json:"page"`
		PageSize  int    `json:"pageSize"`
	}{s.StartTime.Format(LocalLayout), s.EndTime.Format(LocalLayout), s.Page, s.PageSize})
}

// StartResult is what every job producer endpoint returns.
type StartResult struct {
	BatchID   string `json:"batchId"`
	StatusURL string `json:"statusUrl,omitempty"`
	Total     int    `json:"total,omitempty"`
	Message   string `json:"message,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		r := sl.Current().Interface().(Recording)
		if r.EndTime.Before(r.StartTime) {
			sl.ReportError(r.EndTime, "EndTime", "endTime", "not_before_start", "")
		}
	}, Recording{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(SearchRequest)
		if !s.EndTime.After(s.StartTime) {
			sl.ReportError(s.EndTime, "EndTime", "endTime", "after_start", "")
		}
	}, SearchRequest{})
	return v
}

func (r Recording) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid recording: %w", err)
	}
	return nil
}

func (s SearchRequest) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid search request: %w", err)
	}
	return nil
}

// ParseLocalTime accepts the appliance layout, a space separated variant, a
// minute precision variant and RFC 3339.
func ParseLocalTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{LocalLayout, "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02 15:04", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q, expected %s", raw, LocalLayout)
}
