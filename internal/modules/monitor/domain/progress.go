package domain

import (
	"fmt"
	"math"
	"time"
)

type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomePartial Outcome = "PARTIAL"
	OutcomeFailure Outcome = "FAILURE"
)

const (
	LabelPreparing = "preparing"
	LabelWaiting   = "waiting"
)

type ProgressModel struct {
	JobID          string      `json:"jobId"`
	OverallPercent int         `json:"overallPercent"`
	OverallLabel   string      `json:"overallLabel"`
	ActiveItem     *ActiveItem `json:"activeItem"`
	Summary        Summary     `json:"summary"`
	ElapsedLabel   string      `json:"elapsedLabel"`
	IsTerminal     bool        `json:"isTerminal"`
	Outcome        Outcome     `json:"outcome,omitempty"`
	Items          []Item      `json:"items"`
}

type ActiveItem struct {
	Label      string  `json:"label"`
	Percent    float64 `json:"percent"`
	RateLabel  string  `json:"rateLabel"`
	ETALabel   string  `json:"etaLabel"`
	BytesLabel string  `json:"bytesLabel,omitempty"`
}

type Summary struct {
	Completed int `json:"completed"`
	Active    int `json:"active"`
	Queued    int `json:"queued"`
	Failed    int `json:"failed"`
}

type Item struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Status       SubJobStatus `json:"status"`
	ResultURI    string       `json:"resultUri,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
}

// Reconcile maps a status snapshot into a progress model. It performs no I/O
// and reads no clock; now is supplied by the caller. JobID is left empty.
func Reconcile(raw RawStatus, startedAt, now time.Time) ProgressModel {
	model := ProgressModel{
		OverallPercent: overallPercent(raw.CompletedCount, raw.TotalCount),
		Summary: Summary{
			Completed: raw.CompletedCount,
			Active:    raw.ActiveCount,
			Queued:    raw.QueuedCount,
			Failed:    raw.FailedCount,
		},
		ElapsedLabel: FormatElapsed(now.Sub(startedAt)),
		IsTerminal:   raw.Status.IsTerminal(),
		Outcome:      outcomeOf(raw),
		Items:        make([]Item, 0, len(raw.SubJobs)),
	}

	for i := range raw.SubJobs {
		sj := raw.SubJobs[i]
		model.Items = append(model.Items, Item{
			ID:           sj.ID,
			Name:         sj.Name,
			Status:       sj.Status,
			ResultURI:    sj.ResultURI,
			ErrorMessage: sj.ErrorMessage,
		})
		if model.ActiveItem == nil && sj.Status == SubJobActive {
			model.ActiveItem = activeItemOf(sj)
		}
	}

	model.OverallLabel = overallLabel(raw, model)
	return model
}

func overallPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

func outcomeOf(raw RawStatus) Outcome {
	switch {
	case !raw.Status.IsTerminal():
		return OutcomeNone
	case raw.Status == JobCompleted && raw.FailedCount == 0:
		return OutcomeSuccess
	case raw.Status == JobPartialFailure:
		return OutcomePartial
	default:
		return OutcomeFailure
	}
}

func overallLabel(raw RawStatus, model ProgressModel) string {
	switch model.Outcome {
	case OutcomeSuccess:
		return fmt.Sprintf("All %d jobs completed successfully", raw.TotalCount)
	case OutcomePartial:
		return fmt.Sprintf("Completed with %d failed (%d/%d successful)", raw.FailedCount, raw.CompletedCount, raw.TotalCount)
	case OutcomeFailure:
		if raw.Message != "" {
			return raw.Message
		}
		return fmt.Sprintf("Completed with %d failed", raw.FailedCount)
	}

	if model.ActiveItem != nil {
		if raw.Message != "" {
			return raw.Message
		}
		return fmt.Sprintf("Processing %d/%d", raw.CompletedCount, raw.TotalCount)
	}
	if raw.ActiveCount > 0 {
		return LabelPreparing
	}
	return LabelWaiting
}

func activeItemOf(sj SubJob) *ActiveItem {
	label := sj.Name
	if label == "" {
		label = sj.ID
	}
	return &ActiveItem{
		Label:      label,
		Percent:    itemPercent(sj),
		RateLabel:  FormatRate(sj.TransferRateBytesPerSec),
		ETALabel:   FormatETA(sj.BytesTransferred, sj.BytesTotal, sj.TransferRateBytesPerSec),
		BytesLabel: FormatBytesProgress(sj.BytesTransferred, sj.BytesTotal),
	}
}

func itemPercent(sj SubJob) float64 {
	if sj.ProgressPercent != nil {
		return clampPercent(*sj.ProgressPercent)
	}
	if sj.BytesTransferred != nil && sj.BytesTotal != nil && *sj.BytesTotal > 0 {
		return clampPercent(100 * float64(*sj.BytesTransferred) / float64(*sj.BytesTotal))
	}
	return 0
}

func clampPercent(p float64) float64 {
	return math.Max(0, math.Min(100, p))
}
