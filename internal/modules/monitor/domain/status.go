package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type JobStatus string

const (
	JobQueued         JobStatus = "QUEUED"
	JobInProgress     JobStatus = "IN_PROGRESS"
	JobCompleted      JobStatus = "COMPLETED"
	JobFailed         JobStatus = "FAILED"
	JobPartialFailure JobStatus = "PARTIAL_FAILURE"
)

// IsTerminal reports whether no further updates are expected for the job.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobPartialFailure:
		return true
	default:
		return false
	}
}

type SubJobStatus string

const (
	SubJobQueued    SubJobStatus = "QUEUED"
	SubJobActive    SubJobStatus = "ACTIVE"
	SubJobCompleted SubJobStatus = "COMPLETED"
	SubJobFailed    SubJobStatus = "FAILED"
)

// RawStatus is the status endpoint payload.
type RawStatus struct {
	Status         JobStatus `json:"status" validate:"required,oneof=QUEUED IN_PROGRESS COMPLETED FAILED PARTIAL_FAILURE"`
	CompletedCount int       `json:"completedCount" validate:"gte=0,ltefield=TotalCount"`
	TotalCount     int       `json:"totalCount" validate:"gte=0"`
	QueuedCount    int       `json:"queuedCount" validate:"gte=0,ltefield=TotalCount"`
	ActiveCount    int       `json:"activeCount" validate:"gte=0,ltefield=TotalCount"`
	FailedCount    int       `json:"failedCount" validate:"gte=0,ltefield=TotalCount"`
	Message        string    `json:"message,omitempty"`
	SubJobs        []SubJob  `json:"subJobs" validate:"dive"`
}

// SubJob is one unit of work inside a job, typically one file transfer.
type SubJob struct {
	ID                      string       `json:"subJobId" validate:"required"`
	Status                  SubJobStatus `json:"status" validate:"required,oneof=QUEUED ACTIVE COMPLETED FAILED"`
	Name                    string       `json:"name,omitempty"`
	ProgressPercent         *float64     `json:"progressPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	BytesTransferred        *int64       `json:"bytesTransferred,omitempty" validate:"omitempty,gte=0"`
	BytesTotal              *int64       `json:"bytesTotal,omitempty" validate:"omitempty,gte=0"`
	TransferRateBytesPerSec *float64     `json:"transferRateBytesPerSec,omitempty" validate:"omitempty,gte=0"`
	ResultURI               string       `json:"resultUri,omitempty"`
	ErrorMessage            string       `json:"errorMessage,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(subJobStructLevel, SubJob{})
	return v
}

// subJobStructLevel rejects result and error fields on the wrong status.
func subJobStructLevel(sl validator.StructLevel) {
	sj := sl.Current().Interface().(SubJob)
	if sj.ResultURI != "" && sj.Status != SubJobCompleted {
		sl.ReportError(sj.ResultURI, "ResultURI", "resultUri", "completed_only", string(sj.Status))
	}
	if sj.ErrorMessage != "" && sj.Status != SubJobFailed {
		sl.ReportError(sj.ErrorMessage, "ErrorMessage", "errorMessage", "failed_only", string(sj.Status))
	}
}

// Validate checks the payload against the status schema.
func (r RawStatus) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid status payload: %w", err)
	}
	return nil
}
