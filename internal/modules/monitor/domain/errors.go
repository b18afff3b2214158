package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound  ErrorKind = "not_found"
	KindTransient ErrorKind = "transient"
	KindMalformed ErrorKind = "malformed"
)

// StatusError is the only error a status client returns for a fetch that
// reached the classification stage.
type StatusError struct {
	Kind       ErrorKind
	JobID      string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("status %s for job %s (http %d): %v", e.Kind, e.JobID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("status %s for job %s: %v", e.Kind, e.JobID, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

func NewNotFound(jobID string) *StatusError {
	return &StatusError{Kind: KindNotFound, JobID: jobID, StatusCode: 404, Err: errors.New("job unknown to server")}
}

func NewTransient(jobID string, statusCode int, err error) *StatusError {
	return &StatusError{Kind: KindTransient, JobID: jobID, StatusCode: statusCode, Err: err}
}

func NewMalformed(jobID string, err error) *StatusError {
	return &StatusError{Kind: KindMalformed, JobID: jobID, Err: err}
}

// KindOf classifies err. Errors that are not a StatusError count as transient.
func KindOf(err error) ErrorKind {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransient
}
