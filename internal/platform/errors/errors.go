package apperrors

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrNoActiveSession = errors.New("no active session")
	ErrJobNotFound     = errors.New("job not found")
	ErrUnavailable     = errors.New("appliance unavailable")
)
