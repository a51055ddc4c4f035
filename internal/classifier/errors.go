package classifier

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks every failure to obtain a prediction. Classify absorbs it;
// Predict returns it wrapped around the underlying cause.
var ErrUnavailable = errors.New("classifier: classification unavailable")

// Sentinel causes.
var (
	ErrDisabled     = errors.New("classifier: no submit URL configured")
	ErrSkipped      = errors.New("classifier: description is empty")
	ErrNoResult     = errors.New("classifier: response carries no result yet")
	ErrMalformed    = errors.New("classifier: malformed response")
	ErrJobFailed    = errors.New("classifier: job failed")
	ErrJobNotFound  = errors.New("classifier: job not found")
	ErrStatus       = errors.New("classifier: unexpected status")
	ErrUnknownLabel = errors.New("classifier: label outside the label set")
)

// Error wraps an underlying error with the protocol phase it happened in.
type Error struct {
	Op      string // "submit" or "poll"
	EventID string
	Err     error
}

func (e *Error) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("classifier %s [%s]: %v", e.Op, e.EventID, e.Err)
	}
	return fmt.Sprintf("classifier %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, eventID string, err error) error {
	return &Error{Op: op, EventID: eventID, Err: err}
}

// retryable reports whether another poll could succeed where this one failed.
func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrJobFailed), errors.Is(err, ErrJobNotFound):
		return false
	default:
		return true
	}
}
