package assistant

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("assistant: resource not found")
	ErrRunFailed  = errors.New("assistant: run failed")
	ErrRunTimeout = errors.New("assistant: run did not complete in time")
)

// APIError is returned by providers when the remote service answers with a
// non-success status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assistant api error: status %d: %s", e.StatusCode, e.Message)
}

// RunError describes a run that reached a terminal, unsuccessful status.
type RunError struct {
	RunID  string
	Status RunStatus
	Reason string
}

func (e *RunError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("run %s ended with status %s", e.RunID, e.Status)
	}
	return fmt.Sprintf("run %s ended with status %s: %s", e.RunID, e.Status, e.Reason)
}

func (e *RunError) Unwrap() error {
	return ErrRunFailed
}
