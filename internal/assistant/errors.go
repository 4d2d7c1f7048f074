package assistant

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no API key is available for the
	// upstream assistant service.
	ErrNotConfigured = errors.New("assistant service is not configured")

	// ErrRunTimeout is returned when polling exhausts its attempt ceiling
	// while the run is still queued or in progress. Distinct from a run that
	// reached a terminal failure status.
	ErrRunTimeout = errors.New("assistant run timed out")

	// ErrEmptyResponse is returned when a completed run produced no
	// assistant message in the thread.
	ErrEmptyResponse = errors.New("no response from assistant")
)

// UpstreamError wraps any non-2xx reply from a sub-call to the external API,
// carrying the HTTP status and response body for server-side logging.
type UpstreamError struct {
	Operation string
	Status    int
	Body      string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: upstream returned %d: %s", e.Operation, e.Status, e.Body)
}

// RunFailedError is returned when a run reaches a terminal status other than
// completed (failed, cancelled, expired).
type RunFailedError struct {
	Status string
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("assistant run ended with status %q", e.Status)
}
