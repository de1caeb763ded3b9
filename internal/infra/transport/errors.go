package transport

import (
	"errors"
	"fmt"
)

// Sentinel errors for transport operations.
var (
	// ErrAllRelaysFailed indicates that the direct path and every configured
	// relay failed for a request.
	ErrAllRelaysFailed = errors.New("all relays failed")

	// ErrNoRelays indicates a relay-path request on a client configured
	// without relays.
	ErrNoRelays = errors.New("no relays configured")
)

// StatusError reports a non-success HTTP status for a completed request.
type StatusError struct {
	StatusCode int
	URL        string
}

// Error returns a formatted error message for the status error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}
