package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the token is missing or expired. The
	// orchestrator never retries this automatically; the user has to
	// sign in again.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotConfigured means the backend's credentials or target are
	// absent from the configuration. Surfaced once, not retried.
	ErrNotConfigured = errors.New("backend not configured")

	// ErrNotFound marks a missing remote snapshot inside adapters.
	// Download folds it into a (nil, nil) result before it reaches the
	// orchestrator.
	ErrNotFound = errors.New("remote snapshot not found")
)

// RemoteError carries a non-success status from a backend verbatim. The UI
// shows Message to the user unchanged.
type RemoteError struct {
	Backend string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote error (status %d): %s", e.Backend, e.Status, e.Message)
}

// ConnectionError wraps a transport-level failure with its human-readable
// cause. The sync path surfaces it without retrying.
type ConnectionError struct {
	Backend string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection error: %v", e.Backend, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
