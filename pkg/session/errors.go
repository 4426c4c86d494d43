package session

import "errors"

var (
	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned by a session after Close.
	ErrSessionClosed = errors.New("session is closed")
)

// IsNotFound checks if an error indicates an unknown session id.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
