package session

import "errors"

var (
	// ErrNotFound is returned for unknown or expired session ids.
	ErrNotFound = errors.New("session not found")

	// ErrConnection is returned when the backing store is unreachable.
	ErrConnection = errors.New("session store connection failed")
)
