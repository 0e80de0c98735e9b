package catalog

import "errors"

var (
	// ErrNotFound is returned when a record is not found in the store.
	ErrNotFound = errors.New("film record not found")

	// ErrInvalidEmbedding is returned when a record's embedding is missing
	// or does not have exactly 1024 components. Such records must never be
	// persisted.
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrConnection is returned when the backing store cannot be reached.
	ErrConnection = errors.New("catalog store connection failed")
)
