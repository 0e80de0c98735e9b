package embeddings

import "errors"

var (
	// ErrUnavailable is returned when the embedding endpoint cannot be reached.
	ErrUnavailable = errors.New("embedding provider unavailable")

	// ErrDimensionMismatch is returned when the provider returns a vector
	// whose length differs from Dimensions. Vectors are never truncated or
	// padded to fit.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrModelNotFound is returned by Verify when the configured model is not
	// installed on the provider.
	ErrModelNotFound = errors.New("embedding model not found")
)
