// Package embeddings
package embeddings

import "context"

// Dimensions is the vector size every embedder must produce. Film records
// persist exactly this many components; anything else is rejected before it
// reaches storage.
const Dimensions = 1024

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding of exactly Dimensions
	// components.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedAll embeds each text sequentially, pacing calls to respect the
	// provider's rate limit. A failure on one text does not abort the
	// remaining items: the returned slices are index-aligned with texts,
	// with a nil vector and non-nil error for failed items.
	EmbedAll(ctx context.Context, texts []string) ([][]float32, []error)

	// Verify reports whether the backing model is available. A run of the
	// ingestion pipeline calls this before any write and aborts if it fails.
	Verify(ctx context.Context) error

	// Close releases any resources held by the embedder.
	Close() error
}
