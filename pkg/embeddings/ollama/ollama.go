// Package ollama implements pkg/embeddings' Embedder client for Ollama's embedding API
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marqueeco/marquee/pkg/embeddings"
)

const (
	// DefaultEmbeddingModel is the default model used for embeddings.
	// mxbai-embed-large produces 1024-dimensional vectors.
	DefaultEmbeddingModel = "mxbai-embed-large"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultTimeout bounds a single embedding call.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchDelay is the pause between sequential EmbedAll calls so a
	// catalog refresh does not saturate the provider.
	DefaultBatchDelay = 100 * time.Millisecond
)

// Embedder wraps Ollama's embedding API.
type Embedder struct {
	baseURL    string
	model      string
	batchDelay time.Duration
	httpClient *http.Client
}

// EmbedderConfig holds configuration for the Ollama embedder.
type EmbedderConfig struct {
	// BaseURL is the Ollama API URL (e.g., "http://localhost:11434").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the embedding model to use. Defaults to DefaultEmbeddingModel
	// if empty.
	Model string

	// Timeout bounds a single embedding call. Defaults to DefaultTimeout
	// if zero.
	Timeout time.Duration

	// BatchDelay is the inter-call pause used by EmbedAll. Defaults to
	// DefaultBatchDelay if zero.
	BatchDelay time.Duration
}

// embedRequest is the request body for Ollama's embedding API.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse is the response from Ollama's embedding API.
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// tagsResponse is the response from Ollama's model listing API.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewEmbedder creates a new embedder using Ollama's embedding API.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	batchDelay := cfg.BatchDelay
	if batchDelay == 0 {
		batchDelay = DefaultBatchDelay
	}

	return &Embedder{
		baseURL:    baseURL,
		model:      model,
		batchDelay: batchDelay,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Embed converts text into a vector embedding. The returned vector always has
// exactly embeddings.Dimensions components; any other length is an error.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedRequest{
		Model:  e.model,
		Prompt: text,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", embeddings.ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/api/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", embeddings.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", embeddings.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", embeddings.ErrUnavailable, resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", embeddings.ErrUnavailable, err)
	}

	if len(embedResp.Embedding) != embeddings.Dimensions {
		return nil, fmt.Errorf("%w: got %d components, want %d",
			embeddings.ErrDimensionMismatch, len(embedResp.Embedding), embeddings.Dimensions)
	}

	return embedResp.Embedding, nil
}

// EmbedAll embeds each text sequentially with a small delay between calls.
// Per-item failures are recorded and do not abort the remaining items.
func (e *Embedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, []error) {
	vectors := make([][]float32, len(texts))
	errs := make([]error, len(texts))

	for i, text := range texts {
		if i > 0 {
			select {
			case <-ctx.Done():
				for j := i; j < len(texts); j++ {
					errs[j] = ctx.Err()
				}
				return vectors, errs
			case <-time.After(e.batchDelay):
			}
		}

		vectors[i], errs[i] = e.Embed(ctx, text)
	}

	return vectors, errs
}

// Verify checks that the configured embedding model is installed by listing
// the provider's models.
func (e *Embedder) Verify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", e.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", embeddings.ErrUnavailable, err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending request: %v", embeddings.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ollama returned status %d", embeddings.ErrUnavailable, resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("%w: decoding response: %v", embeddings.ErrUnavailable, err)
	}

	for _, m := range tags.Models {
		if strings.Contains(m.Name, e.model) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s (install with: ollama pull %s)", embeddings.ErrModelNotFound, e.model, e.model)
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// Ensure Embedder implements embeddings.Embedder
var _ embeddings.Embedder = (*Embedder)(nil)
