package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marqueeco/marquee/pkg/embeddings"
	"github.com/marqueeco/marquee/pkg/embeddings/ollama"
)

// fakeVector returns a vector of the requested length with a recognizable
// first component.
func fakeVector(n int, first float32) []float32 {
	v := make([]float32, n)
	if n > 0 {
		v[0] = first
	}
	return v
}

var _ = Describe("Ollama Embedder", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Embed", func() {
		It("returns the embedding from the API", func() {
			var gotModel, gotPrompt string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/embeddings"))
				var req map[string]string
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				gotModel = req["model"]
				gotPrompt = req["prompt"]
				json.NewEncoder(w).Encode(map[string]any{
					"embedding": fakeVector(embeddings.Dimensions, 0.5),
				})
			}))
			defer server.Close()

			e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())
			defer e.Close()

			vec, err := e.Embed(ctx, "Titre: Inception")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(HaveLen(embeddings.Dimensions))
			Expect(vec[0]).To(BeNumerically("==", 0.5))
			Expect(gotModel).To(Equal(ollama.DefaultEmbeddingModel))
			Expect(gotPrompt).To(Equal("Titre: Inception"))
		})

		It("rejects vectors of the wrong length instead of padding", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"embedding": fakeVector(768, 1),
				})
			}))
			defer server.Close()

			e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Embed(ctx, "some text")
			Expect(err).To(MatchError(embeddings.ErrDimensionMismatch))
		})

		It("maps connection failures to ErrUnavailable", func() {
			server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
			server.Close()

			e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Embed(ctx, "some text")
			Expect(err).To(MatchError(embeddings.ErrUnavailable))
		})

		It("maps non-200 responses to ErrUnavailable", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Embed(ctx, "some text")
			Expect(err).To(MatchError(embeddings.ErrUnavailable))
		})
	})

	Describe("EmbedAll", func() {
		It("continues past per-item failures", func() {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls++
				if calls == 2 {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				json.NewEncoder(w).Encode(map[string]any{
					"embedding": fakeVector(embeddings.Dimensions, float32(calls)),
				})
			}))
			defer server.Close()

			e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL, BatchDelay: 1})
			Expect(err).NotTo(HaveOccurred())

			vectors, errs := e.EmbedAll(ctx, []string{"a", "b", "c"})
			Expect(vectors).To(HaveLen(3))
			Expect(errs[0]).NotTo(HaveOccurred())
			Expect(errs[1]).To(MatchError(embeddings.ErrUnavailable))
			Expect(errs[2]).NotTo(HaveOccurred())
			Expect(vectors[1]).To(BeNil())
			Expect(vectors[2]).NotTo(BeNil())
		})
	})

	Describe("Verify", func() {
		It("succeeds when the model is listed", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/tags"))
				json.NewEncoder(w).Encode(map[string]any{
					"models": []map[string]string{
						{"name": "mxbai-embed-large:latest"},
						{"name": "qwen2.5:3b"},
					},
				})
			}))
			defer server.Close()

			e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Verify(ctx)).To(Succeed())
		})

		It("returns ErrModelNotFound when the model is missing", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"models": []map[string]string{{"name": "qwen2.5:3b"}},
				})
			}))
			defer server.Close()

			e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Verify(ctx)).To(MatchError(embeddings.ErrModelNotFound))
		})

		It("returns ErrUnavailable when the endpoint is down", func() {
			server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
			server.Close()

			e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Verify(ctx)).To(MatchError(embeddings.ErrUnavailable))
		})
	})
})
