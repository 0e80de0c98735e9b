package api

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marqueeco/marquee/pkg/catalog"
	"github.com/marqueeco/marquee/pkg/catalog/inmemory"
)

var _ = Describe("handleRecommend", func() {
	var (
		server *Server
		store  *inmemory.Store
	)

	BeforeEach(func() {
		server, store, _ = newTestServer()

		_, err := store.BulkUpsert(context.Background(), []catalog.FilmRecord{
			storedFilm("1", "57", "Inception", 4.5),
			storedFilm("2", "58", "Titanic", 4.0),
			storedFilm("3", "90", "Dune", 4.2),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns films playing in the postal code's département", func() {
		resp, body := doJSON(server, http.MethodPost, "/v1/recommend", map[string]any{
			"postal_code": "75011",
			"preferences": map[string]any{"genre": "Science-Fiction"},
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["cinemas"]).To(HaveLen(2))
		Expect(body["films"]).To(HaveLen(2))
	})

	It("returns empty lists for a département with no cinemas", func() {
		resp, body := doJSON(server, http.MethodPost, "/v1/recommend", map[string]any{
			"postal_code": "13001",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["cinemas"]).To(BeEmpty())
		Expect(body["films"]).To(BeEmpty())
	})

	It("requires a postal code", func() {
		resp, _ := doJSON(server, http.MethodPost, "/v1/recommend", map[string]any{
			"preferences": map[string]any{"genre": "Action"},
		})
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("uses and persists session preferences", func() {
		resp, body := doJSON(server, http.MethodPost, "/v1/sessions", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		id := body["id"].(string)

		resp, _ = doJSON(server, http.MethodPost, "/v1/recommend", map[string]any{
			"session_id":  id,
			"postal_code": "75011",
			"preferences": map[string]any{"genre": "Action"},
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, body = doJSON(server, http.MethodGet, "/v1/sessions/"+id, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		prefs := body["preferences"].(map[string]any)
		Expect(prefs["genre"]).To(Equal("Action"))
	})

	It("returns 404 for an unknown session", func() {
		resp, _ := doJSON(server, http.MethodPost, "/v1/recommend", map[string]any{
			"session_id":  "nope",
			"postal_code": "75011",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("honors top_k", func() {
		resp, body := doJSON(server, http.MethodPost, "/v1/recommend", map[string]any{
			"postal_code": "75011",
			"top_k":       1,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["films"]).To(HaveLen(1))
	})
})
