package api

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marqueeco/marquee/pkg/catalog"
	"github.com/marqueeco/marquee/pkg/catalog/inmemory"
	"github.com/marqueeco/marquee/pkg/ingest"
)

var _ = Describe("admin handlers", func() {
	var (
		server *Server
		store  *inmemory.Store
	)

	BeforeEach(func() {
		server, store, _ = newTestServer()
	})

	Describe("POST /v1/admin/refresh", func() {
		It("starts a background run", func() {
			resp, body := doJSON(server, http.MethodPost, "/v1/admin/refresh", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
			Expect(body["status"]).To(Equal("started"))

			Eventually(server.runner.State).Should(Equal(ingest.StateDone))

			count, err := store.Count(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("accepts a scoped cinema list", func() {
			resp, _ := doJSON(server, http.MethodPost, "/v1/admin/refresh",
				map[string]any{"cinema_ids": []string{"57"}})
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			Eventually(server.runner.State).Should(Equal(ingest.StateDone))
		})
	})

	Describe("GET /v1/admin/refresh/status", func() {
		It("reports the pipeline state and last result", func() {
			resp, body := doJSON(server, http.MethodGet, "/v1/admin/refresh/status", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["state"]).To(Equal("idle"))

			resp, _ = doJSON(server, http.MethodPost, "/v1/admin/refresh", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
			Eventually(server.runner.State).Should(Equal(ingest.StateDone))

			resp, body = doJSON(server, http.MethodGet, "/v1/admin/refresh/status", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["last_result"]).NotTo(BeNil())
		})
	})

	Describe("GET /v1/admin/stats", func() {
		It("returns catalog and directory statistics", func() {
			_, err := store.BulkUpsert(context.Background(), []catalog.FilmRecord{
				storedFilm("1", "57", "Inception", 4.5),
				storedFilm("2", "57", "Titanic", 4.0),
			})
			Expect(err).NotTo(HaveOccurred())

			resp, body := doJSON(server, http.MethodGet, "/v1/admin/stats", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["total_films"]).To(BeNumerically("==", 2))
			Expect(body["cinema_count"]).To(BeNumerically("==", 3))
		})
	})

	Describe("GET /v1/admin/films/:composite_id", func() {
		It("returns the record with an embedding preview", func() {
			_, err := store.BulkUpsert(context.Background(), []catalog.FilmRecord{
				storedFilm("1", "57", "Inception", 4.5),
			})
			Expect(err).NotTo(HaveOccurred())

			resp, body := doJSON(server, http.MethodGet, "/v1/admin/films/1_57", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["embedding_preview"]).To(HaveLen(5))
			Expect(body["embedding_length"]).To(BeNumerically("==", 1024))
			Expect(body["embedding"]).To(BeNil())
		})

		It("returns 404 for an unknown composite id", func() {
			resp, _ := doJSON(server, http.MethodGet, "/v1/admin/films/nope_0", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("DELETE /v1/admin/films", func() {
		BeforeEach(func() {
			_, err := store.BulkUpsert(context.Background(), []catalog.FilmRecord{
				storedFilm("1", "57", "Inception", 4.5),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses without the confirmation token", func() {
			resp, _ := doJSON(server, http.MethodDelete, "/v1/admin/films",
				map[string]any{"confirm": "oui"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			count, _ := store.Count(context.Background())
			Expect(count).To(Equal(1))
		})

		It("wipes the catalog with the confirmation token", func() {
			resp, body := doJSON(server, http.MethodDelete, "/v1/admin/films",
				map[string]any{"confirm": "YES_DELETE_ALL"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["deleted"]).To(BeNumerically("==", 1))

			count, _ := store.Count(context.Background())
			Expect(count).To(BeZero())
		})
	})
})
