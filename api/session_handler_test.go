package api

import (
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marqueeco/marquee/pkg/session"
)

var _ = Describe("session handlers", func() {
	var server *Server

	BeforeEach(func() {
		server, _, _ = newTestServer()
	})

	createSession := func() string {
		resp, body := doJSON(server, http.MethodPost, "/v1/sessions", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		id, ok := body["id"].(string)
		Expect(ok).To(BeTrue())
		Expect(id).NotTo(BeEmpty())
		return id
	}

	Describe("POST /v1/sessions", func() {
		It("creates an empty session", func() {
			resp, body := doJSON(server, http.MethodPost, "/v1/sessions", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(body["messages"]).To(BeEmpty())
		})
	})

	Describe("GET /v1/sessions/:id", func() {
		It("returns the session", func() {
			id := createSession()

			resp, body := doJSON(server, http.MethodGet, "/v1/sessions/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["id"]).To(Equal(id))
		})

		It("returns 404 for an unknown id", func() {
			resp, _ := doJSON(server, http.MethodGet, "/v1/sessions/nope", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /v1/sessions/:id/messages", func() {
		It("appends a message", func() {
			id := createSession()

			resp, _ := doJSON(server, http.MethodPost, "/v1/sessions/"+id+"/messages",
				session.Message{Role: "user", Content: "un film d'action"})
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp, body := doJSON(server, http.MethodGet, "/v1/sessions/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["messages"]).To(HaveLen(1))
		})

		It("rejects a message without role or content", func() {
			id := createSession()

			resp, _ := doJSON(server, http.MethodPost, "/v1/sessions/"+id+"/messages",
				session.Message{Role: "user"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown session", func() {
			resp, _ := doJSON(server, http.MethodPost, "/v1/sessions/nope/messages",
				session.Message{Role: "user", Content: "x"})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("PATCH /v1/sessions/:id/preferences", func() {
		It("merges without clobbering earlier answers", func() {
			id := createSession()

			resp, _ := doJSON(server, http.MethodPatch, "/v1/sessions/"+id+"/preferences",
				map[string]any{"genre": "Action"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, body := doJSON(server, http.MethodPatch, "/v1/sessions/"+id+"/preferences",
				map[string]any{"max_duration": 120})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["genre"]).To(Equal("Action"))
			Expect(body["max_duration"]).To(BeNumerically("==", 120))
		})
	})

	Describe("GET /v1/sessions/:id/history", func() {
		It("returns the most recent messages", func() {
			id := createSession()

			for i := 0; i < 12; i++ {
				resp, _ := doJSON(server, http.MethodPost, "/v1/sessions/"+id+"/messages",
					session.Message{Role: "user", Content: fmt.Sprintf("message %d", i)})
				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			}

			resp, body := doJSON(server, http.MethodGet, "/v1/sessions/"+id+"/history", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["count"]).To(BeNumerically("==", 10))

			resp, body = doJSON(server, http.MethodGet, "/v1/sessions/"+id+"/history?limit=3", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["count"]).To(BeNumerically("==", 3))
		})

		It("rejects a non-numeric limit", func() {
			id := createSession()

			resp, _ := doJSON(server, http.MethodGet, "/v1/sessions/"+id+"/history?limit=abc", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DELETE /v1/sessions/:id", func() {
		It("deletes the session", func() {
			id := createSession()

			resp, _ := doJSON(server, http.MethodDelete, "/v1/sessions/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp, _ = doJSON(server, http.MethodGet, "/v1/sessions/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
