package scrape_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marqueeco/marquee/pkg/scrape"
)

var _ = Describe("ParsePayload", func() {
	It("decodes a conforming payload", func() {
		data := `{
			"cinemas": [{
				"cinema_id": "57",
				"cinema_name": "Les Halles",
				"films": [{
					"film_id": "17892",
					"title": "Inception",
					"genre": "Science-Fiction, Thriller",
					"duration_minutes": 148,
					"director": "Christopher Nolan",
					"actors": ["Leonardo DiCaprio"],
					"rating": 4.5,
					"showtimes": [{"date": "2026-09-02", "slots": [{"start": "20:00", "end": "22:30", "version": "VOST"}]}]
				}]
			}]
		}`

		payload, err := scrape.ParsePayload([]byte(data))
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.Cinemas).To(HaveLen(1))
		Expect(payload.Cinemas[0].Films[0].Title).To(Equal("Inception"))
		Expect(payload.Cinemas[0].Films[0].Showtimes[0].Slots[0].Version).To(Equal("VOST"))
	})

	It("rejects malformed JSON", func() {
		_, err := scrape.ParsePayload([]byte("{cinemas: oops"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects JSON without a cinemas field", func() {
		_, err := scrape.ParsePayload([]byte(`{"foo": 1}`))
		Expect(err).To(MatchError(ContainSubstring("missing cinemas")))
	})

	It("accepts an empty cinema list", func() {
		payload, err := scrape.ParsePayload([]byte(`{"cinemas": []}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.Cinemas).To(BeEmpty())
	})
})
