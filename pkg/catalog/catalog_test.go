package catalog_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marqueeco/marquee/pkg/catalog"
)

var _ = Describe("Catalog", func() {
	Describe("CompositeID", func() {
		It("joins film id and cinema id with an underscore", func() {
			Expect(catalog.CompositeID("17892", "57")).To(Equal("17892_57"))
		})
	})

	Describe("WeekNumber", func() {
		It("uses ISO-8601 week numbering", func() {
			// 2026-08-30 is a Sunday in ISO week 35.
			t := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
			Expect(catalog.WeekNumber(t)).To(Equal(202635))
		})

		It("uses the ISO year around new year", func() {
			// 2027-01-01 is a Friday belonging to ISO week 53 of 2026.
			t := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
			Expect(catalog.WeekNumber(t)).To(Equal(202653))
		})
	})

	Describe("StaleBefore", func() {
		It("keeps records exactly two weeks behind", func() {
			cutoff := catalog.StaleBefore(202635)
			Expect(202633).To(BeNumerically(">=", cutoff))
			Expect(202632).To(BeNumerically("<", cutoff))
		})
	})

	Describe("StripEmbedding", func() {
		It("removes the vector without touching the original", func() {
			rec := catalog.FilmRecord{
				CompositeID: "1_2",
				Embedding:   []float32{1, 2, 3},
			}
			stripped := rec.StripEmbedding()
			Expect(stripped.Embedding).To(BeNil())
			Expect(rec.Embedding).To(HaveLen(3))
		})
	})
})
