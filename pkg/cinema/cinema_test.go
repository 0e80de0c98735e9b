package cinema_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marqueeco/marquee/pkg/cinema"
)

var _ = Describe("StaticDirectory", func() {
	var (
		ctx context.Context
		dir *cinema.StaticDirectory
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = cinema.NewStaticDirectory([]cinema.Cinema{
			{ID: "57", Name: "UGC Ciné Cité Les Halles", PostalCode: "75001", City: "Paris"},
			{ID: "42", Name: "UGC Ciné Cité Bercy", PostalCode: "75012", City: "Paris"},
			{ID: "99", Name: "UGC Confluence", PostalCode: "69002", City: "Lyon"},
		})
	})

	Describe("FindByPostalCode", func() {
		It("matches by département prefix from a full postal code", func() {
			found, err := dir.FindByPostalCode(ctx, "75011")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(2))
		})

		It("matches by a bare département", func() {
			found, err := dir.FindByPostalCode(ctx, "69")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].City).To(Equal("Lyon"))
		})

		It("returns nothing for unknown areas", func() {
			found, err := dir.FindByPostalCode(ctx, "20000")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())
		})

		It("returns nothing for malformed input", func() {
			found, err := dir.FindByPostalCode(ctx, "7")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())
		})
	})

	Describe("Get", func() {
		It("finds a cinema by id", func() {
			c, err := dir.Get(ctx, "42")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Name).To(ContainSubstring("Bercy"))
		})

		It("returns ErrNotFound for an unknown id", func() {
			_, err := dir.Get(ctx, "nope")
			Expect(err).To(MatchError(cinema.ErrNotFound))
		})
	})

	Describe("LoadDirectory", func() {
		It("loads cinemas from a JSON file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "cinemas.json")
			data := `[{"id":"57","name":"Les Halles","postal_code":"75001","city":"Paris"}]`
			Expect(os.WriteFile(path, []byte(data), 0o644)).To(Succeed())

			loaded, err := cinema.LoadDirectory(path)
			Expect(err).NotTo(HaveOccurred())

			count, err := loaded.Count(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("fails on malformed JSON", func() {
			path := filepath.Join(GinkgoT().TempDir(), "cinemas.json")
			Expect(os.WriteFile(path, []byte("{not json"), 0o644)).To(Succeed())

			_, err := cinema.LoadDirectory(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
