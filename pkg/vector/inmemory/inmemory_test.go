package inmemory_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cards/pkg/vector"
	"github.com/papercomputeco/cards/pkg/vector/inmemory"
)

var _ = Describe("Driver", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		ctx = context.Background()
	})

	Describe("Upsert", func() {
		It("rejects points without an id", func() {
			err := driver.Upsert(ctx, []vector.Point{{Embedding: []float32{1}}})
			Expect(err).To(HaveOccurred())
			Expect(driver.Len()).To(Equal(0))
		})

		It("replaces points with the same id", func() {
			Expect(driver.Upsert(ctx, []vector.Point{{ID: "a", Embedding: []float32{1, 0}, Payload: vector.Payload{"n": vector.IntegerValue(1)}}})).To(Succeed())
			Expect(driver.Upsert(ctx, []vector.Point{{ID: "a", Embedding: []float32{1, 0}, Payload: vector.Payload{"n": vector.IntegerValue(2)}}})).To(Succeed())

			Expect(driver.Len()).To(Equal(1))
			p, err := driver.Get(ctx, "a", nil)
			Expect(err).NotTo(HaveOccurred())
			n, _ := p.Payload["n"].AsInteger()
			Expect(n).To(Equal(int64(2)))
		})
	})

	Describe("Get", func() {
		It("returns ErrNotFound for unknown ids", func() {
			_, err := driver.Get(ctx, "nope", nil)
			Expect(err).To(MatchError(vector.ErrNotFound))
		})

		It("restricts the payload to the requested fields", func() {
			Expect(driver.Upsert(ctx, []vector.Point{{
				ID:        "a",
				Embedding: []float32{1, 0},
				Payload:   vector.Payload{"keep": vector.StringValue("x"), "drop": vector.StringValue("y")},
			}})).To(Succeed())

			p, err := driver.Get(ctx, "a", []string{"keep"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Payload).To(HaveKey("keep"))
			Expect(p.Payload).NotTo(HaveKey("drop"))
			Expect(p.Embedding).To(Equal([]float32{1, 0}))
		})

		It("returns copies that do not alias stored state", func() {
			Expect(driver.Upsert(ctx, []vector.Point{{ID: "a", Embedding: []float32{1, 0}, Payload: vector.Payload{}}})).To(Succeed())

			p, err := driver.Get(ctx, "a", nil)
			Expect(err).NotTo(HaveOccurred())
			p.Embedding[0] = 42
			p.Payload["x"] = vector.BoolValue(true)

			again, err := driver.Get(ctx, "a", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Embedding[0]).To(Equal(float32(1)))
			Expect(again.Payload).NotTo(HaveKey("x"))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			points := []vector.Point{
				{ID: "east", Embedding: []float32{1, 0}},
				{ID: "north", Embedding: []float32{0, 1}},
				{ID: "northeast", Embedding: []float32{1, 1}},
			}
			Expect(driver.Upsert(ctx, points)).To(Succeed())
		})

		It("orders results by descending cosine similarity", func() {
			results, err := driver.Search(ctx, vector.SearchQuery{Vector: []float32{1, 0.1}, Limit: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].ID).To(Equal("east"))
			Expect(results[1].ID).To(Equal("northeast"))
			Expect(results[2].ID).To(Equal("north"))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
		})

		It("applies offset and limit", func() {
			results, err := driver.Search(ctx, vector.SearchQuery{Vector: []float32{1, 0.1}, Limit: 1, Offset: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("northeast"))
		})

		It("returns an empty slice past the last page", func() {
			results, err := driver.Search(ctx, vector.SearchQuery{Vector: []float32{1, 0}, Limit: 10, Offset: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).NotTo(BeNil())
			Expect(results).To(BeEmpty())
		})

		It("paginates large sets without overlap", func() {
			many := inmemory.NewDriver()
			for i := range 30 {
				Expect(many.Upsert(ctx, []vector.Point{{
					ID:        fmt.Sprintf("p%02d", i),
					Embedding: []float32{1, float32(i) / 100},
				}})).To(Succeed())
			}

			first, err := many.Search(ctx, vector.SearchQuery{Vector: []float32{1, 0}, Limit: 25})
			Expect(err).NotTo(HaveOccurred())
			second, err := many.Search(ctx, vector.SearchQuery{Vector: []float32{1, 0}, Limit: 25, Offset: 25})
			Expect(err).NotTo(HaveOccurred())

			Expect(first).To(HaveLen(25))
			Expect(second).To(HaveLen(5))

			seen := map[string]bool{}
			for _, r := range append(first, second...) {
				Expect(seen).NotTo(HaveKey(r.ID))
				seen[r.ID] = true
			}
		})
	})
})
