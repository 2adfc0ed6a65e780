package card_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cards/pkg/card"
	"github.com/papercomputeco/cards/pkg/vector"
)

const cardID = "6f1c2b4e-8d7a-4a4b-9a61-2f0c3e9d1b77"

var _ = Describe("Codec", func() {
	var (
		createdAt time.Time
		payload   vector.Payload
	)

	BeforeEach(func() {
		createdAt = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
		payload = card.Encode(card.NewCard{
			Content: "Climate policy reduces emissions",
			Topic:   "climate",
			Side:    "pro",
			OwnerID: "user-7",
		}, createdAt)
	})

	Describe("Encode", func() {
		It("writes the full payload vocabulary with zero counters", func() {
			Expect(payload).To(HaveLen(8))
			Expect(payload[card.FieldLink].IsNull()).To(BeTrue())

			up, down := card.Counters(payload)
			Expect(up).To(BeZero())
			Expect(down).To(BeZero())

			ts, ok := payload[card.FieldCreatedAt].AsString()
			Expect(ok).To(BeTrue())
			Expect(ts).To(Equal("2024-03-01T12:30:00Z"))
		})

		It("stores the link when present", func() {
			link := "https://example.org/source"
			p := card.Encode(card.NewCard{Content: "c", Topic: "t", Side: "s", Link: &link}, createdAt)

			got, ok := p[card.FieldLink].AsString()
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(link))
		})
	})

	Describe("round trip", func() {
		It("restores the card fields for both projections", func() {
			point := vector.Point{ID: cardID, Payload: payload}

			scored, err := card.DecodeScored(vector.ScoredPoint{Point: point, Score: 0.87})
			Expect(err).NotTo(HaveOccurred())
			Expect(scored.ID).To(Equal(cardID))
			Expect(scored.Content).To(Equal("Climate policy reduces emissions"))
			Expect(scored.Topic).To(Equal("climate"))
			Expect(scored.Side).To(Equal("pro"))
			Expect(scored.OwnerID).To(Equal("user-7"))
			Expect(scored.Votes).To(BeZero())
			Expect(scored.Score).To(BeNumerically("~", 0.87, 1e-6))
			Expect(scored.Link).To(BeNil())
			Expect(scored.CreatedAt).NotTo(BeNil())
			Expect(scored.CreatedAt.Equal(createdAt)).To(BeTrue())

			retrieved, err := card.DecodeRetrieved(point)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Card).To(Equal(scored.Card))
		})
	})

	Describe("Decode", func() {
		DescribeTable("rejects payloads that are not well formed",
			func(mutate func(vector.Payload)) {
				mutate(payload)
				point := vector.Point{ID: cardID, Payload: payload}

				_, err := card.DecodeRetrieved(point)
				Expect(err).To(MatchError(card.ErrDecode))

				_, err = card.DecodeScored(vector.ScoredPoint{Point: point})
				Expect(err).To(MatchError(card.ErrDecode))
			},
			Entry("missing upvotes", func(p vector.Payload) { delete(p, card.FieldUpvotes) }),
			Entry("missing content", func(p vector.Payload) { delete(p, card.FieldContent) }),
			Entry("double downvotes", func(p vector.Payload) { p[card.FieldDownvotes] = vector.DoubleValue(1) }),
			Entry("integer side", func(p vector.Payload) { p[card.FieldSide] = vector.IntegerValue(1) }),
			Entry("null topic", func(p vector.Payload) { p[card.FieldTopic] = vector.NullValue() }),
		)

		It("rejects points without a resolvable id", func() {
			_, err := card.DecodeRetrieved(vector.Point{Payload: payload})
			Expect(err).To(MatchError(card.ErrDecode))
		})

		It("ignores optional fields of the wrong kind", func() {
			payload[card.FieldLink] = vector.IntegerValue(5)
			payload[card.FieldOwnerID] = vector.NullValue()
			payload[card.FieldCreatedAt] = vector.StringValue("yesterday")

			c, err := card.DecodeRetrieved(vector.Point{ID: cardID, Payload: payload})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Link).To(BeNil())
			Expect(c.OwnerID).To(BeEmpty())
			Expect(c.CreatedAt).To(BeNil())
		})

		It("computes votes as upvotes minus downvotes", func() {
			payload[card.FieldUpvotes] = vector.IntegerValue(2)
			payload[card.FieldDownvotes] = vector.IntegerValue(5)

			c, err := card.DecodeRetrieved(vector.Point{ID: cardID, Payload: payload})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Votes).To(Equal(int64(-3)))
		})
	})

	Describe("Counters", func() {
		It("treats corrupt counters as zero", func() {
			payload[card.FieldUpvotes] = vector.IntegerValue(4)
			payload[card.FieldDownvotes] = vector.StringValue("many")

			up, down := card.Counters(payload)
			Expect(up).To(BeZero())
			Expect(down).To(BeZero())
		})
	})

	Describe("ApplyVote", func() {
		It("increments exactly one counter and keeps every other key", func() {
			next := card.ApplyVote(payload, true)
			up, down := card.Counters(next)
			Expect(up).To(Equal(int64(1)))
			Expect(down).To(BeZero())

			next = card.ApplyVote(next, false)
			up, down = card.Counters(next)
			Expect(up).To(Equal(int64(1)))
			Expect(down).To(Equal(int64(1)))

			for _, key := range []string{card.FieldContent, card.FieldTopic, card.FieldSide, card.FieldOwnerID, card.FieldLink, card.FieldCreatedAt} {
				Expect(next[key].Equal(payload[key])).To(BeTrue(), key)
			}
		})

		It("does not modify the input payload", func() {
			_ = card.ApplyVote(payload, true)
			up, _ := card.Counters(payload)
			Expect(up).To(BeZero())
		})
	})

	Describe("ParseID", func() {
		It("accepts UUIDs", func() {
			id, err := card.ParseID(cardID)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(cardID))
		})

		It("rejects anything else", func() {
			_, err := card.ParseID("not-a-uuid")
			Expect(err).To(MatchError(card.ErrMalformedID))
		})
	})
})
