package nop_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cards/pkg/eventstream"
	"github.com/papercomputeco/cards/pkg/eventstream/nop"
	"github.com/papercomputeco/cards/pkg/logger"
)

var _ = Describe("Publisher", func() {
	var (
		ctx   context.Context
		event *eventstream.CardEvent
	)

	BeforeEach(func() {
		ctx = context.Background()
		event = &eventstream.CardEvent{
			EventType: eventstream.EventTypeCardCreated,
			CardID:    "6f1c2b4e-8d7a-4a4b-9a61-2f0c3e9d1b77",
		}
	})

	It("rejects nil events", func() {
		p := nop.NewPublisher(nil)
		Expect(p.PublishCard(ctx, nil)).To(MatchError(eventstream.ErrNilCardEvent))
		Expect(p.Dropped()).To(BeZero())
	})

	It("accepts and counts events", func() {
		p := nop.NewPublisher(nil)
		Expect(p.PublishCard(ctx, event)).To(Succeed())
		Expect(p.PublishCard(ctx, event)).To(Succeed())
		Expect(p.Dropped()).To(Equal(int64(2)))
	})

	It("logs dropped events at debug level", func() {
		var buf bytes.Buffer
		p := nop.NewPublisher(logger.New(logger.WithWriter(&buf), logger.WithDebug(true)))

		Expect(p.PublishCard(ctx, event)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring(event.CardID))
	})

	It("refuses events after Close", func() {
		p := nop.NewPublisher(nil)
		Expect(p.Close()).To(Succeed())
		Expect(p.PublishCard(ctx, event)).To(MatchError(eventstream.ErrPublisherClosed))
		Expect(p.Close()).To(Succeed())
	})
})
