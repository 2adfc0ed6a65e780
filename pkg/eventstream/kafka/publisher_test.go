package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/cards/pkg/eventstream"
	"github.com/papercomputeco/cards/pkg/logger"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafkago.Message
	err      error
	closes   int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closes++
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer    *fakeWriter
		publisher *Publisher
	)

	BeforeEach(func() {
		writer = &fakeWriter{}
		publisher = newPublisher(writer, logger.Nop())
	})

	It("requires brokers", func() {
		_, err := NewPublisher(Config{}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("builds a publisher from brokers without dialing", func() {
		p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
	})

	It("writes JSON events keyed by card id", func() {
		event := eventstream.NewCardVoted("card-42", true)
		Expect(publisher.PublishCard(context.Background(), event)).To(Succeed())

		Expect(writer.messages).To(HaveLen(1))
		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("card-42"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeCardVoted)}))

		var decoded eventstream.CardEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal(event.EventID))
		Expect(decoded.Upvote).NotTo(BeNil())
		Expect(*decoded.Upvote).To(BeTrue())
	})

	It("rejects nil events", func() {
		Expect(publisher.PublishCard(context.Background(), nil)).To(MatchError(eventstream.ErrNilCardEvent))
	})

	It("wraps writer failures", func() {
		writer.err = errors.New("leader not available")
		err := publisher.PublishCard(context.Background(), eventstream.NewCardVoted("card-1", false))
		Expect(err).To(MatchError(ContainSubstring("leader not available")))
	})

	It("refuses to publish after close and closes the writer once", func() {
		Expect(publisher.Close()).To(Succeed())
		Expect(publisher.Close()).To(Succeed())
		Expect(writer.closes).To(Equal(1))

		err := publisher.PublishCard(context.Background(), eventstream.NewCardVoted("card-1", true))
		Expect(err).To(MatchError(eventstream.ErrPublisherClosed))
	})
})
