package worker

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cards/pkg/eventstream"
	"github.com/papercomputeco/cards/pkg/logger"
)

type recordingPublisher struct {
	mu      sync.Mutex
	events  []*eventstream.CardEvent
	err     error
	block   chan struct{}
	started chan struct{}
}

func (r *recordingPublisher) PublishCard(_ context.Context, event *eventstream.CardEvent) error {
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

var _ = Describe("Worker Pool", func() {
	var publisher *recordingPublisher

	BeforeEach(func() {
		publisher = &recordingPublisher{}
	})

	newPool := func(workers, queue uint) *Pool {
		wp, err := NewPool(&Config{
			Publisher:  publisher,
			NumWorkers: workers,
			QueueSize:  queue,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		return wp
	}

	It("requires a publisher", func() {
		_, err := NewPool(&Config{Logger: logger.Nop()})
		Expect(err).To(HaveOccurred())
	})

	It("requires a logger", func() {
		_, err := NewPool(&Config{Publisher: publisher})
		Expect(err).To(MatchError(ContainSubstring("requires a logger")))
	})

	It("publishes every queued event before Close returns", func() {
		wp := newPool(0, 0)
		for range 20 {
			Expect(wp.Enqueue(Job{Event: eventstream.NewCardVoted("card-1", true)})).To(BeTrue())
		}
		wp.Close()

		Expect(publisher.count()).To(Equal(20))
	})

	It("keeps going when a publish fails", func() {
		publisher.err = errors.New("broker down")
		wp := newPool(1, 4)

		Expect(wp.Enqueue(Job{Event: eventstream.NewCardVoted("card-1", true)})).To(BeTrue())
		Expect(wp.Enqueue(Job{Event: eventstream.NewCardVoted("card-2", false)})).To(BeTrue())
		wp.Close()

		Expect(publisher.count()).To(Equal(2))
	})

	It("drops jobs instead of blocking when the queue is full", func() {
		publisher.block = make(chan struct{})
		publisher.started = make(chan struct{}, 1)
		wp := newPool(1, 1)

		Expect(wp.Enqueue(Job{Event: eventstream.NewCardVoted("card-1", true)})).To(BeTrue())
		Eventually(publisher.started).Should(Receive())

		Expect(wp.Enqueue(Job{Event: eventstream.NewCardVoted("card-2", true)})).To(BeTrue())
		Expect(wp.Enqueue(Job{Event: eventstream.NewCardVoted("card-3", true)})).To(BeFalse())

		publisher.started = nil
		close(publisher.block)
		wp.Close()
		Expect(publisher.count()).To(Equal(2))
	})

	It("rejects jobs after Close", func() {
		wp := newPool(1, 1)
		wp.Close()
		wp.Close()

		Expect(wp.Enqueue(Job{Event: eventstream.NewCardVoted("card-1", true)})).To(BeFalse())
	})

	It("ignores jobs without an event", func() {
		wp := newPool(1, 1)
		Expect(wp.Enqueue(Job{})).To(BeFalse())
		wp.Close()
	})
})
