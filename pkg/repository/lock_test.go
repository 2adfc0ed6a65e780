package repository

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("keyedMutex", func() {
	var k *keyedMutex

	BeforeEach(func() {
		k = newKeyedMutex()
	})

	It("serialises holders of the same key", func() {
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inside  int
			maxSeen int
		)
		for range 20 {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()

				unlock, err := k.Lock(context.Background(), "a")
				Expect(err).NotTo(HaveOccurred())

				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				unlock()
			}()
		}
		wg.Wait()

		Expect(maxSeen).To(Equal(1))
		Expect(k.size()).To(BeZero())
	})

	It("does not block different keys", func() {
		unlockA, err := k.Lock(context.Background(), "a")
		Expect(err).NotTo(HaveOccurred())
		defer unlockA()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		unlockB, err := k.Lock(ctx, "b")
		Expect(err).NotTo(HaveOccurred())
		unlockB()
	})

	It("gives up when the context ends and cleans up", func() {
		unlock, err := k.Lock(context.Background(), "a")
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = k.Lock(ctx, "a")
		Expect(err).To(MatchError(context.DeadlineExceeded))

		unlock()
		Expect(k.size()).To(BeZero())
	})
})
