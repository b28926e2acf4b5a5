package barrier_test

import (
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ecosim/internal/barrier"
)

// runRounds drives n workers through rounds Wait calls and counts protocol
// violations seen from inside the workers.
func runRounds(b barrier.Barrier, n, rounds int) (early, undrained int64, errs []error) {
	arrivals := make([]atomic.Int64, rounds)
	departures := make([]atomic.Int64, rounds)
	var earlyCount, undrainedCount atomic.Int64
	errs = make([]error, n)

	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(id)))
			for r := 0; r < rounds; r++ {
				if rng.Intn(4) == 0 {
					runtime.Gosched()
				}
				arrivals[r].Add(1)
				if err := b.Wait(); err != nil {
					errs[id] = err
					return
				}
				if arrivals[r].Load() != int64(n) {
					earlyCount.Add(1)
				}
				if r > 0 && departures[r-1].Load() != int64(n) {
					undrainedCount.Add(1)
				}
				departures[r].Add(1)
			}
		}(w)
	}
	wg.Wait()
	return earlyCount.Load(), undrainedCount.Load(), errs
}

var _ = Describe("Barrier", func() {
	for _, kind := range barrier.Kinds() {
		kind := kind

		Context(kind, func() {
			DescribeTable("keeps every round closed and drained",
				func(n, rounds int) {
					b, err := barrier.New(kind, n)
					Expect(err).NotTo(HaveOccurred())

					done := make(chan struct{})
					var early, undrained int64
					var errs []error
					go func() {
						defer close(done)
						early, undrained, errs = runRounds(b, n, rounds)
					}()

					Eventually(done).WithTimeout(20 * time.Second).Should(BeClosed())
					Expect(early).To(BeZero())
					Expect(undrained).To(BeZero())
					for _, e := range errs {
						Expect(e).NotTo(HaveOccurred())
					}
				},
				Entry("single member", 1, 50),
				Entry("pair", 2, 500),
				Entry("ecosystem team", 4, 1000),
				Entry("wide team", 9, 200),
			)

			It("reports its size", func() {
				b, err := barrier.New(kind, 4)
				Expect(err).NotTo(HaveOccurred())
				Expect(b.Size()).To(Equal(4))
				Expect(b.Broken()).To(BeFalse())
			})

			It("releases a short team with ErrBroken", func() {
				b, err := barrier.New(kind, 3)
				Expect(err).NotTo(HaveOccurred())

				results := make(chan error, 2)
				for i := 0; i < 2; i++ {
					go func() { results <- b.Wait() }()
				}

				Consistently(results).WithTimeout(50 * time.Millisecond).ShouldNot(Receive())
				b.Break()

				for i := 0; i < 2; i++ {
					var got error
					Eventually(results).WithTimeout(5 * time.Second).Should(Receive(&got))
					Expect(errors.Is(got, barrier.ErrBroken)).To(BeTrue())
				}
				Expect(b.Broken()).To(BeTrue())
				Expect(b.Wait()).To(MatchError(barrier.ErrBroken))
			})

			It("tolerates repeated Break", func() {
				b, _ := barrier.New(kind, 2)
				b.Break()
				b.Break()
				Expect(b.Wait()).To(MatchError(barrier.ErrBroken))
			})
		})
	}

	It("rejects an unknown kind", func() {
		_, err := barrier.New("ticket", 4)
		Expect(err).To(MatchError(barrier.ErrUnknownKind))
	})

	It("defaults to the spin barrier", func() {
		b, err := barrier.New("", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(BeAssignableToTypeOf(&barrier.Spin{}))
	})

	It("panics on an empty team", func() {
		Expect(func() { barrier.NewSpin(0) }).To(Panic())
		Expect(func() { barrier.NewCond(-1) }).To(Panic())
	})
})
