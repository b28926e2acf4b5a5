package barrier

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Spin is the busy-waiting barrier.
//
// The last arriver rearms the counters and then keeps the entry lock until
// every other member has departed, so nobody can start the next round while
// a slow member is still leaving this one.
type Spin struct {
	size     int64
	mu       sync.Mutex
	arrived  atomic.Int64
	departed atomic.Int64
	broken   atomic.Bool
}

// NewSpin panics if n < 1.
func NewSpin(n int) *Spin {
	mustPositive(n)
	return &Spin{size: int64(n)}
}

func (b *Spin) Size() int { return int(b.size) }

func (b *Spin) Broken() bool { return b.broken.Load() }

func (b *Spin) Break() { b.broken.Store(true) }

func (b *Spin) Wait() error {
	if b.broken.Load() {
		return ErrBroken
	}

	b.mu.Lock()
	if b.broken.Load() {
		b.mu.Unlock()
		return ErrBroken
	}

	if b.arrived.Add(1) == b.size {
		b.departed.Store(0)
		b.arrived.Store(0)
		for b.departed.Load() != b.size-1 {
			if b.broken.Load() {
				b.mu.Unlock()
				return ErrBroken
			}
			runtime.Gosched()
		}
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	for b.arrived.Load() != 0 {
		if b.broken.Load() {
			return ErrBroken
		}
		runtime.Gosched()
	}
	b.departed.Add(1)
	return nil
}
