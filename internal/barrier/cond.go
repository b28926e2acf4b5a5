package barrier

import "sync"

// Cond is the sleeping barrier. Each round has a generation number; waiters
// sleep until the generation they arrived in has been closed.
type Cond struct {
	size       int
	mu         sync.Mutex
	cond       *sync.Cond
	count      int
	generation uint64
	broken     bool
}

// NewCond panics if n < 1.
func NewCond(n int) *Cond {
	mustPositive(n)
	b := &Cond{size: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *Cond) Size() int { return b.size }

func (b *Cond) Broken() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.broken
}

func (b *Cond) Break() {
	b.mu.Lock()
	b.broken = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

func (b *Cond) Wait() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.broken {
		return ErrBroken
	}

	gen := b.generation
	b.count++
	if b.count == b.size {
		b.count = 0
		b.generation++
		b.cond.Broadcast()
		return nil
	}

	for gen == b.generation && !b.broken {
		b.cond.Wait()
	}
	if gen == b.generation {
		return ErrBroken
	}
	return nil
}
