package barrier

import (
	"errors"
	"fmt"
)

var (
	// ErrBroken is returned by Wait once Break has been called.
	ErrBroken = errors.New("barrier: broken")

	// ErrUnknownKind indicates an unsupported barrier implementation name.
	ErrUnknownKind = errors.New("barrier: unknown kind")
)

const (
	KindSpin = "spin"
	KindCond = "cond"
)

// Barrier blocks a fixed team until every member has called Wait for the
// current round.
type Barrier interface {
	// Wait blocks until Size() callers have arrived in this round.
	Wait() error
	// Break releases all waiters with ErrBroken. Idempotent.
	Break()
	Broken() bool
	Size() int
}

// New returns a barrier of the named kind sized for n members.
func New(kind string, n int) (Barrier, error) {
	switch kind {
	case KindSpin, "":
		return NewSpin(n), nil
	case KindCond:
		return NewCond(n), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Kinds lists the supported implementation names.
func Kinds() []string {
	return []string{KindSpin, KindCond}
}

func mustPositive(n int) {
	if n < 1 {
		panic(fmt.Sprintf("barrier: team size must be positive, got %d", n))
	}
}
