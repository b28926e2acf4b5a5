package agent

import (
	"time"

	"github.com/san-kum/ecosim/internal/world"
)

// Phase names the barrier that closes a stage of the cycle.
type Phase string

const (
	PhaseComputed  Phase = "computed"
	PhaseCommitted Phase = "committed"
	PhaseObserved  Phase = "observed"
)

type EventKind int

const (
	EventArrive EventKind = iota + 1
	EventDepart
	EventWrite
	EventRecord
)

func (k EventKind) String() string {
	switch k {
	case EventArrive:
		return "arrive"
	case EventDepart:
		return "depart"
	case EventWrite:
		return "write"
	case EventRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Event describes one step of one agent. Arrive and Depart carry the Phase
// of the barrier. Write carries the Field and the Phase of the last barrier
// the writer left. Record carries the persisted row.
type Event struct {
	Role   Role
	Cycle  int
	Kind   EventKind
	Phase  Phase
	Field  world.Field
	Waited time.Duration
	Record world.Record
}

// Hook receives events from all agents concurrently. Implementations must
// be safe for concurrent use and must not block for long: a slow hook slows
// the whole team.
type Hook interface {
	OnEvent(ev Event)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ev Event)

func (f HookFunc) OnEvent(ev Event) { f(ev) }
