package agent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/ecosim/internal/barrier"
	"github.com/san-kum/ecosim/internal/ecology"
	"github.com/san-kum/ecosim/internal/world"
)

type Role int

const (
	RoleWatcher Role = iota
	RoleRyeGrass
	RoleRabbits
	RoleFoxes
)

// TeamSize is the number of agents in a run.
const TeamSize = 4

func (r Role) String() string {
	switch r {
	case RoleWatcher:
		return "watcher"
	case RoleRyeGrass:
		return "ryegrass"
	case RoleRabbits:
		return "rabbits"
	case RoleFoxes:
		return "foxes"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Sink persists one record per simulated month.
type Sink interface {
	Write(rec world.Record) error
}

// behavior is the per-role part of the cycle.
type behavior interface {
	compute(s world.Snapshot)
	commit(w *world.World) []world.Field
	observe(w *world.World) ([]world.Field, *world.Record, error)
}

// species owns one field and advances it with a pure rule.
type species[T any] struct {
	field     world.Field
	next      func(world.Snapshot) T
	set       func(*world.World, T)
	candidate T
}

func (s *species[T]) compute(snap world.Snapshot) {
	s.candidate = s.next(snap)
}

func (s *species[T]) commit(w *world.World) []world.Field {
	s.set(w, s.candidate)
	return []world.Field{s.field}
}

func (s *species[T]) observe(*world.World) ([]world.Field, *world.Record, error) {
	return nil, nil, nil
}

// watcher owns the clock and the climate and is the only observer.
type watcher struct {
	params  ecology.Params
	uniform ecology.Uniform
	sink    Sink
}

func (*watcher) compute(world.Snapshot) {}

func (*watcher) commit(*world.World) []world.Field { return nil }

func (wt *watcher) observe(w *world.World) ([]world.Field, *world.Record, error) {
	rec := w.Snapshot().Record()
	if err := wt.sink.Write(rec); err != nil {
		return nil, nil, fmt.Errorf("persist %d/%02d: %w", rec.Year, rec.Month, err)
	}

	w.Advance()
	temp, precip := wt.params.Climate(w.Month(), wt.uniform)
	w.SetClimate(temp, precip)

	return []world.Field{world.FieldClock, world.FieldTemperature, world.FieldPrecipitation}, &rec, nil
}

func newBehavior(role Role, params ecology.Params, uniform ecology.Uniform, sink Sink) behavior {
	switch role {
	case RoleRyeGrass:
		return &species[float64]{
			field: world.FieldHeight,
			next:  params.NextHeight,
			set:   (*world.World).SetHeight,
		}
	case RoleRabbits:
		return &species[int]{
			field: world.FieldRabbits,
			next:  params.NextRabbits,
			set:   (*world.World).SetRabbits,
		}
	case RoleFoxes:
		return &species[int]{
			field: world.FieldFoxes,
			next:  params.NextFoxes,
			set:   (*world.World).SetFoxes,
		}
	default:
		return &watcher{params: params, uniform: uniform, sink: sink}
	}
}

// Agent is one member of the team. It owns nothing but its candidate value.
type Agent struct {
	role     Role
	world    *world.World
	barrier  barrier.Barrier
	endYear  int
	behavior behavior
	hooks    []Hook
	logger   *slog.Logger
	cycles   int
	records  int
}

func (a *Agent) Role() Role { return a.role }

// Run executes cycles until the shared year reaches the end year. A non-nil
// error means the team did not finish: either this agent failed, in which
// case it has already broken the barrier, or a peer did and Wait returned
// barrier.ErrBroken.
func (a *Agent) Run() error {
	a.logger.Debug("agent started", slog.String("role", a.role.String()))

	for cycle := 0; ; cycle++ {
		if a.world.Year() >= a.endYear {
			break
		}

		a.behavior.compute(a.world.Snapshot())
		if err := a.wait(cycle, PhaseComputed); err != nil {
			return err
		}

		for _, f := range a.behavior.commit(a.world) {
			a.emit(Event{Cycle: cycle, Kind: EventWrite, Phase: PhaseComputed, Field: f})
		}
		if err := a.wait(cycle, PhaseCommitted); err != nil {
			return err
		}

		fields, rec, err := a.behavior.observe(a.world)
		if err != nil {
			a.barrier.Break()
			return fmt.Errorf("%s: observe: %w", a.role, err)
		}
		for _, f := range fields {
			a.emit(Event{Cycle: cycle, Kind: EventWrite, Phase: PhaseCommitted, Field: f})
		}
		if rec != nil {
			a.records++
			a.emit(Event{Cycle: cycle, Kind: EventRecord, Record: *rec})
		}
		if err := a.wait(cycle, PhaseObserved); err != nil {
			return err
		}

		a.cycles++
	}

	a.logger.Debug("agent finished",
		slog.String("role", a.role.String()),
		slog.Int("cycles", a.cycles),
	)
	return nil
}

func (a *Agent) wait(cycle int, phase Phase) error {
	a.emit(Event{Cycle: cycle, Kind: EventArrive, Phase: phase})
	start := time.Now()
	if err := a.barrier.Wait(); err != nil {
		return fmt.Errorf("%s: cycle %d: %s barrier: %w", a.role, cycle, phase, err)
	}
	a.emit(Event{Cycle: cycle, Kind: EventDepart, Phase: phase, Waited: time.Since(start)})
	return nil
}

func (a *Agent) emit(ev Event) {
	if len(a.hooks) == 0 {
		return
	}
	ev.Role = a.role
	for _, h := range a.hooks {
		h.OnEvent(ev)
	}
}
