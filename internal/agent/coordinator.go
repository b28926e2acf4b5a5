package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/ecosim/internal/barrier"
	"github.com/san-kum/ecosim/internal/ecology"
	"github.com/san-kum/ecosim/internal/world"
)

type Config struct {
	Start   world.Initial
	EndYear int // exclusive
	Params  ecology.Params
	Barrier string
	// Uniform perturbs the climate. Nil means a time-seeded source.
	Uniform ecology.Uniform
	Logger  *slog.Logger
}

func (c Config) Validate() error {
	if c.EndYear < c.Start.Year {
		return fmt.Errorf("%w: end year %d before start year %d", ErrInvalidConfig, c.EndYear, c.Start.Year)
	}
	if c.Start.Month < 0 || c.Start.Month >= world.MonthsPerYear {
		return fmt.Errorf("%w: start month %d", ErrInvalidConfig, c.Start.Month)
	}
	return nil
}

type Summary struct {
	Cycles  int
	Records int
	Elapsed time.Duration
	Final   world.Snapshot
}

// Coordinator is the composition root of a run: it owns the world, the
// barrier and the four agents.
type Coordinator struct {
	cfg     Config
	world   *world.World
	barrier barrier.Barrier
	agents  []*Agent
	logger  *slog.Logger
	ran     atomic.Bool
}

// NewCoordinator allocates the world with its start values and the climate
// of the start month, and a barrier sized for TeamSize.
func NewCoordinator(cfg Config, sink Sink) (*Coordinator, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: nil sink", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Barrier == "" {
		cfg.Barrier = barrier.KindSpin
	}
	if cfg.Uniform == nil {
		cfg.Uniform = ecology.NewUniform(time.Now().UnixNano())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w, err := world.New(cfg.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	w.SetClimate(cfg.Params.Climate(w.Month(), cfg.Uniform))

	b, err := barrier.New(cfg.Barrier, TeamSize)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		cfg:     cfg,
		world:   w,
		barrier: b,
		logger:  logger,
	}
	for _, role := range []Role{RoleWatcher, RoleRyeGrass, RoleRabbits, RoleFoxes} {
		c.agents = append(c.agents, &Agent{
			role:     role,
			world:    w,
			barrier:  b,
			endYear:  cfg.EndYear,
			behavior: newBehavior(role, cfg.Params, cfg.Uniform, sink),
			logger:   logger,
		})
	}
	return c, nil
}

// AddHook registers h with every agent. Call before Run.
func (c *Coordinator) AddHook(h Hook) {
	for _, a := range c.agents {
		a.hooks = append(a.hooks, h)
	}
}

// Initial returns the world as the agents will first see it.
func (c *Coordinator) Initial() world.Snapshot {
	return c.world.Snapshot()
}

// Run launches the team and blocks until every agent has returned.
//
// Cancelling ctx breaks the barrier; it is a watchdog, not a protocol step.
// When an agent fails, its error is returned in preference to the
// barrier.ErrBroken errors of the peers it released.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	if !c.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRan
	}

	stop := context.AfterFunc(ctx, c.barrier.Break)
	defer stop()

	c.logger.Info("starting ecosystem run",
		slog.Int("start_year", c.cfg.Start.Year),
		slog.Int("start_month", c.cfg.Start.Month),
		slog.Int("end_year", c.cfg.EndYear),
		slog.Int("team", len(c.agents)),
		slog.String("barrier", c.cfg.Barrier),
	)
	start := time.Now()

	errs := make([]error, len(c.agents))
	var wg sync.WaitGroup
	for i, a := range c.agents {
		wg.Add(1)
		go func(idx int, a *Agent) {
			defer wg.Done()
			errs[idx] = a.Run()
		}(i, a)
	}
	wg.Wait()

	if err := firstCause(errs); err != nil {
		if errors.Is(err, barrier.ErrBroken) && ctx.Err() != nil {
			err = fmt.Errorf("run interrupted: %w", errors.Join(ctx.Err(), err))
		}
		c.logger.Error("ecosystem run failed", slog.Any("error", err))
		return nil, err
	}

	watcher := c.agents[0]
	summary := &Summary{
		Cycles:  watcher.cycles,
		Records: watcher.records,
		Elapsed: time.Since(start),
		Final:   c.world.Snapshot(),
	}
	c.logger.Info("ecosystem run finished",
		slog.Int("cycles", summary.Cycles),
		slog.Int("records", summary.Records),
		slog.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// firstCause prefers the error that started a failure over the ErrBroken
// errors it produced in the rest of the team.
func firstCause(errs []error) error {
	var broken error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, barrier.ErrBroken) {
			return err
		}
		if broken == nil {
			broken = err
		}
	}
	return broken
}
