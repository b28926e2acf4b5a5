package agent_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ecosim/internal/agent"
	"github.com/san-kum/ecosim/internal/barrier"
	"github.com/san-kum/ecosim/internal/ecology"
	"github.com/san-kum/ecosim/internal/sink"
	"github.com/san-kum/ecosim/internal/world"
)

func scenario(kind string) agent.Config {
	return agent.Config{
		Start:   world.Initial{Year: 2023, Month: 0, Height: 5.0, Rabbits: 10, Foxes: 1},
		EndYear: 2029,
		Params:  ecology.DefaultParams(),
		Barrier: kind,
		Uniform: ecology.NewUniform(42),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// recorder keeps each agent's events in the order that agent produced them.
type recorder struct {
	mu     sync.Mutex
	byRole map[agent.Role][]agent.Event
}

func newRecorder() *recorder {
	return &recorder{byRole: make(map[agent.Role][]agent.Event)}
}

func (r *recorder) OnEvent(ev agent.Event) {
	r.mu.Lock()
	r.byRole[ev.Role] = append(r.byRole[ev.Role], ev)
	r.mu.Unlock()
}

func runWithTimeout(ctx context.Context, c *agent.Coordinator) (*agent.Summary, error) {
	type out struct {
		s   *agent.Summary
		err error
	}
	done := make(chan out, 1)
	go func() {
		s, err := c.Run(ctx)
		done <- out{s, err}
	}()

	var o out
	Eventually(done).WithTimeout(30 * time.Second).Should(Receive(&o))
	return o.s, o.err
}

var _ = Describe("Coordinator", func() {
	for _, kind := range barrier.Kinds() {
		kind := kind

		Context("with the "+kind+" barrier", func() {
			It("persists every month of the scenario in order", func() {
				mem := sink.NewMemory()
				c, err := agent.NewCoordinator(scenario(kind), mem)
				Expect(err).NotTo(HaveOccurred())

				summary, err := runWithTimeout(context.Background(), c)
				Expect(err).NotTo(HaveOccurred())
				Expect(summary.Records).To(Equal(72))
				Expect(summary.Cycles).To(Equal(72))
				Expect(summary.Final.Year).To(Equal(2029))
				Expect(summary.Final.Month).To(Equal(0))

				recs := mem.Records()
				Expect(recs).To(HaveLen(72))
				Expect(recs[0].Year).To(Equal(2023))
				Expect(recs[0].Month).To(Equal(0))
				Expect(recs[71].Year).To(Equal(2028))
				Expect(recs[71].Month).To(Equal(11))

				for i, r := range recs {
					Expect(r.Rabbits).To(BeNumerically(">=", 0))
					Expect(r.Foxes).To(BeNumerically(">=", 0))
					Expect(r.Height).To(BeNumerically(">=", 0.0))
					Expect(r.Precipitation).To(BeNumerically(">=", 0.0))
					Expect(r.Month).To(Equal(i % world.MonthsPerYear))
					Expect(r.Year).To(Equal(2023 + i/world.MonthsPerYear))
				}
			})

			It("keeps every field single-writer and inside its phase", func() {
				rec := newRecorder()
				c, err := agent.NewCoordinator(scenario(kind), sink.NewMemory())
				Expect(err).NotTo(HaveOccurred())
				c.AddHook(rec)

				_, err = runWithTimeout(context.Background(), c)
				Expect(err).NotTo(HaveOccurred())

				owners := map[world.Field]agent.Role{}
				writes := map[world.Field]int{}

				for role, events := range rec.byRole {
					var last agent.Event
					for _, ev := range events {
						switch ev.Kind {
						case agent.EventWrite:
							if owner, ok := owners[ev.Field]; ok {
								Expect(owner).To(Equal(role), "field %s", ev.Field)
							}
							owners[ev.Field] = role
							writes[ev.Field]++

							Expect(last.Kind).To(Equal(agent.EventDepart))
							Expect(last.Cycle).To(Equal(ev.Cycle))
							if role == agent.RoleWatcher {
								Expect(last.Phase).To(Equal(agent.PhaseCommitted))
							} else {
								Expect(last.Phase).To(Equal(agent.PhaseComputed))
							}
						case agent.EventArrive, agent.EventDepart:
							last = ev
						}
					}
					Expect(events).NotTo(BeEmpty(), "role %s", role)
				}

				Expect(owners).To(HaveKeyWithValue(world.FieldHeight, agent.RoleRyeGrass))
				Expect(owners).To(HaveKeyWithValue(world.FieldRabbits, agent.RoleRabbits))
				Expect(owners).To(HaveKeyWithValue(world.FieldFoxes, agent.RoleFoxes))
				Expect(owners).To(HaveKeyWithValue(world.FieldClock, agent.RoleWatcher))
				Expect(owners).To(HaveKeyWithValue(world.FieldTemperature, agent.RoleWatcher))
				Expect(owners).To(HaveKeyWithValue(world.FieldPrecipitation, agent.RoleWatcher))
				for f, n := range writes {
					Expect(n).To(Equal(72), "field %s", f)
				}
			})

			It("stops the team when the sink fails", func() {
				boom := errors.New("disk full")
				n := 0
				failing := sink.Func(func(world.Record) error {
					n++
					if n == 5 {
						return boom
					}
					return nil
				})

				c, err := agent.NewCoordinator(scenario(kind), failing)
				Expect(err).NotTo(HaveOccurred())

				_, err = runWithTimeout(context.Background(), c)
				Expect(err).To(MatchError(boom))
				Expect(errors.Is(err, barrier.ErrBroken)).To(BeFalse())
				Expect(n).To(Equal(5))
			})

			It("breaks the team when the context is cancelled", func() {
				cfg := scenario(kind)
				cfg.EndYear = cfg.Start.Year + 1000

				ctx, cancel := context.WithCancel(context.Background())
				defer cancel()

				count := 0
				cancelling := sink.Func(func(world.Record) error {
					count++
					if count == 3 {
						cancel()
					}
					return nil
				})

				c, err := agent.NewCoordinator(cfg, cancelling)
				Expect(err).NotTo(HaveOccurred())

				_, err = runWithTimeout(ctx, c)
				Expect(err).To(MatchError(context.Canceled))
				Expect(err).To(MatchError(barrier.ErrBroken))
			})
		})
	}

	DescribeTable("terminates after exactly twelve records per year",
		func(years, startMonth, want int) {
			cfg := scenario(barrier.KindSpin)
			cfg.Start.Month = startMonth
			cfg.EndYear = cfg.Start.Year + years

			mem := sink.NewMemory()
			c, err := agent.NewCoordinator(cfg, mem)
			Expect(err).NotTo(HaveOccurred())

			summary, err := runWithTimeout(context.Background(), c)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Records).To(Equal(want))
			Expect(mem.Len()).To(Equal(want))
		},
		Entry("no years", 0, 0, 0),
		Entry("one year", 1, 0, 12),
		Entry("ten years", 10, 0, 120),
		Entry("half year start", 1, 6, 6),
	)

	It("produces byte-identical output for a constant noise source", func() {
		render := func() []byte {
			cfg := scenario(barrier.KindSpin)
			cfg.Uniform = ecology.Constant(0.5)

			var buf bytes.Buffer
			csvSink := sink.NewCSV(&buf)
			c, err := agent.NewCoordinator(cfg, csvSink)
			Expect(err).NotTo(HaveOccurred())
			_, err = runWithTimeout(context.Background(), c)
			Expect(err).NotTo(HaveOccurred())
			Expect(csvSink.Close()).To(Succeed())
			return buf.Bytes()
		}

		first := render()
		Expect(first).NotTo(BeEmpty())
		Expect(render()).To(Equal(first))
	})

	It("computes the climate of the start month before launch", func() {
		cfg := scenario(barrier.KindCond)
		cfg.Uniform = ecology.Midpoint()
		c, err := agent.NewCoordinator(cfg, sink.NewMemory())
		Expect(err).NotTo(HaveOccurred())

		temp, precip := cfg.Params.Climate(0, ecology.Midpoint())
		init := c.Initial()
		Expect(init.Temperature).To(Equal(temp))
		Expect(init.Precipitation).To(Equal(precip))
		Expect(init.Rabbits).To(Equal(10))
	})

	It("refuses to run twice", func() {
		cfg := scenario(barrier.KindSpin)
		cfg.EndYear = cfg.Start.Year + 1
		c, err := agent.NewCoordinator(cfg, sink.NewMemory())
		Expect(err).NotTo(HaveOccurred())

		_, err = runWithTimeout(context.Background(), c)
		Expect(err).NotTo(HaveOccurred())
		_, err = c.Run(context.Background())
		Expect(err).To(MatchError(agent.ErrAlreadyRan))
	})

	DescribeTable("rejects configurations that cannot start",
		func(mutate func(*agent.Config), want error) {
			cfg := scenario(barrier.KindSpin)
			mutate(&cfg)
			_, err := agent.NewCoordinator(cfg, sink.NewMemory())
			Expect(err).To(MatchError(want))
		},
		Entry("end before start", func(c *agent.Config) { c.EndYear = 2000 }, agent.ErrInvalidConfig),
		Entry("month out of range", func(c *agent.Config) { c.Start.Month = 12 }, agent.ErrInvalidConfig),
		Entry("negative seed", func(c *agent.Config) { c.Start.Rabbits = -1 }, agent.ErrInvalidConfig),
		Entry("unknown barrier", func(c *agent.Config) { c.Barrier = "ticket" }, barrier.ErrUnknownKind),
	)

	It("requires a sink", func() {
		_, err := agent.NewCoordinator(scenario(barrier.KindSpin), nil)
		Expect(err).To(MatchError(agent.ErrInvalidConfig))
	})
})
