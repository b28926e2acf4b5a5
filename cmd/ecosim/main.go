package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/ecosim/internal/agent"
	"github.com/san-kum/ecosim/internal/analysis"
	"github.com/san-kum/ecosim/internal/barrier"
	"github.com/san-kum/ecosim/internal/config"
	"github.com/san-kum/ecosim/internal/export"
	"github.com/san-kum/ecosim/internal/sink"
	"github.com/san-kum/ecosim/internal/storage"
	"github.com/san-kum/ecosim/internal/telemetry"
	"github.com/san-kum/ecosim/internal/viz"
	"github.com/san-kum/ecosim/internal/world"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	startYear  int
	endYear    int
	startMonth int
	rabbits    int
	foxes      int
	height     float64
	seed       int64
	barrierKey string
	compress   bool
	sqlitePath string

	metricsAddr string
	delay       time.Duration

	svgOut    string
	svgPhase  bool
	svgWidth  int
	svgHeight int

	// bench
	teamSize int
	rounds   int
)

// main registers the commands and flags of the ecosim CLI and executes the
// root command, exiting with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "ecosim",
		Short: "lock-step four species ecosystem simulation",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(logLevel))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ecosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and store its records",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().DurationVar(&delay, "delay", 50*time.Millisecond, "pause after every simulated month")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run records to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and records to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize populations and cycles of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export populations or phase portrait to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().BoolVar(&svgPhase, "phase", false, "plot rabbits against foxes instead of over time")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width in pixels")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height in pixels")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tYEARS\tRABBITS\tFOXES\tHEIGHT\tBARRIER")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d-%d\t%d\t%d\t%.1f\t%s\n",
					name, p.StartYear, p.EndYear, p.InitState.Rabbits, p.InitState.Foxes, p.InitState.Height, p.Barrier)
			}
			return w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark barrier implementations",
		Args:  cobra.NoArgs,
		RunE:  benchBarriers,
	}
	benchCmd.Flags().IntVar(&teamSize, "team", agent.TeamSize, "goroutines per barrier")
	benchCmd.Flags().IntVar(&rounds, "rounds", 100000, "barrier rounds")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func addRunFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&startYear, "start-year", def.StartYear, "first simulated year")
	cmd.Flags().IntVar(&endYear, "end-year", def.EndYear, "year the run stops at (exclusive)")
	cmd.Flags().IntVar(&startMonth, "start-month", def.StartMonth, "first simulated month (0-11)")
	cmd.Flags().IntVar(&rabbits, "rabbits", def.InitState.Rabbits, "initial rabbit population")
	cmd.Flags().IntVar(&foxes, "foxes", def.InitState.Foxes, "initial fox population")
	cmd.Flags().Float64Var(&height, "height", def.InitState.Height, "initial grass height (inches)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "climate noise seed")
	cmd.Flags().StringVar(&barrierKey, "barrier", def.Barrier, "barrier implementation ("+strings.Join(barrier.Kinds(), ", ")+")")
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the stored records")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also append records to this sqlite database")
}

// resolveConfig layers preset, config file and explicitly set flags, in that
// order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("start-year") {
		cfg.StartYear = startYear
	}
	if flags.Changed("end-year") {
		cfg.EndYear = endYear
	}
	if flags.Changed("start-month") {
		cfg.StartMonth = startMonth
	}
	if flags.Changed("rabbits") {
		cfg.InitState.Rabbits = rabbits
	}
	if flags.Changed("foxes") {
		cfg.InitState.Foxes = foxes
	}
	if flags.Changed("height") {
		cfg.InitState.Height = height
	}
	if flags.Changed("seed") || (preset == "" && configFile == "") {
		cfg.Seed = seed
	}
	if flags.Changed("barrier") {
		cfg.Barrier = barrierKey
	}
	if flags.Changed("compress") {
		cfg.Output.Compress = compress
	}
	if flags.Changed("sqlite") {
		cfg.Output.SQLite = sqlitePath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSinks creates the stored run plus the optional sqlite index. The
// returned close func finishes the run with the outcome.
func openSinks(cfg *config.Config) (*storage.Run, sink.Writer, func(*agent.Summary, error) error, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, nil, nil, err
	}

	run, err := st.Create(cfg, preset)
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Output.SQLite == "" {
		return run, run, run.Finish, nil
	}

	db, err := sink.OpenSQLite(cfg.Output.SQLite, run.ID())
	if err != nil {
		_ = run.Finish(nil, err)
		return nil, nil, nil, err
	}
	finish := func(s *agent.Summary, runErr error) error {
		return errors.Join(run.Finish(s, runErr), db.Close())
	}
	return run, sink.Multi(run, db), finish, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	run, out, finish, err := openSinks(cfg)
	if err != nil {
		return err
	}

	coord, err := agent.NewCoordinator(cfg.RunConfig(slog.Default()), out)
	if err != nil {
		return errors.Join(err, finish(nil, err))
	}

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		coord.AddHook(telemetry.NewMetrics(reg))
		srv := &http.Server{Addr: metricsAddr, Handler: telemetry.Handler(reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		defer srv.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d-%d (%d months)...\n", cfg.StartYear, cfg.EndYear, cfg.Months())
	summary, runErr := coord.Run(ctx)
	if err := finish(summary, runErr); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("completed in %v\n", summary.Elapsed)
	fmt.Printf("run id: %s\n", run.ID())
	fmt.Printf("records: %d\n", summary.Records)
	fmt.Println("\nfinal state:")
	fmt.Printf("  rabbits: %d\n", summary.Final.Rabbits)
	fmt.Printf("  foxes:   %d\n", summary.Final.Foxes)
	fmt.Printf("  height:  %.2f in\n", summary.Final.Height)

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	run, out, finish, err := openSinks(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(viz.NewModel(fmt.Sprintf("ecosystem %s", run.ID()), cfg.Months(), cancel))
	liveSink := viz.NewSink(p, delay)

	coord, err := agent.NewCoordinator(cfg.RunConfig(slog.New(slog.DiscardHandler)), sink.Multi(out, liveSink))
	if err != nil {
		return errors.Join(err, finish(nil, err))
	}

	var (
		wg      sync.WaitGroup
		summary *agent.Summary
		runErr  error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		summary, runErr = coord.Run(ctx)
		p.Send(viz.DoneMsg{Summary: summary, Err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		wg.Wait()
		return errors.Join(err, finish(summary, runErr))
	}
	cancel()
	wg.Wait()

	return finish(summary, runErr)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tYEARS\tRECORDS\tBARRIER\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d-%d\t%d\t%s\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.StartYear,
			run.EndYear,
			run.Records,
			run.Barrier,
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadRecords(runID)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("months: %d\n\n", len(records))

	columns := []struct {
		caption string
		value   func(world.Record) float64
	}{
		{"rabbits", func(r world.Record) float64 { return float64(r.Rabbits) }},
		{"foxes", func(r world.Record) float64 { return float64(r.Foxes) }},
		{"grass height (in)", func(r world.Record) float64 { return r.Height }},
		{"temperature (°F)", func(r world.Record) float64 { return r.Temperature }},
		{"precipitation (in)", func(r world.Record) float64 { return r.Precipitation }},
	}

	for _, col := range columns {
		data := make([]float64, len(records))
		for i, r := range records {
			data[i] = col.value(r)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write(sink.Header); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write(sink.Fields(r)); err != nil {
			return err
		}
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadRecords(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*storage.RunMetadata
		Months []world.Record `json:"months"`
	}{meta, records})
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("no data to analyze")
	}

	columns := []struct {
		name string
		col  analysis.Column
	}{
		{"rabbits", analysis.Rabbits},
		{"foxes", analysis.Foxes},
		{"height", analysis.Height},
		{"temperature", analysis.Temperature},
		{"precipitation", analysis.Precipitation},
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES	MIN	MAX	MEAN	FINAL	PERIOD	EXTINCT")
	for _, c := range columns {
		data := analysis.Series(records, c.col)
		s := analysis.Describe(data)

		extinct := "-"
		if c.name == "rabbits" || c.name == "foxes" {
			if i := analysis.FirstExtinction(records, c.col); i >= 0 {
				extinct = fmt.Sprintf("%d/%02d", records[i].Year, records[i].Month+1)
			}
		}

		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t%s\n",
			c.name, s.Min, s.Max, s.Mean, s.Final, analysis.DominantPeriod(data), extinct)
	}

	return w.Flush()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}

	lines := export.Populations(records, 4)
	if svgPhase {
		lines = export.PhasePortrait(records)
	}

	if svgOut == "" {
		return export.Chart(os.Stdout, lines, svgWidth, svgHeight)
	}

	f, err := os.Create(svgOut)
	if err != nil {
		return err
	}
	if err := export.Chart(f, lines, svgWidth, svgHeight); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", svgOut)
	return nil
}

func benchBarriers(cmd *cobra.Command, args []string) error {
	if teamSize < 1 || rounds < 1 {
		return fmt.Errorf("team and rounds must be positive")
	}

	fmt.Printf("benchmarking %d goroutines x %d rounds\n\n", teamSize, rounds)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BARRIER\tTIME\tROUNDS/SEC\tNS/ROUND")

	for _, kind := range barrier.Kinds() {
		b, err := barrier.New(kind, teamSize)
		if err != nil {
			return err
		}

		start := time.Now()
		var wg sync.WaitGroup
		errs := make([]error, teamSize)
		for i := 0; i < teamSize; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				for r := 0; r < rounds; r++ {
					if err := b.Wait(); err != nil {
						errs[idx] = err
						return
					}
				}
			}(i)
		}
		wg.Wait()
		elapsed := time.Since(start)

		if err := errors.Join(errs...); err != nil {
			return err
		}

		fmt.Fprintf(w, "%s\t%v\t%.0f\t%d\n",
			kind, elapsed.Round(time.Microsecond), float64(rounds)/elapsed.Seconds(), elapsed.Nanoseconds()/int64(rounds))
	}

	return w.Flush()
}
