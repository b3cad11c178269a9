package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/analysis"
	"github.com/san-kum/partsim/internal/automation"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/export"
	"github.com/san-kum/partsim/internal/optim"
	"github.com/san-kum/partsim/internal/storage"
	"github.com/san-kum/partsim/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	logFile   string

	// Config sources, applied in order: preset, file, flags.
	preset     string
	configFile string

	dt         float64
	duration   float64
	seed       int64
	subSteps   int
	workers    int
	pattern    string
	count      int
	radius     float64
	elasticity float64
	speed      float64
	gravityY   float64
	attraction bool
	backend    string
	params     []string

	runName string
	noSave  bool

	svgOut    string
	svgWidth  int
	svgSeries string

	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	tuneMetric string
	tuneSteps  int

	trials int

	analyzeSeries string
	chaosEps      float64

	logger *log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "partsim",
		Short:         "2d verlet particle solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(os.Stderr)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			l, closeLog, err := tuiLogger()
			if err != nil {
				return err
			}
			defer closeLog()
			return viz.RunInteractive(l)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".partsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json, logfmt)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file for the live view")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset or pattern)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run samples",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(cmd.OutOrStdout(), args[0])
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(cmd.OutOrStdout(), args[0])
		},
	}

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render the final frame or a sample series as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSVG,
	}
	svgCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")
	svgCmd.Flags().IntVar(&svgWidth, "width", 600, "image width in pixels")
	svgCmd.Flags().StringVar(&svgSeries, "series", "", "plot a sample column instead of the final frame")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the solver at increasing particle counts",
		Args:  cobra.NoArgs,
		RunE:  benchSolver,
	}
	addConfigFlags(benchCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [param]",
		Short: "sweep one parameter over a range",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "range start")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 16, "range end")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	tuneCmd := &cobra.Command{
		Use:   "tune [param=min:max]...",
		Short: "grid search parameters minimizing a metric",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTune,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "energy_drift", "metric to minimize")
	tuneCmd.Flags().IntVar(&tuneSteps, "grid", 3, "values per parameter")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a sequence of presets from a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run one config over many seeds",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 8, "number of seeds")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a sample series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeSeries, "series", "energy", "sample column to analyze")

	chaosCmd := &cobra.Command{
		Use:   "chaos",
		Short: "measure how fast two nearby runs diverge",
		Args:  cobra.NoArgs,
		RunE:  runChaos,
	}
	addConfigFlags(chaosCmd)
	chaosCmd.Flags().Float64Var(&chaosEps, "eps", 1e-6, "initial nudge")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets, spawn patterns and force backends",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, svgCmd,
		benchCmd, sweepCmd, tuneCmd, scenarioCmd, monteCarloCmd, analyzeCmd, chaosCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	opts := log.Options{Level: level, ReportTimestamp: true, TimeFormat: time.Kitchen}
	switch logFormat {
	case "text":
		opts.Formatter = log.TextFormatter
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", logFormat)
	}
	return log.NewWithOptions(w, opts), nil
}

// tuiLogger keeps log lines off the terminal while a full-screen view owns it.
func tuiLogger() (*log.Logger, func(), error) {
	if logFile == "" {
		return log.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	l, err := newLogger(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return l, func() { f.Close() }, nil
}

func addConfigFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "start from a named preset")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.Float64Var(&dt, "dt", def.Dt, "frame length")
	f.Float64Var(&duration, "time", def.Duration, "simulated duration")
	f.Int64Var(&seed, "seed", def.Seed, "random seed")
	f.IntVar(&subSteps, "substeps", def.SubSteps, "sub-steps per frame")
	f.IntVar(&workers, "workers", 0, "integration workers (0 = one per CPU)")
	f.StringVar(&pattern, "pattern", def.Spawn.Pattern, "spawn pattern")
	f.IntVar(&count, "count", def.Spawn.Count, "particles to spawn")
	f.Float64Var(&radius, "radius", def.Spawn.Radius, "particle radius")
	f.Float64Var(&elasticity, "elasticity", def.Spawn.Elasticity, "particle elasticity")
	f.Float64Var(&speed, "speed", def.Spawn.Speed, "spawn speed")
	f.Float64Var(&gravityY, "gravity", def.Gravity.Y, "vertical gravity")
	f.BoolVar(&attraction, "attraction", false, "enable mutual attraction")
	f.StringVar(&backend, "backend", def.Attraction.Backend, "attraction backend")
	f.StringArrayVar(&params, "param", nil, "set a parameter, name=value (repeatable)")
}

// resolveConfig builds the config for cmd: preset, then config file, then
// any flag the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("dt") {
		cfg.Dt = dt
	}
	if changed("time") {
		cfg.Duration = duration
	}
	if changed("seed") {
		cfg.Seed = seed
	}
	if changed("substeps") {
		cfg.SubSteps = subSteps
	}
	if changed("workers") {
		cfg.Workers = workers
	}
	if changed("pattern") {
		cfg.Spawn.Pattern = pattern
	}
	if changed("count") {
		cfg.Spawn.Count = count
	}
	if changed("radius") {
		cfg.Spawn.Radius = radius
	}
	if changed("elasticity") {
		cfg.Spawn.Elasticity = elasticity
	}
	if changed("speed") {
		cfg.Spawn.Speed = speed
	}
	if changed("gravity") {
		cfg.Gravity = r2.Vec{X: cfg.Gravity.X, Y: gravityY}
	}
	if changed("attraction") {
		cfg.Attraction.Enabled = attraction
	}
	if changed("backend") {
		cfg.Attraction.Backend = backend
	}

	for _, p := range params {
		name, raw, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("--param %q: want name=value", p)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("--param %s: %w", name, err)
		}
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.Validate()
}

func defaultName(cfg *config.Config) string {
	if preset != "" {
		return preset
	}
	return cfg.Spawn.Pattern
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	name := runName
	if name == "" {
		name = defaultName(cfg)
	}

	exp, err := experiment.New(cfg, experiment.WithLogger(logger))
	if err != nil {
		return err
	}
	defer exp.Close()

	result, err := exp.Run(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		logger.Warn("interrupted; keeping partial result", "steps", result.StepsTaken)
	}

	out := cmd.OutOrStdout()
	if !noSave {
		runID, err := storage.New(dataDir).Save(name, cfg, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run id: %s\n", runID)
	}

	fmt.Fprintf(out, "completed in %v\n", result.WallTime.Round(time.Millisecond))
	fmt.Fprintf(out, "steps: %d\n", result.StepsTaken)
	fmt.Fprintf(out, "update: %v (collide %v, integrate %v)\n",
		result.Profile.Total, result.Profile.Collide, result.Profile.Integrate)
	fmt.Fprintln(out, "\nmetrics:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, name := range sortedNames(result.Metrics) {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, result.Metrics[name])
	}
	return w.Flush()
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	l, closeLog, err := tuiLogger()
	if err != nil {
		return err
	}
	defer closeLog()
	return viz.Run(cfg, defaultName(cfg), l)
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tPATTERN\tPARTICLES\tSTEPS\tSUBSTEPS\tWALL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%v\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Pattern,
			run.Particles,
			run.Steps,
			run.SubSteps,
			run.WallTime.Round(time.Millisecond),
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
	samples, _, columns, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "name: %s\n", meta.Name)
	fmt.Fprintf(out, "samples: %d\n\n", len(samples))

	for col, caption := range columns {
		data := column(samples, col)
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}
	return nil
}

func column(samples [][]float64, col int) []float64 {
	data := make([]float64, len(samples))
	for i, row := range samples {
		if col < len(row) {
			data[i] = row[col]
		}
	}
	return data
}

func renderSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var svg string
	if svgSeries != "" {
		samples, times, columns, err := st.LoadSamples(runID)
		if err != nil {
			return err
		}
		col := -1
		for i, c := range columns {
			if c == svgSeries {
				col = i
			}
		}
		if col < 0 {
			return fmt.Errorf("unknown series %q (available: %v)", svgSeries, columns)
		}
		svg = export.SeriesToSVG(times, column(samples, col), svgWidth, svgWidth/2, "#00aaff")
	} else {
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		frame, err := st.LoadFrame(runID)
		if err != nil {
			return err
		}
		svg = export.SnapshotSVG(frame, meta.Config.World.Size(), svgWidth)
	}

	if svgOut == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), svg)
		return err
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	logger.Info("wrote svg", "path", svgOut)
	return nil
}

func benchSolver(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	counts := []int{100, 500, 1000, 2000}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "benchmarking %s, %d sub-steps, %.1fs per run\n\n", base.Spawn.Pattern, base.SubSteps, base.Duration)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tSTEPS\tWALL\tSTEPS/SEC\tUPDATE\tCOLLIDE\tINTEGRATE\tCONTACTS")

	for _, n := range counts {
		cfg := base.Clone()
		cfg.Spawn.Count = n

		exp, err := experiment.New(cfg, experiment.WithLogger(log.New(io.Discard)))
		if err != nil {
			return err
		}
		result, err := exp.Run(cmd.Context())
		exp.Close()
		if err != nil {
			return err
		}

		perSec := float64(result.StepsTaken) / result.WallTime.Seconds()
		p := result.Profile
		fmt.Fprintf(w, "%d\t%d\t%v\t%.1f\t%v\t%v\t%v\t%.0f\n",
			n, result.StepsTaken, result.WallTime.Round(time.Millisecond), perSec,
			p.Total.Round(time.Microsecond), p.Collide.Round(time.Microsecond),
			p.Integrate.Round(time.Microsecond), p.Contacts)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	sweep := &automation.ParameterSweep{
		Base:      cfg,
		ParamName: args[0],
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Workers:   cfg.Workers,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPARTICLES\tFINAL_ENERGY\tDRIFT\tPENETRATION\tMAX_SPEED\tWALL\n", strings.ToUpper(args[0]))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%.3f\t%.4f\t%.4f\t%.1f\t%v\n",
			r.ParamValue, r.Particles, r.FinalEnergy, r.EnergyDrift, r.Penetration, r.MaxSpeed,
			r.WallTime.Round(time.Millisecond))
	}
	return w.Flush()
}

// parseRange reads name=min:max.
func parseRange(arg string) (string, float64, float64, error) {
	name, rng, ok := strings.Cut(arg, "=")
	if !ok {
		return "", 0, 0, fmt.Errorf("%q: want name=min:max", arg)
	}
	lo, hi, ok := strings.Cut(rng, ":")
	if !ok {
		return "", 0, 0, fmt.Errorf("%q: want name=min:max", arg)
	}
	a, err := strconv.ParseFloat(lo, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%s min: %w", name, err)
	}
	b, err := strconv.ParseFloat(hi, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%s max: %w", name, err)
	}
	return name, a, b, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if tuneSteps < 2 {
		return fmt.Errorf("--grid must be at least 2")
	}

	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		name, lo, hi, err := parseRange(arg)
		if err != nil {
			return err
		}
		values := make([]float64, tuneSteps)
		for i := range values {
			values[i] = lo + (hi-lo)*float64(i)/float64(tuneSteps-1)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	best, value, trials, err := optim.NewGridSearch(names, ranges).Search(cmd.Context(), cfg, experiment.NewRegistry(), tuneMetric)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "evaluated %d combinations\n", len(trials))
	fmt.Fprintf(out, "best %s: %.6f\n", tuneMetric, value)
	for _, name := range names {
		fmt.Fprintf(out, "  %s = %g\n", name, best[name])
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger.Info("scenario", "name", scenario.Name, "steps", len(scenario.Steps))

	results, err := automation.RunScenario(cmd.Context(), scenario, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	out := cmd.OutOrStdout()
	for i, result := range results {
		step := scenario.Steps[i]
		if step.SaveAs == "" {
			fmt.Fprintf(out, "step %d (%s): %d steps, drift %.4f\n", i+1, step.Preset, result.StepsTaken, result.EnergyDrift)
			continue
		}
		cfg, err := step.Config()
		if err != nil {
			return err
		}
		runID, err := st.Save(step.SaveAs, cfg, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "step %d (%s): saved %s\n", i+1, step.Preset, runID)
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:      cfg,
		NumTrials: trials,
		Seed:      cfg.Seed,
		Workers:   cfg.Workers,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSEED\tDRIFT\tPENETRATION\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%v\n", r.TrialID, r.Seed, r.EnergyDrift, r.Penetration, r.Stable)
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Fprintf(w, "\nstable: %d  unstable: %d\n", stable, unstable)
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, times, columns, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	col := -1
	for i, c := range columns {
		if c == analyzeSeries {
			col = i
		}
	}
	if col < 0 {
		return fmt.Errorf("unknown series %q (available: %v)", analyzeSeries, columns)
	}
	if len(samples) < 4 {
		return fmt.Errorf("need at least 4 samples, have %d", len(samples))
	}

	// Samples are evenly spaced except possibly the last one.
	data := column(samples, col)[:len(samples)-1]
	interval := times[1] - times[0]
	ps := analysis.PowerSpectrum(data)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "frequency analysis: %s\n", meta.ID)
	fmt.Fprintf(out, "series: %s, %d samples every %.4fs\n\n", analyzeSeries, len(data), interval)
	fmt.Fprintln(out, asciigraph.Plot(ps[1:],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+analyzeSeries+")"),
	))
	fmt.Fprintln(out)

	freq, _ := analysis.DominantFrequency(data, interval)
	fmt.Fprintf(out, "dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Fprintf(out, "period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func runChaos(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	res, err := analysis.Divergence(cmd.Context(), cfg, chaosEps)
	if err != nil {
		return err
	}

	if len(res.Separation) == 0 {
		return fmt.Errorf("run too short: %d step", res.Steps)
	}

	out := cmd.OutOrStdout()
	if len(res.Separation) > 1 {
		logSep := make([]float64, len(res.Separation))
		for i, d := range res.Separation {
			logSep[i] = math.Log10(math.Max(d, chaosEps*1e-3))
		}
		fmt.Fprintln(out, asciigraph.Plot(logSep,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("log10 separation"),
		))
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "steps: %d\n", res.Steps)
	fmt.Fprintf(out, "final separation: %.3g\n", res.Separation[len(res.Separation)-1])
	fmt.Fprintf(out, "growth rate: %.4f /s\n", res.Exponent)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "presets:")
	for _, p := range config.ListPresets() {
		cfg := config.GetPreset(p)
		fmt.Fprintf(out, "  %-10s %s, %d particles, %.0fs\n", p, cfg.Spawn.Pattern, cfg.Spawn.Count, cfg.Duration)
	}
	registry := experiment.NewRegistry()
	fmt.Fprintf(out, "\npatterns: %s\n", strings.Join(registry.ListPatterns(), ", "))
	fmt.Fprintf(out, "backends: %s\n", strings.Join(registry.ListBackends(), ", "))
	fmt.Fprintf(out, "params:   %s\n", strings.Join(config.Params, ", "))
	return nil
}
