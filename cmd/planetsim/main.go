package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/planetsim/internal/analysis"
	"github.com/san-kum/planetsim/internal/automation"
	"github.com/san-kum/planetsim/internal/compute"
	"github.com/san-kum/planetsim/internal/config"
	"github.com/san-kum/planetsim/internal/driver"
	"github.com/san-kum/planetsim/internal/experiment"
	"github.com/san-kum/planetsim/internal/export"
	"github.com/san-kum/planetsim/internal/gui"
	"github.com/san-kum/planetsim/internal/optim"
	"github.com/san-kum/planetsim/internal/sim"
	"github.com/san-kum/planetsim/internal/storage"
	"github.com/san-kum/planetsim/internal/stream"
	"github.com/san-kum/planetsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	particles  int
	steps      int
	dt         float64
	seed       uint32
	workers    int
	backend    string
	collisions bool
	movement   bool
	orbit      bool
	params     map[string]string
	metricList []string
	// Frame rate for live views
	frameRate int
	// Projection axes
	xAxis string
	yAxis string
	// analyze / tune
	analyzeMetric string
	tuneMetric    string
	benchSteps    int
	svgKind       string
	sweepSpec     string
	trials        int
	perturb       float64
	mcSeed        int64
	grid          []string
	runs          int
	addr          string
	outFile       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "planetsim",
		Short: "particle cloud around a planet",
		Run: func(cmd *cobra.Command, args []string) {
			gui.RunInteractive(workers, log.Default())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".planetsim", "data directory")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "compute lanes (0 = all cores)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringSliceVar(&metricList, "metrics", nil, "metrics to record (default: all but overlaps)")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run the same scenario from several seeds",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addSimFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 4, "number of seeds")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot metric series of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a metric series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeMetric, "metric", "mean_radius", "metric series to analyze")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "scatter plot of the final particle positions",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotPlot,
	}
	snapshotCmd.Flags().StringVar(&xAxis, "x-axis", "x", "horizontal axis (x, y or z)")
	snapshotCmd.Flags().StringVar(&yAxis, "y-axis", "z", "vertical axis (x, y or z)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the final snapshot to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a run to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&svgKind, "kind", "scatter", "scatter, camera or series")
	exportSVGCmd.Flags().StringVar(&xAxis, "x-axis", "x", "scatter horizontal axis")
	exportSVGCmd.Flags().StringVar(&yAxis, "y-axis", "z", "scatter vertical axis")
	exportSVGCmd.Flags().StringVar(&analyzeMetric, "metric", "mean_radius", "series to draw")
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark ticks per second across backends",
		Args:  cobra.NoArgs,
		RunE:  benchTicks,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 100, "ticks per measurement")
	benchCmd.Flags().BoolVar(&collisions, "collisions", false, "include the collision pass")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search parameters minimizing a metric",
		Args:  cobra.NoArgs,
		RunE:  tuneParams,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "kinetic_energy", "metric to minimize")
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "param=lo:hi:n (repeatable)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and report final metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepSpec, "param", "friction=0.1:0.9:5", "param=lo:hi:n")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "check stability under random parameter perturbations",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "relative perturbation of every parameter")
	monteCarloCmd.Flags().Int64Var(&mcSeed, "rng-seed", 0, "perturbation seed (0 = time)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "terminal preset menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(frameRate, workers)
		},
	}
	tuiCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run the simulation in a 3D window",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
	addSimFlags(guiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream frames over a websocket",
		Args:  cobra.NoArgs,
		RunE:  serveStream,
	}
	addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&frameRate, "fps", stream.DefaultFPS, "frames per second")

	rootCmd.AddCommand(runCmd, ensembleCmd, listCmd, plotCmd, analyzeCmd, snapshotCmd, exportJSONCmd, exportCSVCmd, exportSVGCmd,
		presetsCmd, benchCmd, tuneCmd, scenarioCmd, sweepCmd, monteCarloCmd, liveCmd, tuiCmd, guiCmd, serveCmd)

	err := rootCmd.Execute()
	if cerr := compute.Shutdown(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "default", "use preset configuration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&particles, "particles", config.DefaultParticles, "particle count")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "ticks to run")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultTimeStep, "time added per tick")
	cmd.Flags().Uint32Var(&seed, "seed", 0, "init seed")
	cmd.Flags().StringVar(&backend, "backend", config.DefaultBackend, "compute backend (cpu, serial, opengl)")
	cmd.Flags().BoolVar(&collisions, "collisions", false, "enable the collision pass")
	cmd.Flags().BoolVar(&movement, "movement", false, "enable the movement pass")
	cmd.Flags().BoolVar(&orbit, "orbit", false, "move the planet along its orbit")
	cmd.Flags().StringToStringVar(&params, "set", nil, "physics parameter overrides, e.g. --set gravity=-0.002")
}

// loadConfig layers the preset, the config file and explicitly set flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("particles") {
		cfg.Particles = particles
	}
	if flags.Changed("steps") {
		cfg.Run.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Run.TimeStep = dt
	}
	if flags.Changed("seed") {
		cfg.Init.Seed = seed
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("collisions") {
		cfg.Run.Collisions = collisions
	}
	if flags.Changed("movement") {
		cfg.Run.Movement = movement
	}
	if flags.Changed("orbit") {
		cfg.Run.Orbit = orbit
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = workers
	}

	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := strconv.ParseFloat(params[name], 64)
		if err != nil {
			return nil, fmt.Errorf("--set %s: %w", name, err)
		}
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	metrics := registry.DefaultMetrics()
	if len(metricList) > 0 {
		if metrics, err = registry.GetMetrics(metricList); err != nil {
			return err
		}
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(metrics); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("running %s with %d particles...\n", preset, cfg.Particles)
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	s := exp.GetSimulator()
	runID, err := st.Save(storage.Run{
		Preset:    preset,
		Config:    cfg,
		Result:    result,
		Positions: s.Positions(),
		Colors:    s.Colors(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)
	for _, e := range result.Errors {
		fmt.Printf("  error: %v\n", e)
	}

	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if runs <= 0 {
		return fmt.Errorf("runs must be positive")
	}

	backend, err := cfg.NewBackend()
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	ens := sim.NewEnsemble(backend, cfg.Particles, runs, registry.DefaultMetrics)
	ens.EnableCollisions(cfg.Run.Collisions)
	ens.EnableMovement(cfg.Run.Movement)

	fmt.Printf("running %d seeds of %s...\n", runs, preset)
	start := time.Now()
	results, err := ens.Run(context.Background(), cfg.ToInitConfig(), cfg.ToParams(), cfg.ToRunConfig())
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	names := registry.ListMetrics()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\t"+strings.ToUpper(strings.Join(names, "\t")))
	for i, r := range results {
		row := []string{strconv.FormatUint(uint64(cfg.Init.Seed)+uint64(i), 10)}
		for _, name := range names {
			if v, ok := r.Metrics[name]; ok {
				row = append(row, fmt.Sprintf("%.6f", v))
			} else {
				row = append(row, "-")
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tPARTICLES\tSTEPS\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.0fms\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.StepsTaken,
			run.ElapsedMS,
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

	times, samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(times))

	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		graph := asciigraph.Plot(samples[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs time", name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	times, samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	data, ok := samples[analyzeMetric]
	if !ok || len(data) < 2 {
		return fmt.Errorf("no %s series in run %s", analyzeMetric, runID)
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("series: %s\n\n", analyzeMetric)

	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, data)

	ps := analysis.PowerSpectrum(padded)
	plotData := ps[:max(2, len(ps)/4)]

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", analyzeMetric)),
	)
	fmt.Println(graph)
	fmt.Println()

	interval := times[1] - times[0]
	freq, power := analysis.DominantFrequency(ps, n, interval)
	fmt.Printf("dominant frequency: %.4f per time unit (power %.3g)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.3f time units\n", 1.0/freq)
	}

	return nil
}

func snapshotPlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	pos, _, err := st.LoadSnapshot(args[0])
	if err != nil {
		return err
	}
	proj, err := analysis.Project(pos, xAxis, yAxis)
	if err != nil {
		return err
	}
	fmt.Printf("%s vs %s (%d particles)\n\n", yAxis, xAxis, len(pos))
	fmt.Println(analysis.ScatterToASCII(proj, 80, 30))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	return st.ExportJSON(os.Stdout, args[0])
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	pos, col, err := st.LoadSnapshot(args[0])
	if err != nil {
		return err
	}
	if len(pos) == 0 {
		return fmt.Errorf("no data to export")
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "x", "y", "z", "r", "g", "b"}); err != nil {
		return err
	}
	for i, p := range pos {
		row := []string{strconv.Itoa(i)}
		for _, v := range []float64{p.X, p.Y, p.Z, col[i].X, col[i].Y, col[i].Z} {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var svg string
	switch svgKind {
	case "scatter", "camera":
		pos, col, err := st.LoadSnapshot(runID)
		if err != nil {
			return err
		}
		if svgKind == "scatter" {
			proj, err := analysis.Project(pos, xAxis, yAxis)
			if err != nil {
				return err
			}
			svg = export.ProjectionToSVG(proj, col, 800, 800)
			break
		}
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		cfg := meta.Config
		if cfg == nil {
			cfg = config.DefaultConfig()
		}
		p := cfg.ToParams()
		canvas := viz.NewCanvas(120, 60)
		viz.DrawCloud(canvas, viz.NewCamera(), pos, col, p.Center, p.PlanetRadius())
		svg = export.CanvasToSVG(canvas, 4)
	case "series":
		times, samples, err := st.LoadSamples(runID)
		if err != nil {
			return err
		}
		values, ok := samples[analyzeMetric]
		if !ok {
			return fmt.Errorf("no %s series in run %s", analyzeMetric, runID)
		}
		svg = export.SeriesToSVG(times, values, 800, 300, "#00ccff")
	default:
		return fmt.Errorf("unknown svg kind %q (scatter, camera, series)", svgKind)
	}
	if svg == "" {
		return fmt.Errorf("no data to export")
	}

	if outFile == "" {
		_, err := fmt.Println(svg)
		return err
	}
	return os.WriteFile(outFile, []byte(svg), 0644)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPARTICLES\tGRAVITY\tBOUNCE\tFRICTION\tSIZE\tPLANET\tCOLLISIONS\tORBIT")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%g\t%g\t%g\t%v\t%v\n",
			name, cfg.Particles,
			cfg.Params.Gravity, cfg.Params.Bounce, cfg.Params.Friction,
			cfg.Params.ParticleSize, cfg.Params.PlanetSize,
			cfg.Run.Collisions, cfg.Run.Orbit,
		)
	}
	return w.Flush()
}

func benchTicks(cmd *cobra.Command, args []string) error {
	counts := []int{500, 2000, 8000}
	backends := []compute.Backend{compute.NewSerialBackend(), compute.AutoSelectBackend(workers)}
	if b, err := compute.SelectBackend("opengl", workers); err == nil {
		if gl, ok := b.(*compute.OpenGLBackend); ok && gl.Available() {
			backends = append(backends, gl)
		}
	}

	fmt.Printf("benchmarking %d ticks (collisions %v)\n\n", benchSteps, collisions)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tLANES\tPARTICLES\tTIME\tTICKS/SEC")

	for _, b := range backends {
		for _, n := range counts {
			s := sim.New(b)
			s.EnableCollisions(collisions)
			if err := s.Initialize(n, sim.DefaultInitConfig()); err != nil {
				return err
			}
			cfg := sim.DefaultRunConfig()
			cfg.Steps = benchSteps

			p := config.DefaultConfig().ToParams()
			result, err := s.Run(context.Background(), &p, cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.0f\n",
				b.Name(), b.Lanes(), n, result.Elapsed.Round(time.Microsecond),
				float64(result.StepsTaken)/result.Elapsed.Seconds())
		}
	}

	return w.Flush()
}

// parseGrid reads repeated param=lo:hi:n flags.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	var names []string
	var ranges [][]float64
	for _, spec := range specs {
		name, rng, ok := strings.Cut(spec, "=")
		parts := strings.Split(rng, ":")
		if !ok || len(parts) != 3 {
			return nil, nil, fmt.Errorf("bad grid %q, want param=lo:hi:n", spec)
		}
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, nil, fmt.Errorf("bad grid %q, want param=lo:hi:n", spec)
		}
		names = append(names, name)
		ranges = append(ranges, optim.Linspace(lo, hi, n))
	}
	return names, ranges, nil
}

func tuneParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("searching %d points for minimum %s...\n", gs.Size(), tuneMetric)
	start := time.Now()
	best, value, err := gs.Search(ctx, cfg, tuneMetric)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	fmt.Printf("best %s: %.6f\n", tuneMetric, value)
	printMetrics(best)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry())
	if err != nil {
		return err
	}

	fmt.Println()
	for i, r := range results {
		fmt.Printf("step %d: %d ticks in %v\n", i+1, r.StepsTaken, r.Elapsed.Round(time.Microsecond))
		printMetrics(r.Metrics)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid([]string{sweepSpec})
	if err != nil {
		return err
	}
	rng := ranges[0]

	registry := experiment.NewRegistry()
	results, err := automation.RunSweep(context.Background(), &automation.ParameterSweep{
		Base:      cfg,
		ParamName: names[0],
		ParamMin:  rng[0],
		ParamMax:  rng[len(rng)-1],
		NumSteps:  len(rng),
	}, registry)
	if err != nil {
		return err
	}

	var metricNames []string
	for _, m := range registry.DefaultMetrics() {
		metricNames = append(metricNames, m.Name())
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(names[0])+"\t"+strings.ToUpper(strings.Join(metricNames, "\t")))
	for _, r := range results {
		row := []string{fmt.Sprintf("%.4f", r.ParamValue)}
		for _, name := range metricNames {
			row = append(row, fmt.Sprintf("%.6f", r.Metrics[name]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(context.Background(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         mcSeed,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	for _, r := range results {
		if !r.Stable {
			fmt.Printf("  trial %d unstable: max_speed=%.4f surface_violations=%.4f\n",
				r.TrialID, r.Metrics["max_speed"], r.Metrics["surface_violations"])
		}
	}
	return nil
}

func newDriver(cmd *cobra.Command) (*driver.Driver, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := driver.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return driver.New(opts)
}

func runLive(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	return viz.RunLive(d, preset, frameRate)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Backend == "opengl" {
		return fmt.Errorf("gui: the opengl backend needs raylib's only window for its context, use cpu or serial")
	}
	opts, err := driver.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	d, err := driver.New(opts)
	if err != nil {
		return err
	}
	gui.Run(d, preset, log.Default())
	return nil
}

func serveStream(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := stream.New(d, stream.Options{Addr: addr, FPS: frameRate, Logger: log.Default()})
	return srv.ListenAndServe(ctx)
}
