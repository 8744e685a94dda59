package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/isingsim/internal/analysis"
	"github.com/san-kum/isingsim/internal/automation"
	"github.com/san-kum/isingsim/internal/config"
	"github.com/san-kum/isingsim/internal/experiment"
	"github.com/san-kum/isingsim/internal/metropolis"
	"github.com/san-kum/isingsim/internal/render"
	"github.com/san-kum/isingsim/internal/sim"
	"github.com/san-kum/isingsim/internal/storage"
	"github.com/san-kum/isingsim/internal/telemetry"
	"github.com/san-kum/isingsim/internal/tui"
	"github.com/san-kum/isingsim/internal/viz"
)

var (
	dataDir  string
	verbose  bool
	logger   *slog.Logger
	size     int
	coupling float64
	field    float64
	beta     float64
	sweeps   int
	interval int
	burnin   int
	seed     int64
	// selection policy name: random or raster
	selection   string
	configFile  string
	preset      string
	snapshots   bool
	watch       bool
	stream      bool
	metricsAddr string
	frameRate   int
	// scan
	betaMin  float64
	betaMax  float64
	steps    int
	replicas int
	// export-tsv
	column string
	// snapshot
	output string
	side   float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "isingsim",
		Short: "2D Ising model Metropolis simulation lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".isingsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addParamFlags(runCmd)
	runCmd.Flags().IntVar(&burnin, "burnin", 0, "sweeps excluded from metrics")
	runCmd.Flags().BoolVar(&snapshots, "snapshots", false, "write step_<sweep>.png for every sample")
	runCmd.Flags().BoolVar(&watch, "watch", false, "redraw the lattice in the terminal while running")
	runCmd.Flags().BoolVar(&stream, "stream", false, "stream magnetisation TSV to stdout")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address during the run")
	runCmd.Flags().IntVar(&frameRate, "fps", 10, "watch mode frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot magnetisation and energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and samples as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportTSVCmd := &cobra.Command{
		Use:   "export-tsv [run_id]",
		Short: "export one observable in the lab TSV layout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportTSV,
	}
	exportTSVCmd.Flags().StringVar(&column, "column", "magnetisation", "magnetisation or energy")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "autocorrelation and spectrum of the magnetisation",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&burnin, "burnin", 0, "sweeps to discard before analysis")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive lattice view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addParamFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "sweeps per second")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark sweep throughput",
		Args:  cobra.NoArgs,
		RunE:  benchSweeps,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "sweep beta and report equilibrium observables",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	addParamFlags(scanCmd)
	scanCmd.Flags().IntVar(&burnin, "burnin", 0, "sweeps excluded from metrics")
	scanCmd.Flags().Float64Var(&betaMin, "beta-min", 0.05, "lowest beta")
	scanCmd.Flags().Float64Var(&betaMax, "beta-max", 0.5, "highest beta")
	scanCmd.Flags().IntVar(&steps, "steps", 10, "number of beta points")
	scanCmd.Flags().IntVar(&replicas, "replicas", 1, "independent runs per beta")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render the final lattice of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().StringVarP(&output, "output", "o", "", "image path (.png, .svg, .pdf); empty prints glyphs")
	snapshotCmd.Flags().Float64Var(&side, "side", 4, "image side in inches")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportTSVCmd, exportCSVCmd, analyzeCmd, liveCmd, benchCmd, presetsCmd, scanCmd, snapshotCmd, batchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&size, "size", config.DefaultSize, "lattice side length")
	cmd.Flags().Float64Var(&coupling, "j", config.DefaultJ, "coupling constant J")
	cmd.Flags().Float64Var(&field, "h", config.DefaultH, "external field H")
	cmd.Flags().Float64Var(&beta, "beta", config.DefaultBeta, "inverse temperature")
	cmd.Flags().IntVar(&sweeps, "sweeps", config.DefaultSweeps, "number of sweeps")
	cmd.Flags().IntVar(&interval, "interval", config.DefaultSampleInterval, "sample every k sweeps")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&selection, "selection", config.DefaultSelection, "site selection: random or raster")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Size = size
	}
	if flags.Changed("j") {
		cfg.J = coupling
	}
	if flags.Changed("h") {
		cfg.H = field
	}
	if flags.Changed("beta") {
		cfg.Beta = beta
	}
	if flags.Changed("sweeps") {
		cfg.Sweeps = sweeps
	}
	if flags.Changed("interval") {
		cfg.SampleInterval = interval
	}
	if flags.Changed("selection") {
		cfg.Selection = selection
	}
	if flags.Changed("burnin") {
		cfg.Burnin = burnin
	}
	if flags.Changed("snapshots") {
		cfg.Snapshots = snapshots
	}
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}
	p := exp.Params()

	runID, err := st.CreateRun()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var observers []sim.Observer
	var snaps *render.SnapshotWriter
	if cfg.Snapshots {
		snaps = render.NewSnapshotWriter(st.RunDir(runID))
		observers = append(observers, snaps)
	}
	var streamer *storage.TSVWriter
	if stream {
		streamer = storage.NewTSVWriter(os.Stdout, p, storage.ColumnMagnetisation)
		observers = append(observers, streamer)
	}
	var live *tui.LiveRenderer
	if watch {
		live = tui.NewLiveRenderer(os.Stdout, p, frameRate)
		observers = append(observers, live)
		live.Start()
		defer live.Stop()
	}
	var serveErr chan error
	if metricsAddr != "" {
		obs := telemetry.NewObserver(runID, p)
		observers = append(observers, obs)
		serveErr = make(chan error, 1)
		serveCtx, stopServe := context.WithCancel(ctx)
		defer func() {
			stopServe()
			if err := <-serveErr; err != nil {
				logger.Warn("metrics server", slog.String("error", err.Error()))
			}
		}()
		go func() { serveErr <- obs.Serve(serveCtx, metricsAddr, logger) }()
	}

	if err := exp.Setup(observers...); err != nil {
		return err
	}

	result, runErr := exp.Run(ctx)
	if runErr != nil && result == nil {
		return runErr
	}

	if err := st.Save(runID, result, exp.Elapsed()); err != nil {
		return err
	}
	if snaps != nil && snaps.Err() != nil {
		logger.Warn("snapshots incomplete", slog.String("error", snaps.Err().Error()))
	}
	if streamer != nil {
		if err := streamer.Flush(); err != nil {
			return err
		}
		// stdout carries the TSV stream; keep the summary off it
		logger.Info("run saved", slog.String("run_id", runID))
		return runErr
	}

	fmt.Printf("completed in %v\n", exp.Elapsed())
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.Samples))
	fmt.Printf("acceptance: %.4f\n", result.AcceptanceRate())
	fmt.Println("\nmetrics:")
	for _, name := range experiment.NewRegistry().ListMetrics() {
		if val, ok := result.Metrics[name]; ok {
			fmt.Printf("  %s: %.6f\n", name, val)
		}
	}
	return runErr
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
	fmt.Fprintln(w, "ID\tTIME\tSIZE\tJ\tH\tBETA\tSWEEPS\tSELECTION\t<|M|>")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%g\t%g\t%d\t%s\t%.4f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Size,
			run.J,
			run.H,
			run.Beta,
			run.Sweeps,
			run.Selection,
			run.Metrics["mean_abs_magnetisation"],
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []sim.Sample, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, samples, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("lattice: %dx%d  J=%g  H=%g  beta=%g\n", meta.Size, meta.Size, meta.J, meta.H, meta.Beta)
	fmt.Printf("samples: %d\n\n", len(samples))

	mags := make([]float64, len(samples))
	energies := make([]float64, len(samples))
	for i, s := range samples {
		mags[i] = s.Magnetisation
		energies[i] = s.Energy
	}

	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{mags, "magnetisation per site vs sample"},
		{energies, "energy vs sample"},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, samples)
}

func exportTSV(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	p, err := meta.Params()
	if err != nil {
		return err
	}

	col := storage.ColumnMagnetisation
	switch column {
	case "magnetisation", "m":
	case "energy", "e":
		col = storage.ColumnEnergy
	default:
		return fmt.Errorf("unknown column: %s", column)
	}

	w := storage.NewTSVWriter(os.Stdout, p, col)
	for _, s := range samples {
		if err := w.Write(s); err != nil {
			return err
		}
	}
	return w.Flush()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"sweep", "magnetisation", "energy"}); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Sweep),
			strconv.FormatFloat(s.Magnetisation, 'g', -1, 64),
			strconv.FormatFloat(s.Energy, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	data := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Sweep >= burnin {
			data = append(data, s.Magnetisation)
		}
	}
	if len(data) < 2 {
		return fmt.Errorf("need at least 2 samples after burn-in, have %d", len(data))
	}

	fmt.Printf("magnetisation analysis: %s\n", meta.ID)
	fmt.Printf("samples: %d (interval %d sweeps)\n\n", len(data), meta.SampleInterval)

	acf := analysis.Autocorrelation(data, len(data)/2)
	fmt.Println(asciigraph.Plot(acf,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("autocorrelation vs lag"),
	))
	fmt.Println()

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 1 {
		fmt.Println(asciigraph.Plot(ps,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum"),
		))
		fmt.Println()
	}

	tau := analysis.IntegratedTime(acf)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "mean\t%.6f\n", analysis.Mean(data))
	fmt.Fprintf(w, "variance\t%.6f\n", analysis.Variance(data))
	fmt.Fprintf(w, "tau_int\t%.3f samples\n", tau)
	fmt.Fprintf(w, "std error\t%.6f\n", analysis.StandardError(data))
	fmt.Fprintf(w, "binder U4\t%.4f\n", analysis.BinderCumulant(data))
	if k := analysis.DominantFrequency(ps); k > 0 {
		period := float64(2*len(ps)) / float64(k) * float64(meta.SampleInterval)
		fmt.Fprintf(w, "dominant period\t%.1f sweeps\n", period)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, err := viz.NewModel(ctx, p)
	if err != nil {
		return err
	}
	defer m.Close()

	prog := tea.NewProgram(m.WithFrameRate(frameRate), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil {
		return err
	}
	return nil
}

func benchSweeps(cmd *cobra.Command, args []string) error {
	sizes := []int{16, 32, 64, 128}
	policies := []metropolis.Selection{metropolis.SelectRandom, metropolis.SelectRaster}
	const sweepsPerRun = 50

	fmt.Printf("benchmarking %d sweeps per lattice\n\n", sweepsPerRun)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tSELECTION\tTRIALS\tTIME\tTRIALS/SEC")

	for _, n := range sizes {
		for _, sel := range policies {
			p := sim.Params{Size: n, J: 1, Beta: 0.44, Sweeps: sweepsPerRun, SampleInterval: sweepsPerRun, Seed: 42, Selection: sel}

			start := time.Now()
			result, err := sim.RunSeeded(context.Background(), p, nil)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%.0f\n",
				n, sel, result.Trials, elapsed, float64(result.Trials)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tJ\tH\tBETA\tSWEEPS\tINTERVAL\tBURNIN\tSELECTION")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%g\t%d\t%d\t%d\t%s\n",
			name, c.Size, c.J, c.H, c.Beta, c.Sweeps, c.SampleInterval, c.Burnin, c.Selection)
	}
	return w.Flush()
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("beta-min") {
		cfg.Scan.BetaMin = betaMin
	}
	if flags.Changed("beta-max") {
		cfg.Scan.BetaMax = betaMax
	}
	if flags.Changed("steps") {
		cfg.Scan.Steps = steps
	}
	if flags.Changed("replicas") {
		cfg.Scan.Replicas = replicas
	}

	p, err := cfg.Params()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	betas := cfg.Scan.Betas()
	logger.Info("scanning", slog.Int("points", len(betas)), slog.Int("replicas", cfg.Scan.Replicas))
	start := time.Now()
	points, err := experiment.Scan(ctx, p, betas, cfg.Scan.Replicas, cfg.Burnin, logger)
	if err != nil {
		return err
	}
	logger.Debug("scan done", slog.Duration("elapsed", time.Since(start)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BETA\t<|M|>\tCHI\t<E>/N\tC\tU4\tTAU\tACCEPT")
	absM := make([]float64, len(points))
	for i, pt := range points {
		absM[i] = pt.MeanAbsM
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.2f\t%.3f\n",
			pt.Beta, pt.MeanAbsM, pt.Susceptibility, pt.MeanEnergy, pt.SpecificHeat, pt.Binder, pt.AutocorrelationT, pt.AcceptanceRate)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(absM) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(absM,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("<|M|> for beta %.3f..%.3f", cfg.Scan.BetaMin, cfg.Scan.BetaMax)),
		))
	}
	return nil
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	l, err := st.LoadLattice(args[0])
	if err != nil {
		return err
	}

	if output == "" {
		fmt.Print(render.Glyphs(l, "#", ".", 0))
		return nil
	}

	title := fmt.Sprintf("%s  beta=%g  sweep %d", meta.ID, meta.Beta, meta.Sweeps)
	if err := render.Save(l, title, output, vg.Length(side)*vg.Inch); err != nil {
		return err
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		abs = output
	}
	fmt.Printf("wrote %s\n", abs)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), st, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tSAMPLES\t<|M|>\tACCEPT")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.4f\t%.3f\n",
			i+1, r.RunID, len(r.Result.Samples), r.Result.Metrics["mean_abs_magnetisation"], r.Result.AcceptanceRate())
	}
	if flushErr := w.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	return err
}
