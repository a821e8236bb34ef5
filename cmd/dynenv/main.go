package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/dynenv/internal/config"
	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
	"github.com/san-kum/dynenv/internal/experiment"
	"github.com/san-kum/dynenv/internal/export"
	"github.com/san-kum/dynenv/internal/metrics"
	"github.com/san-kum/dynenv/internal/storage"
	"github.com/san-kum/dynenv/internal/viz"
)

var (
	dataDir     string
	verbose     bool
	metricsAddr string

	configFile string
	preset     string
	integrator string
	policy     string
	steps      int
	episodes   int
	seed       int64
	scale      float64
	kp         float64
	ki         float64
	kd         float64
	target     float64
	replayRun  string
	initPos    []float64
	initVel    []float64
	visualize  bool
	theme      string
	frameRate  int
	snapshot   string

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dynenv",
		Short:         "control-loop environments over a rigid-body backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", config.DefaultOutput, "run directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run episodes and save their trajectories",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEpisodes,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&visualize, "visualize", false, "render frames in the terminal")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "terminal frame rate")
	runCmd.Flags().StringVar(&snapshot, "snapshot", "", "with --visualize, write the last frame as SVG to this path")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run one episode in the live viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list run presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-14s %s, %s policy, %d steps\n", name, p.Model, p.Policy.Name, p.Steps)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list built-in models, policies and integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := experiment.NewRegistry()
			fmt.Println("models:")
			for _, m := range r.ListModels() {
				fmt.Printf("  builtin:%s\n", m)
			}
			fmt.Println("policies:")
			for _, p := range r.ListPolicies() {
				fmt.Printf("  %s\n", p)
			}
			fmt.Println("integrators:")
			for _, i := range r.ListIntegrators() {
				fmt.Printf("  %s\n", i)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, presetsCmd, modelsCmd)
	rootCmd.AddCommand(inspectCommands()...)
	rootCmd.AddCommand(toolCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func addRunFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (model default when empty)")
	cmd.Flags().StringVar(&policy, "policy", defaults.Policy.Name, "policy")
	cmd.Flags().IntVar(&steps, "steps", defaults.Steps, "control steps per episode")
	cmd.Flags().IntVar(&episodes, "episodes", defaults.Episodes, "episodes")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed of the first episode")
	cmd.Flags().Float64Var(&scale, "scale", defaults.Policy.Scale, "random policy amplitude")
	cmd.Flags().Float64Var(&kp, "kp", defaults.Policy.Kp, "pid/lqr position gain")
	cmd.Flags().Float64Var(&ki, "ki", defaults.Policy.Ki, "pid integral gain")
	cmd.Flags().Float64Var(&kd, "kd", defaults.Policy.Kd, "pid/lqr velocity gain")
	cmd.Flags().Float64Var(&target, "target", defaults.Policy.Target, "pid target position")
	cmd.Flags().StringVar(&replayRun, "replay", "", "run id whose actions the replay policy plays back")
	cmd.Flags().Float64SliceVar(&initPos, "pos", nil, "initial joint positions")
	cmd.Flags().Float64SliceVar(&initVel, "vel", nil, "initial joint velocities")
	cmd.Flags().StringVar(&theme, "theme", defaults.Theme, "color theme")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
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

	if len(args) > 0 {
		cfg.Model = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("policy") {
		cfg.Policy.Name = policy
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("episodes") {
		cfg.Episodes = episodes
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("scale") {
		cfg.Policy.Scale = scale
	}
	if flags.Changed("kp") {
		cfg.Policy.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Policy.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Policy.Kd = kd
	}
	if flags.Changed("target") {
		cfg.Policy.Target = target
	}
	if flags.Changed("replay") {
		cfg.Policy.Replay = replayRun
	}
	if flags.Changed("pos") {
		cfg.Init.Pos = initPos
	}
	if flags.Changed("vel") {
		cfg.Init.Vel = initVel
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Lookup("visualize") != nil && flags.Changed("visualize") {
		cfg.Visualize = visualize
	}
	if cmd.Flags().Changed("dir") {
		cfg.Output = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serveMetrics exposes the collector on metricsAddr until ctx ends.
func serveMetrics(ctx context.Context, prom *metrics.Prom) {
	srv := &http.Server{
		Addr:              metricsAddr,
		Handler:           prom.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("serving metrics", zap.String("addr", metricsAddr))
}

func experimentOptions(ctx context.Context, cfg *config.Config, st *storage.Store) []experiment.Option {
	opts := []experiment.Option{experiment.WithLogger(logger)}
	if st != nil {
		opts = append(opts, experiment.WithStore(st))
	}
	if metricsAddr != "" {
		prom := metrics.NewProm("dynenv", cfg.Model)
		serveMetrics(ctx, prom)
		opts = append(opts, experiment.WithObserver(prom))
	}
	return opts
}

func runEpisodes(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st := storage.New(cfg.Output)
	if err := st.Init(); err != nil {
		return err
	}

	opts := experimentOptions(ctx, cfg, st)
	var term *viz.Terminal
	if cfg.Visualize {
		term = viz.NewTerminal(os.Stdout, viz.WithTheme(cfg.Theme), viz.WithFrameRate(frameRate))
		defer term.Close()
		opts = append(opts, experiment.WithSink(term))
	}

	if !cfg.Visualize {
		fmt.Printf("running %s for %d episode(s) of %d steps...\n", cfg.Model, cfg.Episodes, cfg.Steps)
	}
	start := time.Now()

	result, err := experiment.New(cfg, opts...).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("model: %s (nq=%d nv=%d nu=%d, dt=%g, %s)\n",
		result.Model, result.NQ, result.NV, result.NU, result.Dt, result.Integrator)
	for _, ep := range result.Episodes {
		fmt.Printf("\nepisode %d (seed %d)\n", ep.Index, ep.Seed)
		fmt.Printf("  run id: %s\n", ep.RunID)
		fmt.Printf("  entries: %d\n", ep.Trajectory.Len())
		printMetrics(ep.Metrics)
	}

	if term != nil && snapshot != "" {
		if err := os.WriteFile(snapshot, []byte(export.CanvasToSVG(term.Snapshot(), 4)), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", snapshot)
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

// pacer slows a live episode down to roughly wall-clock speed.
type pacer struct{ dt time.Duration }

func (p pacer) OnReset(dynamo.State) {}

func (p pacer) OnStep(env.Entry, int) { time.Sleep(p.dt) }

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Episodes = 1

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dt, err := modelTimestep(cfg.Model)
	if err != nil {
		return err
	}

	live := viz.NewLive(nil, nil)
	opts := experimentOptions(ctx, cfg, nil)
	opts = append(opts,
		experiment.WithSink(live),
		experiment.WithObserver(pacer{dt: time.Duration(dt * float64(time.Second))}),
	)

	if _, err := experiment.New(cfg, opts...).Run(ctx); err != nil {
		_ = live.Close()
		return err
	}
	return live.Wait()
}
