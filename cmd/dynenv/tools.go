package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynenv/internal/automation"
	"github.com/san-kum/dynenv/internal/config"
	"github.com/san-kum/dynenv/internal/engine"
	"github.com/san-kum/dynenv/internal/experiment"
	"github.com/san-kum/dynenv/internal/optim"
	"github.com/san-kum/dynenv/internal/storage"
)

var (
	tuneParams   []string
	tuneMin      []float64
	tuneMax      []float64
	tunePoints   int
	tuneMetric   string
	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	trials       int
	perturbation float64
	numRuns      int
	epsilon      float64
)

func toolCommands() []*cobra.Command {
	tuneCmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid search policy parameters minimizing a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tunePolicy,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringSliceVar(&tuneParams, "param", []string{"kp", "kd"}, "policy parameters to search")
	tuneCmd.Flags().Float64SliceVar(&tuneMin, "min", []float64{1, 0.5}, "lower bound per parameter")
	tuneCmd.Flags().Float64SliceVar(&tuneMax, "max", []float64{20, 5}, "upper bound per parameter")
	tuneCmd.Flags().IntVar(&tunePoints, "points", 4, "grid points per parameter")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "control_effort", "metric to minimize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "sweep one policy parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "kp", "policy parameter")
	sweepCmd.Flags().Float64Var(&sweepMin, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "to", 20, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "n", 5, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "run trials from perturbed initial positions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addRunFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturbation", 0.1, "maximum initial offset per joint")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [model]",
		Short: "run seeded episodes in parallel and average their metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addRunFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 4, "parallel runs")

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity [model]",
		Short: "estimate the lyapunov exponent from two nearby starts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSensitivity,
	}
	addRunFlags(sensitivityCmd)
	sensitivityCmd.Flags().Float64Var(&epsilon, "eps", 1e-6, "offset of the first joint")

	compareCmd := &cobra.Command{
		Use:   "compare [model] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same model",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "steps per run")
	compareCmd.Flags().Float64SliceVar(&initPos, "pos", []float64{0.5}, "initial joint positions")

	return []*cobra.Command{tuneCmd, scenarioCmd, sweepCmd, monteCarloCmd, ensembleCmd, sensitivityCmd, compareCmd}
}

func modelTimestep(descriptor string) (float64, error) {
	m, err := engine.Load(descriptor)
	if err != nil {
		return 0, err
	}
	return m.Timestep(), nil
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func tunePolicy(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(tuneMin) != len(tuneParams) || len(tuneMax) != len(tuneParams) {
		return fmt.Errorf("need one --min and --max per --param")
	}

	ranges := make([][]float64, len(tuneParams))
	for i := range tuneParams {
		ranges[i] = optim.Linspace(tuneMin[i], tuneMax[i], tunePoints)
	}

	ctx, stop := interruptible()
	defer stop()

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		c := cfg.Clone()
		for name, v := range params {
			if err := automation.SetPolicyParam(c, name, v); err != nil {
				return nil, err
			}
		}
		return experiment.New(c, experiment.WithLogger(logger)), nil
	}

	fmt.Printf("searching %d combinations of %s on %s...\n",
		pow(tunePoints, len(tuneParams)), strings.Join(tuneParams, ", "), cfg.Model)
	start := time.Now()

	best, value, err := optim.NewGridSearch(tuneParams, ranges).Search(ctx, build, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("best %s: %.6f\n", tuneMetric, value)
	for _, name := range tuneParams {
		fmt.Printf("  %s = %.4f\n", name, best[name])
	}
	return nil
}

func pow(base, exp int) int {
	out := 1
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Printf("%s\n", scenario.Description)
	}
	results, err := automation.RunScenario(ctx, scenario, experiment.WithLogger(logger), experiment.WithStore(st))
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Printf("\n%s (%s)\n", r.Step, r.Result.Model)
		for _, ep := range r.Result.Episodes {
			fmt.Printf("  run id: %s\n", ep.RunID)
			printMetrics(ep.Metrics)
		}
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL Q0\tCONTROL EFFORT\tSTABILITY\tKINETIC DRIFT\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		q0 := 0.0
		if len(r.FinalPos) > 0 {
			q0 = r.FinalPos[0]
		}
		fmt.Fprintf(w, "%.4f\t%.6f\t%.6f\t%.4f\t%.3e\n",
			r.ParamValue, q0, r.Metrics["control_effort"], r.Metrics["stability"], r.Metrics["kinetic_drift"])
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturbation,
		NumTrials:    trials,
		Seed:         cfg.Seed,
		Logger:       logger,
	}, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d\n", len(results))
	fmt.Printf("stable: %d\n", stable)
	fmt.Printf("unstable: %d\n", unstable)
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	fmt.Printf("running %d parallel episodes of %s...\n", numRuns, cfg.Model)
	start := time.Now()

	results, err := experiment.NewEnsemble(cfg, numRuns, cfg.Seed, experiment.WithLogger(logger)).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Println("\nmean metrics:")
	printMetrics(experiment.Summary(results))
	return nil
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	s, err := experiment.MeasureSensitivity(ctx, cfg, epsilon, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	fmt.Printf("model: %s\n", s.Base.Model)
	fmt.Printf("offset: %g\n", s.Epsilon)
	fmt.Printf("lyapunov exponent: %.4f 1/s\n", s.Exponent)
	if s.Exponent > 0 {
		fmt.Println("trajectories diverge exponentially")
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	model := args[0]
	names := args[1:]

	ctx, stop := interruptible()
	defer stop()

	fmt.Printf("comparing integrators for %s (%d steps)\n\n", model, steps)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s\n", "integrator", "final_q0", "kinetic_drift", "time_ms")
	fmt.Println(strings.Repeat("-", 52))

	for _, name := range names {
		cfg := config.DefaultConfig()
		cfg.Model = model
		cfg.Integrator = name
		cfg.Steps = steps
		cfg.Init.Pos = initPos

		start := time.Now()
		result, err := experiment.New(cfg, experiment.WithLogger(logger)).Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		ep := result.Episodes[0]
		final := ep.Trajectory.At(ep.Trajectory.Len() - 1).State
		fmt.Printf("%-12s  %12.6f  %12.2e  %12.2f\n",
			name, final.Pos[0], ep.Metrics["kinetic_drift"], float64(elapsed.Microseconds())/1000)
	}

	return nil
}
