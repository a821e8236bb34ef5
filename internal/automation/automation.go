package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynenv/internal/config"
	"github.com/san-kum/dynenv/internal/experiment"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Base        string         `yaml:"base,omitempty"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overlays a partial config on the scenario base. Fields left
// out of the YAML keep the base value.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Config yaml.Node `yaml:"config"`
}

// StepResult pairs a scenario step with its run.
type StepResult struct {
	Step   string
	Config *config.Config
	Result *experiment.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// baseConfig resolves the scenario base: a preset name, a config file, or
// the defaults.
func (s *Scenario) baseConfig() (*config.Config, error) {
	if s.Base == "" {
		return config.DefaultConfig(), nil
	}
	if cfg := config.GetPreset(s.Base); cfg != nil {
		return cfg, nil
	}
	return config.Load(s.Base)
}

// RunScenario executes all steps in a scenario in order
func RunScenario(ctx context.Context, scenario *Scenario, opts ...experiment.Option) ([]StepResult, error) {
	base, err := scenario.baseConfig()
	if err != nil {
		return nil, fmt.Errorf("scenario base: %w", err)
	}

	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		cfg := base.Clone()
		if !step.Config.IsZero() {
			if err := step.Config.Decode(cfg); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}

		fmt.Printf("Running step %d/%d: %s (%s)\n", i+1, len(scenario.Steps), step.Name, cfg.Model)

		result, err := experiment.New(cfg, opts...).Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, StepResult{Step: step.Name, Config: cfg, Result: result})
	}

	return results, nil
}

// ParameterSweep runs one config across a range of policy parameter values
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	FinalPos   []float64
	Metrics    map[string]float64
}

// SetPolicyParam writes a named policy parameter into cfg.
func SetPolicyParam(cfg *config.Config, name string, v float64) error {
	switch name {
	case "kp":
		cfg.Policy.Kp = v
	case "ki":
		cfg.Policy.Ki = v
	case "kd":
		cfg.Policy.Kd = v
	case "scale":
		cfg.Policy.Scale = v
	case "target":
		cfg.Policy.Target = v
	default:
		return fmt.Errorf("unknown policy parameter: %s", name)
	}
	return nil
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, opts ...experiment.Option) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least two steps, got %d", sweep.NumSteps)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		cfg.Episodes = 1
		if err := SetPolicyParam(cfg, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		result, err := experiment.New(cfg, opts...).Run(ctx)
		if err != nil {
			return nil, err
		}

		ep := result.Episodes[0]
		final := ep.Trajectory.At(ep.Trajectory.Len() - 1)
		results = append(results, SweepResult{
			ParamValue: paramVal,
			FinalPos:   final.State.Pos,
			Metrics:    ep.Metrics,
		})

		fmt.Printf("Sweep %d/%d: %s=%.4f\n", i+1, sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
	// Bound is the largest absolute coordinate a final state may hold and
	// still count as stable.
	Bound  float64
	Logger *zap.Logger
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID   int
	InitPos   []float64
	FinalPos  []float64
	Stable    bool
	Stability float64
}

// RunMonteCarlo executes trials whose initial positions are perturbed
// uniformly in [-Perturbation, Perturbation].
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, opts ...experiment.Option) ([]MonteCarloResult, error) {
	logger := mc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bound := mc.Bound
	if bound <= 0 {
		bound = 1e6
	}

	rng := rand.New(rand.NewSource(mc.Seed))
	results := make([]MonteCarloResult, 0, mc.NumTrials)

	for trial := 0; trial < mc.NumTrials; trial++ {
		cfg := mc.Base.Clone()
		cfg.Episodes = 1
		cfg.Seed = mc.Seed + int64(trial)

		n := len(cfg.Init.Pos)
		if n == 0 {
			n = 1
			cfg.Init.Pos = []float64{0}
		}
		for i := 0; i < n; i++ {
			cfg.Init.Pos[i] += (rng.Float64() - 0.5) * 2 * mc.Perturbation
		}

		result, err := experiment.New(cfg, opts...).Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}

		ep := result.Episodes[0]
		final := ep.Trajectory.At(ep.Trajectory.Len() - 1).State
		stable := true
		for _, v := range final.Flatten() {
			if math.IsNaN(v) || math.Abs(v) > bound {
				stable = false
				break
			}
		}

		results = append(results, MonteCarloResult{
			TrialID:   trial,
			InitPos:   cfg.Init.Pos,
			FinalPos:  final.Pos,
			Stable:    stable,
			Stability: ep.Metrics["stability"],
		})

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo progress", zap.Int("done", trial+1), zap.Int("total", mc.NumTrials))
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
