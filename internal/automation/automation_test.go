package automation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynenv/internal/config"
)

const scenarioYAML = `
name: warmup
description: pendulum then arm
base: free_pendulum
steps:
  - name: short swing
    config:
      steps: 10
  - name: arm at rest
    config:
      model: builtin:arm5
      steps: 5
      policy:
        name: zero
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "warmup", s.Name)
	assert.Len(t, s.Steps, 2)

	_, err = ParseScenario([]byte("name: empty\n"))
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	results, err := RunScenario(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, "short swing", first.Step)
	assert.Equal(t, "rk4", first.Config.Integrator, "base preset fields survive the overlay")
	assert.Equal(t, 11, first.Result.Episodes[0].Trajectory.Len())

	second := results[1]
	assert.Equal(t, "arm5", second.Result.Model)
	assert.Equal(t, "zero", second.Config.Policy.Name)
	assert.Equal(t, 6, second.Result.Episodes[0].Trajectory.Len())
}

func TestRunScenarioStopsAtFailingStep(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: broken
steps:
  - name: ok
    config:
      steps: 3
  - name: bad
    config:
      model: builtin:nope
`))
	require.NoError(t, err)

	results, err := RunScenario(context.Background(), s)
	assert.Error(t, err)
	assert.Len(t, results, 1)
}

func TestRunSweep(t *testing.T) {
	base := config.GetPreset("pendulum_pid")
	base.Steps = 50

	results, err := RunSweep(context.Background(), &ParameterSweep{
		Base: base, ParamName: "kp", ParamMin: 1, ParamMax: 10, NumSteps: 3,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.InDelta(t, 1.0, results[0].ParamValue, 1e-12)
	assert.InDelta(t, 5.5, results[1].ParamValue, 1e-12)
	assert.InDelta(t, 10.0, results[2].ParamValue, 1e-12)
	for _, r := range results {
		assert.Len(t, r.FinalPos, 1)
		assert.Contains(t, r.Metrics, "control_effort")
	}

	_, err = RunSweep(context.Background(), &ParameterSweep{Base: base, ParamName: "mass", NumSteps: 2})
	assert.Error(t, err)
	_, err = RunSweep(context.Background(), &ParameterSweep{Base: base, ParamName: "kp", NumSteps: 1})
	assert.Error(t, err)
}

func TestRunMonteCarlo(t *testing.T) {
	base := config.GetPreset("free_pendulum")
	base.Steps = 50

	results, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{
		Base: base, Perturbation: 0.1, NumTrials: 5, Seed: 42,
	})
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, r := range results {
		require.Len(t, r.InitPos, 1)
		assert.InDelta(t, 1.0, r.InitPos[0], 0.1)
		assert.GreaterOrEqual(t, r.Stability, 0.0)
	}

	stable, unstable := MonteCarloStats(results)
	assert.Equal(t, 5, stable)
	assert.Equal(t, 0, unstable)
	assert.Equal(t, 1.0, base.Init.Pos[0], "base config must not change")
}
