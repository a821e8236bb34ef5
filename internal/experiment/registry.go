package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/dynenv/internal/config"
	"github.com/san-kum/dynenv/internal/control"
	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/engine"
	"github.com/san-kum/dynenv/internal/env"
	"github.com/san-kum/dynenv/internal/integrators"
	"github.com/san-kum/dynenv/internal/metrics"
)

// PolicyContext is what a policy factory may use to build a policy.
type PolicyContext struct {
	Params config.PolicyConfig
	Model  *engine.Model
	Seed   int64
	// Replay loads the actions of a stored run. Nil when no store is configured.
	Replay func(runID string) ([]dynamo.Action, error)
}

type PolicyFactory func(pc PolicyContext) (env.Policy, error)

type Registry struct {
	policies map[string]PolicyFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		policies: make(map[string]PolicyFactory),
	}

	r.policies["none"] = func(PolicyContext) (env.Policy, error) {
		return control.Autonomous(), nil
	}
	r.policies["zero"] = func(pc PolicyContext) (env.Policy, error) {
		return control.Zero(pc.Model.NU()), nil
	}
	r.policies["random"] = func(pc PolicyContext) (env.Policy, error) {
		return control.Random(pc.Model.NU(), pc.Params.Scale, pc.Seed), nil
	}
	r.policies["pid"] = func(pc PolicyContext) (env.Policy, error) {
		p := pc.Params
		pid := control.NewPID(p.Kp, p.Ki, p.Kd, p.Target, pc.Model.NU())
		return control.FromController(pid, pc.Model.Timestep()), nil
	}
	r.policies["lqr"] = func(pc PolicyContext) (env.Policy, error) {
		if pc.Model.NU() != pc.Model.NQ() {
			return nil, fmt.Errorf("lqr needs one actuator per joint, model has %d joints and %d actuators",
				pc.Model.NQ(), pc.Model.NU())
		}
		lqr := control.NewDiagonalLQR(pc.Model.NU(), pc.Params.Kp, pc.Params.Kd)
		return control.FromController(lqr, pc.Model.Timestep()), nil
	}
	r.policies["replay"] = func(pc PolicyContext) (env.Policy, error) {
		if pc.Replay == nil {
			return nil, fmt.Errorf("replay needs a run store")
		}
		actions, err := pc.Replay(pc.Params.Replay)
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", pc.Params.Replay, err)
		}
		return control.Replay(actions), nil
	}

	return r
}

// RegisterPolicy adds or replaces a named policy.
func (r *Registry) RegisterPolicy(name string, fn PolicyFactory) {
	r.policies[name] = fn
}

func (r *Registry) GetPolicy(name string, pc PolicyContext) (env.Policy, error) {
	fn, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy: %s", name)
	}
	return fn(pc)
}

func (r *Registry) ListPolicies() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListModels() []string {
	return engine.BuiltinNames()
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

// DefaultMetrics are computed for every episode.
func (r *Registry) DefaultMetrics(m *engine.Model) []metrics.Metric {
	return []metrics.Metric{
		metrics.NewControlEffort(),
		metrics.NewStability(math.Pi),
		metrics.NewKineticDrift(m.KineticEnergy),
	}
}
