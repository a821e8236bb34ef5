package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/dynenv/internal/config"
	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
	"github.com/san-kum/dynenv/internal/metrics"
	"github.com/san-kum/dynenv/internal/physics"
	"github.com/san-kum/dynenv/internal/storage"
	"github.com/san-kum/dynenv/internal/viz"
)

// Episode is one Initialize followed by cfg.Steps control steps.
type Episode struct {
	Index      int
	Seed       int64
	RunID      string
	Trajectory env.Trajectory
	Metrics    map[string]float64
}

type Result struct {
	Model      string
	Integrator string
	Dt         float64
	NQ, NV, NU int
	Episodes   []Episode
}

// Experiment runs the episodes described by a config against one physics
// environment, re-initializing it between episodes.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	store     *storage.Store
	sink      viz.Sink
	logger    *zap.Logger
	observers []env.Observer
}

type Option func(*Experiment)

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

// WithStore saves every episode and enables the replay policy.
func WithStore(s *storage.Store) Option {
	return func(e *Experiment) { e.store = s }
}

// WithSink attaches a visualization. The caller owns the sink and closes it.
func WithSink(s viz.Sink) Option {
	return func(e *Experiment) { e.sink = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithObserver(o env.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, o) }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:      cfg.Clone(),
		registry: NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set := metrics.NewSet()
	physOpts := []physics.Option{
		physics.WithLogger(e.logger),
		physics.WithObserver(set),
	}
	if cfg.Integrator != "" {
		physOpts = append(physOpts, physics.WithIntegrator(cfg.Integrator))
	}
	if e.sink != nil {
		physOpts = append(physOpts, physics.WithSink(e.sink))
	}
	for _, o := range e.observers {
		physOpts = append(physOpts, physics.WithObserver(o))
	}

	pe, err := physics.New(cfg.Model, physOpts...)
	if err != nil {
		return nil, err
	}
	model := pe.Model()
	for _, m := range e.registry.DefaultMetrics(model) {
		set.Add(m)
	}

	s0, err := cfg.InitState(model.NQ(), model.NV())
	if err != nil {
		return nil, err
	}

	result := &Result{
		Model:      model.Name(),
		Integrator: model.Integrator(),
		Dt:         model.Timestep(),
		NQ:         model.NQ(),
		NV:         model.NV(),
		NU:         model.NU(),
	}

	for i := 0; i < cfg.Episodes; i++ {
		seed := cfg.Seed + int64(i)
		policy, err := e.registry.GetPolicy(cfg.Policy.Name, PolicyContext{
			Params: cfg.Policy,
			Model:  model,
			Seed:   seed,
			Replay: e.replaySource(),
		})
		if err != nil {
			return nil, err
		}

		if err := pe.Initialize(s0); err != nil {
			return nil, err
		}
		if err := pe.Run(ctx, policy, cfg.Steps); err != nil {
			return nil, fmt.Errorf("episode %d: %w", i, err)
		}

		ep := Episode{
			Index:      i,
			Seed:       seed,
			Trajectory: pe.Trajectory(),
			Metrics:    set.Values(),
		}
		if e.store != nil {
			ep.RunID, err = e.store.Save(storage.RunMetadata{
				Model:      model.Name(),
				Seed:       seed,
				Dt:         model.Timestep(),
				Integrator: model.Integrator(),
				Policy:     cfg.Policy.Name,
				NQ:         model.NQ(),
				NV:         model.NV(),
				NU:         model.NU(),
				Metrics:    ep.Metrics,
			}, ep.Trajectory)
			if err != nil {
				return nil, fmt.Errorf("save episode %d: %w", i, err)
			}
		}

		e.logger.Info("episode finished",
			zap.Int("episode", i),
			zap.Int("entries", ep.Trajectory.Len()),
			zap.String("run_id", ep.RunID),
		)
		result.Episodes = append(result.Episodes, ep)
	}

	return result, nil
}

func (e *Experiment) replaySource() func(string) ([]dynamo.Action, error) {
	if e.store == nil {
		return nil
	}
	return func(runID string) ([]dynamo.Action, error) {
		traj, err := e.store.LoadTrajectory(runID)
		if err != nil {
			return nil, err
		}
		actions := traj.Actions()
		if len(actions) > 0 {
			actions = actions[1:]
		}
		return actions, nil
	}
}
