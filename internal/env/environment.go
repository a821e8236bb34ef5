package env

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/dynenv/internal/dynamo"
)

// Environment drives a backend through a sequence of control decisions and
// records the resulting trajectory.
type Environment struct {
	backend   dynamo.Backend
	plotter   dynamo.Plotter
	observers []Observer
	logger    *zap.Logger

	entries     []Entry
	initialized bool
}

type Option func(*Environment)

// WithPlotter attaches a visualization refreshed after Initialize and every
// step. Without one, refreshing is a no-op.
func WithPlotter(p dynamo.Plotter) Option {
	return func(e *Environment) { e.plotter = p }
}

func WithObserver(o Observer) Option {
	return func(e *Environment) { e.observers = append(e.observers, o) }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Environment) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(backend dynamo.Backend, opts ...Option) (*Environment, error) {
	if backend == nil {
		return nil, dynamo.ErrNilBackend
	}
	e := &Environment{
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// AddObserver registers o for subsequent resets and steps.
func (e *Environment) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Initialize pushes the backend into s0 and resets the trajectory to
// [(s0, NoControl)]. It may be called again at any time to start a new
// episode.
func (e *Environment) Initialize(s0 dynamo.State) error {
	if err := e.backend.SetState(s0.Clone()); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	e.entries = []Entry{{State: s0.Clone(), Action: dynamo.NoControl}}
	e.initialized = true
	e.logger.Debug("environment initialized", zap.Int("state_dim", s0.Dim()))

	for _, o := range e.observers {
		o.OnReset(s0.Clone())
	}
	e.refresh()
	return nil
}

// ApplyControl observes the current state, evaluates p, advances the backend
// by one step and records the observation with the chosen action. If any part
// fails nothing is appended.
//
// ctx is checked once before the policy is consulted; the step itself is
// synchronous and not interruptible.
func (e *Environment) ApplyControl(ctx context.Context, p Policy) error {
	if !e.initialized {
		return dynamo.ErrUninitialized
	}
	if p == nil {
		return dynamo.ErrNilPolicy
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := len(e.entries)

	observed, err := e.backend.ObservedState()
	if err != nil {
		return e.fail(t, "observe", err)
	}
	if !observed.SameShape(e.entries[0].State) {
		return e.fail(t, "observe", fmt.Errorf("%w: observed %d values, trajectory holds %d",
			dynamo.ErrDimensionMismatch, observed.Dim(), e.entries[0].State.Dim()))
	}

	action, err := e.invoke(p, observed, t)
	if err != nil {
		return e.fail(t, "policy", err)
	}

	if _, err := e.backend.DynamicStep(action.Clone()); err != nil {
		return e.fail(t, "dynamic step", err)
	}

	entry := Entry{State: observed, Action: action.Clone()}
	e.entries = append(e.entries, entry)

	for _, o := range e.observers {
		o.OnStep(entry.Clone(), t)
	}
	e.refresh()
	return nil
}

// invoke is the single boundary through which policies are called.
func (e *Environment) invoke(p Policy, observed dynamo.State, t int) (dynamo.Action, error) {
	return p.Act(observed.Clone(), t)
}

// Run applies p for the given number of steps, stopping at the first error.
func (e *Environment) Run(ctx context.Context, p Policy, steps int) error {
	for i := 0; i < steps; i++ {
		if err := e.ApplyControl(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// CurrentTime is the number of recorded entries, which is also the index the
// next entry will occupy.
func (e *Environment) CurrentTime() (int, error) {
	if !e.initialized {
		return 0, dynamo.ErrUninitialized
	}
	return len(e.entries), nil
}

func (e *Environment) CurrentState() (dynamo.State, error) {
	return e.backend.CurrentState()
}

func (e *Environment) ObservedState() (dynamo.State, error) {
	return e.backend.ObservedState()
}

// Trajectory returns a snapshot of the entries recorded so far.
func (e *Environment) Trajectory() Trajectory {
	return Trajectory{entries: e.entries[:len(e.entries):len(e.entries)]}
}

func (e *Environment) Initialized() bool { return e.initialized }

func (e *Environment) refresh() {
	if e.plotter == nil {
		return
	}
	if err := e.plotter.UpdatePlot(); err != nil {
		e.logger.Warn("visualization refresh failed", zap.Error(err))
	}
}

func (e *Environment) fail(t int, op string, err error) error {
	e.logger.Debug("control step failed", zap.Int("step", t), zap.String("op", op), zap.Error(err))
	return &dynamo.StepError{Step: t, Op: op, Wrapped: err}
}
