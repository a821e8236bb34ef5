package physics

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/engine"
	"github.com/san-kum/dynenv/internal/env"
	"github.com/san-kum/dynenv/internal/viz"
)

// Env is a control-loop environment backed by an engine model.
type Env struct {
	*env.Environment

	model  *engine.Model
	data   *engine.Data
	sink   viz.Sink
	logger *zap.Logger
	frames int

	integrator string
	observers  []env.Observer
}

type Option func(*Env)

// WithSink requests visualization through s.
func WithSink(s viz.Sink) Option {
	return func(p *Env) { p.sink = s }
}

// WithIntegrator overrides the integrator named by the model descriptor.
func WithIntegrator(name string) Option {
	return func(p *Env) { p.integrator = name }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Env) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithObserver(o env.Observer) Option {
	return func(p *Env) { p.observers = append(p.observers, o) }
}

// New loads descriptor and returns an environment ready for Initialize.
// Load failures wrap dynamo.ErrLoad and no environment is returned.
func New(descriptor string, opts ...Option) (*Env, error) {
	p := &Env{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	model, err := engine.Load(descriptor)
	if err != nil {
		return nil, err
	}
	if p.integrator != "" {
		if err := model.SetIntegrator(p.integrator); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrLoad, descriptor, err)
		}
	}
	p.model = model
	p.data = model.NewData()

	if p.sink != nil {
		if err := p.sink.Start(); err != nil {
			return nil, fmt.Errorf("start visualization: %w", err)
		}
		if err := p.sink.Bind(p.Info()); err != nil {
			return nil, errors.Join(fmt.Errorf("bind visualization: %w", err), p.Close())
		}
	}

	envOpts := []env.Option{env.WithPlotter(p), env.WithLogger(p.logger)}
	for _, o := range p.observers {
		envOpts = append(envOpts, env.WithObserver(o))
	}
	p.Environment, err = env.New(p, envOpts...)
	if err != nil {
		return nil, errors.Join(err, p.Close())
	}

	p.logger.Info("model loaded",
		zap.String("model", model.Name()),
		zap.Int("nq", model.NQ()),
		zap.Int("nu", model.NU()),
		zap.String("integrator", model.Integrator()),
	)
	return p, nil
}

func (p *Env) Model() *engine.Model { return p.model }

// Info describes the loaded model for visualization sinks.
func (p *Env) Info() viz.ModelInfo {
	names := p.model.JointNames()
	types := p.model.JointTypes()
	lengths := p.model.JointLengths()

	joints := make([]viz.JointInfo, len(names))
	for i := range names {
		joints[i] = viz.JointInfo{Name: names[i], Type: string(types[i]), Length: lengths[i]}
	}
	return viz.ModelInfo{
		Name:      p.model.Name(),
		Joints:    joints,
		Actuators: p.model.ActuatorNames(),
		Timestep:  p.model.Timestep(),
	}
}

// ZeroState is the rest configuration of the model.
func (p *Env) ZeroState() dynamo.State {
	return dynamo.NewState(p.model.NQ(), p.model.NV())
}

// SimTime is the engine clock in seconds.
func (p *Env) SimTime() float64 { return p.data.Time }

// Ctrl returns a copy of the actuator buffer.
func (p *Env) Ctrl() dynamo.Vector { return p.data.Ctrl.Clone() }

// SetState writes s into the engine buffers without running any dynamics.
func (p *Env) SetState(s dynamo.State) error {
	nq, nv := p.model.NQ(), p.model.NV()
	switch {
	case len(s.Pos) != nq:
		return &dynamo.ShapeError{Field: "pos", Expected: nq, Got: len(s.Pos), Kind: dynamo.ErrDimensionMismatch}
	case len(s.Vel) != nv:
		return &dynamo.ShapeError{Field: "vel", Expected: nv, Got: len(s.Vel), Kind: dynamo.ErrDimensionMismatch}
	case len(s.Acc) != nv:
		return &dynamo.ShapeError{Field: "acc", Expected: nv, Got: len(s.Acc), Kind: dynamo.ErrDimensionMismatch}
	}

	copy(p.data.Qpos, s.Pos)
	copy(p.data.Qvel, s.Vel)
	copy(p.data.Qacc, s.Acc)
	p.data.Time = 0
	p.frames = 0
	return nil
}

func (p *Env) CurrentState() (dynamo.State, error) {
	return p.snapshot(), nil
}

// ObservedState equals CurrentState: the engine is fully observable.
func (p *Env) ObservedState() (dynamo.State, error) {
	return p.snapshot(), nil
}

// DynamicStep applies a to the actuator buffer, advances the engine by one
// timestep and recomputes accelerations.
func (p *Env) DynamicStep(a dynamo.Action) (dynamo.State, error) {
	if !a.IsNoControl() && len(a) != p.model.NU() {
		return dynamo.State{}, &dynamo.ShapeError{Field: "action", Expected: p.model.NU(), Got: len(a), Kind: dynamo.ErrActionShape}
	}

	prev := p.data.Ctrl.Clone()
	if !a.IsNoControl() {
		copy(p.data.Ctrl, a)
	}

	if err := p.model.Step(p.data); err != nil {
		copy(p.data.Ctrl, prev)
		return dynamo.State{}, err
	}
	if err := p.model.Forward(p.data); err != nil {
		return dynamo.State{}, err
	}
	p.frames++
	return p.snapshot(), nil
}

// UpdatePlot renders the current state to the attached sink, if any.
func (p *Env) UpdatePlot() error {
	if p.sink == nil {
		return nil
	}
	return p.sink.RenderFrame(viz.Frame{
		Index: p.frames,
		Time:  p.data.Time,
		State: p.snapshot(),
		Ctrl:  p.data.Ctrl.Clone(),
	})
}

// Close releases the sink when it holds resources.
func (p *Env) Close() error {
	if c, ok := p.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *Env) snapshot() dynamo.State {
	return dynamo.State{
		Pos: p.data.Qpos.Clone(),
		Vel: p.data.Qvel.Clone(),
		Acc: p.data.Qacc.Clone(),
	}
}

var (
	_ dynamo.Backend = (*Env)(nil)
	_ dynamo.Plotter = (*Env)(nil)
)
