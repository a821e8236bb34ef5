package env_test

import (
	"errors"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

// counterBackend moves every position by its velocity plus the control input.
type counterBackend struct {
	state      dynamo.State
	ctrl       dynamo.Vector
	ctrlWrites int
	steps      int
	stepErr    error
	observeErr error
}

func newCounterBackend(n int) *counterBackend {
	return &counterBackend{state: dynamo.NewState(n, n), ctrl: make(dynamo.Vector, n)}
}

func (b *counterBackend) SetState(s dynamo.State) error {
	if len(s.Pos) != len(b.ctrl) {
		return dynamo.ErrDimensionMismatch
	}
	b.state = s.Clone()
	return nil
}

func (b *counterBackend) CurrentState() (dynamo.State, error) { return b.state.Clone(), nil }

func (b *counterBackend) ObservedState() (dynamo.State, error) {
	if b.observeErr != nil {
		return dynamo.State{}, b.observeErr
	}
	return b.state.Clone(), nil
}

func (b *counterBackend) DynamicStep(a dynamo.Action) (dynamo.State, error) {
	if b.stepErr != nil {
		return dynamo.State{}, b.stepErr
	}
	if !a.IsNoControl() {
		if len(a) != len(b.ctrl) {
			return dynamo.State{}, dynamo.ErrActionShape
		}
		copy(b.ctrl, a)
		b.ctrlWrites++
	}
	for i := range b.state.Pos {
		b.state.Pos[i] += b.state.Vel[i] + b.ctrl[i]
	}
	b.steps++
	return b.state.Clone(), nil
}

type countingPlotter struct {
	updates int
	err     error
}

func (p *countingPlotter) UpdatePlot() error {
	p.updates++
	return p.err
}

type recordingObserver struct {
	resets int
	steps  []int
}

func (o *recordingObserver) OnReset(dynamo.State) { o.resets++ }

func (o *recordingObserver) OnStep(_ env.Entry, t int) { o.steps = append(o.steps, t) }

var errPolicy = errors.New("policy exploded")

func constant(a dynamo.Action) env.PolicyFunc {
	return func(dynamo.State, int) (dynamo.Action, error) { return a, nil }
}
