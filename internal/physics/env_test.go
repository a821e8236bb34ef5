package physics

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
	"github.com/san-kum/dynenv/internal/viz"
)

func constant(a dynamo.Action) env.Policy {
	return env.PolicyFunc(func(dynamo.State, int) (dynamo.Action, error) {
		return a, nil
	})
}

type failingSink struct {
	viz.Recorder
	startErr error
	bindErr  error
	closed   bool
}

func (s *failingSink) Start() error { return s.startErr }

func (s *failingSink) Bind(viz.ModelInfo) error { return s.bindErr }

func (s *failingSink) Close() error {
	s.closed = true
	return nil
}

func TestNewRejectsUnloadableDescriptor(t *testing.T) {
	for _, descriptor := range []string{"", "builtin:nope", filepath.Join(t.TempDir(), "missing.yaml")} {
		e, err := New(descriptor)
		assert.ErrorIs(t, err, dynamo.ErrLoad, descriptor)
		assert.Nil(t, e, descriptor)
	}
}

func TestNewRejectsUnknownIntegrator(t *testing.T) {
	e, err := New("pendulum", WithIntegrator("magic"))
	assert.ErrorIs(t, err, dynamo.ErrLoad)
	assert.Nil(t, e)
}

func TestSetStateRoundTrip(t *testing.T) {
	e, err := New("builtin:arm5")
	require.NoError(t, err)

	s := e.ZeroState()
	for i := range s.Pos {
		s.Pos[i] = 0.1 * float64(i)
		s.Vel[i] = -0.2 * float64(i)
		s.Acc[i] = 0.3
	}
	require.NoError(t, e.SetState(s))

	cur, err := e.CurrentState()
	require.NoError(t, err)
	assert.True(t, cur.Equal(s))

	obs, err := e.ObservedState()
	require.NoError(t, err)
	assert.True(t, obs.Equal(cur))

	cur.Pos[0] = 99
	again, _ := e.CurrentState()
	assert.NotEqual(t, 99.0, again.Pos[0], "reads must be copies")
}

func TestSetStateDimensionMismatch(t *testing.T) {
	e, err := New("arm5")
	require.NoError(t, err)

	err = e.SetState(dynamo.NewState(3, 5))
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)

	var shape *dynamo.ShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, "pos", shape.Field)
	assert.Equal(t, 5, shape.Expected)
	assert.Equal(t, 3, shape.Got)
}

func TestNoControlLeavesCtrlUntouched(t *testing.T) {
	e, err := New("arm5")
	require.NoError(t, err)
	require.NoError(t, e.Initialize(e.ZeroState()))

	push := dynamo.Action{0.5, 0, 0, 0, -0.5}
	require.NoError(t, e.ApplyControl(context.Background(), constant(push)))
	assert.Equal(t, dynamo.Vector{0.5, 0, 0, 0, -0.5}, e.Ctrl())

	require.NoError(t, e.Run(context.Background(), constant(dynamo.NoControl), 3))
	assert.Equal(t, dynamo.Vector{0.5, 0, 0, 0, -0.5}, e.Ctrl())

	traj := e.Trajectory()
	assert.Equal(t, 5, traj.Len())
	assert.True(t, traj.At(2).Action.IsNoControl())
}

func TestBadActionShape(t *testing.T) {
	e, err := New("arm5")
	require.NoError(t, err)
	require.NoError(t, e.Initialize(e.ZeroState()))
	before := e.Ctrl()

	err = e.ApplyControl(context.Background(), constant(dynamo.Action{1, 2, 3}))
	assert.ErrorIs(t, err, dynamo.ErrActionShape)

	var stepErr *dynamo.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "dynamic step", stepErr.Op)

	assert.Equal(t, 1, e.Trajectory().Len())
	assert.Equal(t, before, e.Ctrl())
	assert.Zero(t, e.SimTime())
}

func TestEmptyActionIsNotNoControl(t *testing.T) {
	e, err := New("arm5")
	require.NoError(t, err)
	require.NoError(t, e.Initialize(e.ZeroState()))

	err = e.ApplyControl(context.Background(), constant(dynamo.Action{}))
	assert.ErrorIs(t, err, dynamo.ErrActionShape)
}

func TestZeroActionsOnArm(t *testing.T) {
	e, err := New("builtin:arm5")
	require.NoError(t, err)

	s0 := e.ZeroState()
	require.Equal(t, 15, s0.Dim())
	require.NoError(t, e.Initialize(s0))

	zero := make(dynamo.Action, 5)
	for i := 0; i < 3; i++ {
		require.NoError(t, e.ApplyControl(context.Background(), constant(zero)))
	}

	traj := e.Trajectory()
	require.Equal(t, 4, traj.Len())
	assert.True(t, traj.At(0).Action.IsNoControl())
	for i := 1; i < traj.Len(); i++ {
		assert.True(t, traj.At(i).Action.Equal(zero))
		assert.Equal(t, 15, traj.At(i).State.Dim())
	}

	now, err := e.CurrentTime()
	require.NoError(t, err)
	assert.Equal(t, 4, now)
	assert.InDelta(t, 0.03, e.SimTime(), 1e-9)
}

func TestDynamicStepMovesPendulum(t *testing.T) {
	e, err := New("pendulum")
	require.NoError(t, err)

	s := e.ZeroState()
	s.Pos[0] = 0.5
	require.NoError(t, e.SetState(s))

	next, err := e.DynamicStep(dynamo.NoControl)
	require.NoError(t, err)
	assert.Less(t, next.Vel[0], 0.0, "gravity should swing the pendulum back")
	assert.Less(t, next.Acc[0], 0.0)
}

func TestSinkReceivesFrames(t *testing.T) {
	rec := viz.NewRecorder()
	e, err := New("cartpole_lite", WithSink(rec))
	require.NoError(t, err)

	assert.True(t, rec.Started)
	assert.Equal(t, "cartpole_lite", rec.Info.Name)
	require.Len(t, rec.Info.Joints, 2)
	assert.Equal(t, "slide", rec.Info.Joints[0].Type)

	require.NoError(t, e.Initialize(e.ZeroState()))
	require.NoError(t, e.Run(context.Background(), constant(dynamo.Action{0.2}), 4))

	require.Len(t, rec.Frames, 5)
	assert.Equal(t, 0, rec.Frames[0].Index)
	assert.Equal(t, 4, rec.Frames[4].Index)
	assert.Equal(t, dynamo.Vector{0.2}, rec.Frames[4].Ctrl)
}

func TestSinkStartFailure(t *testing.T) {
	sink := &failingSink{startErr: errors.New("no tty")}
	e, err := New("pendulum", WithSink(sink))
	assert.Error(t, err)
	assert.Nil(t, e)
}

func TestSinkBindFailureClosesSink(t *testing.T) {
	sink := &failingSink{bindErr: errors.New("bad model")}
	e, err := New("pendulum", WithSink(sink))
	assert.ErrorContains(t, err, "bad model")
	assert.Nil(t, e)
	assert.True(t, sink.closed, "started sink must be closed when bind fails")
}

func TestCloseClosesSink(t *testing.T) {
	sink := &failingSink{}
	e, err := New("pendulum", WithSink(sink))
	require.NoError(t, err)
	require.NoError(t, e.Close())
	assert.True(t, sink.closed)

	plain, err := New("pendulum")
	require.NoError(t, err)
	assert.NoError(t, plain.Close())
}

type countingObserver struct{ steps int }

func (c *countingObserver) OnReset(dynamo.State) {}

func (c *countingObserver) OnStep(env.Entry, int) { c.steps++ }

func TestObserverOption(t *testing.T) {
	obs := &countingObserver{}
	e, err := New("pendulum", WithObserver(obs))
	require.NoError(t, err)
	require.NoError(t, e.Initialize(e.ZeroState()))
	require.NoError(t, e.Run(context.Background(), constant(dynamo.NoControl), 7))
	assert.Equal(t, 7, obs.steps)
}
