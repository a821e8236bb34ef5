package env_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

var _ = Describe("Environment", func() {
	var (
		ctx     context.Context
		backend *counterBackend
		plotter *countingPlotter
		e       *env.Environment
		s0      dynamo.State
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = newCounterBackend(5)
		plotter = &countingPlotter{}
		s0 = dynamo.NewState(5, 5)
		s0.Vel[0] = 1

		var err error
		e, err = env.New(backend, env.WithPlotter(plotter))
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a nil backend", func() {
		_, err := env.New(nil)
		Expect(err).To(MatchError(dynamo.ErrNilBackend))
	})

	Context("before Initialize", func() {
		It("fails fast on ApplyControl and records nothing", func() {
			err := e.ApplyControl(ctx, constant(dynamo.NoControl))
			Expect(err).To(MatchError(dynamo.ErrUninitialized))
			Expect(e.Trajectory().Len()).To(Equal(0))
			Expect(backend.steps).To(Equal(0))
		})

		It("fails fast on CurrentTime", func() {
			_, err := e.CurrentTime()
			Expect(err).To(MatchError(dynamo.ErrUninitialized))
		})
	})

	Context("after Initialize", func() {
		BeforeEach(func() {
			Expect(e.Initialize(s0)).To(Succeed())
		})

		It("seeds the trajectory with the start state and no action", func() {
			traj := e.Trajectory()
			Expect(traj.Len()).To(Equal(1))
			Expect(traj.At(0).State.Equal(s0)).To(BeTrue())
			Expect(traj.At(0).Action.IsNoControl()).To(BeTrue())

			now, err := e.CurrentTime()
			Expect(err).NotTo(HaveOccurred())
			Expect(now).To(Equal(1))
			Expect(plotter.updates).To(Equal(1))
		})

		It("pushes the start state into the backend", func() {
			cur, err := e.CurrentState()
			Expect(err).NotTo(HaveOccurred())
			Expect(cur.Equal(s0)).To(BeTrue())
		})

		DescribeTable("keeps length equal to 1 + number of steps",
			func(n int) {
				for i := 0; i < n; i++ {
					Expect(e.ApplyControl(ctx, constant(dynamo.NoControl))).To(Succeed())
				}
				now, err := e.CurrentTime()
				Expect(err).NotTo(HaveOccurred())
				Expect(now).To(Equal(n + 1))
				Expect(e.Trajectory().Len()).To(Equal(n + 1))
				Expect(e.Trajectory().At(0).State.Equal(s0)).To(BeTrue())
				Expect(e.Trajectory().At(0).Action.IsNoControl()).To(BeTrue())
			},
			Entry("no steps", 0),
			Entry("one step", 1),
			Entry("ten steps", 10),
			Entry("a thousand steps", 1000),
		)

		It("records the pre-step observation with the action chosen from it", func() {
			var seen []int
			policy := env.PolicyFunc(func(obs dynamo.State, t int) (dynamo.Action, error) {
				seen = append(seen, t)
				return dynamo.Action{float64(t), 0, 0, 0, 0}, nil
			})

			Expect(e.ApplyControl(ctx, policy)).To(Succeed())
			Expect(e.ApplyControl(ctx, policy)).To(Succeed())

			Expect(seen).To(Equal([]int{1, 2}))

			traj := e.Trajectory()
			Expect(traj.At(1).State.Pos[0]).To(Equal(0.0))
			Expect(traj.At(1).Action).To(Equal(dynamo.Action{1, 0, 0, 0, 0}))
			// after step one: pos0 = 0 + vel 1 + ctrl 1
			Expect(traj.At(2).State.Pos[0]).To(Equal(2.0))
			Expect(traj.At(2).Action).To(Equal(dynamo.Action{2, 0, 0, 0, 0}))
		})

		It("passes the policy a copy of the observation", func() {
			policy := env.PolicyFunc(func(obs dynamo.State, t int) (dynamo.Action, error) {
				obs.Pos[0] = 42
				return dynamo.NoControl, nil
			})
			Expect(e.ApplyControl(ctx, policy)).To(Succeed())
			Expect(e.Trajectory().At(1).State.Pos[0]).To(Equal(0.0))
		})

		It("never writes the control buffer for NoControl", func() {
			Expect(e.Run(ctx, constant(dynamo.NoControl), 5)).To(Succeed())
			Expect(backend.ctrlWrites).To(Equal(0))
			Expect(backend.steps).To(Equal(5))
		})

		It("records three zero actions without error", func() {
			zero := make(dynamo.Action, 5)
			Expect(e.Run(ctx, constant(zero), 3)).To(Succeed())

			traj := e.Trajectory()
			Expect(traj.Len()).To(Equal(4))
			for i := 1; i < traj.Len(); i++ {
				Expect(traj.At(i).Action.Equal(zero)).To(BeTrue())
			}
		})

		It("resets fully when initialized again", func() {
			Expect(e.Run(ctx, constant(dynamo.NoControl), 4)).To(Succeed())

			s1 := dynamo.NewState(5, 5)
			s1.Pos[2] = 3
			Expect(e.Initialize(s1)).To(Succeed())

			traj := e.Trajectory()
			Expect(traj.Len()).To(Equal(1))
			Expect(traj.At(0).State.Equal(s1)).To(BeTrue())
			Expect(traj.At(0).Action.IsNoControl()).To(BeTrue())
		})

		It("keeps earlier snapshots stable", func() {
			snap := e.Trajectory()
			Expect(e.Run(ctx, constant(dynamo.NoControl), 3)).To(Succeed())
			Expect(snap.Len()).To(Equal(1))

			entry := e.Trajectory().At(1)
			entry.State.Pos[0] = 99
			Expect(e.Trajectory().At(1).State.Pos[0]).NotTo(Equal(99.0))
		})

		Context("when a step fails", func() {
			It("propagates policy errors and appends nothing", func() {
				failing := env.PolicyFunc(func(dynamo.State, int) (dynamo.Action, error) {
					return nil, errPolicy
				})
				err := e.ApplyControl(ctx, failing)
				Expect(errors.Is(err, errPolicy)).To(BeTrue())

				var stepErr *dynamo.StepError
				Expect(errors.As(err, &stepErr)).To(BeTrue())
				Expect(stepErr.Op).To(Equal("policy"))
				Expect(stepErr.Step).To(Equal(1))

				Expect(e.Trajectory().Len()).To(Equal(1))
				Expect(backend.steps).To(Equal(0))
			})

			It("propagates action shape errors from the backend", func() {
				err := e.ApplyControl(ctx, constant(dynamo.Action{1, 2}))
				Expect(err).To(MatchError(dynamo.ErrActionShape))
				Expect(e.Trajectory().Len()).To(Equal(1))
			})

			It("propagates observation errors", func() {
				backend.observeErr = dynamo.ErrNotImplemented
				err := e.ApplyControl(ctx, constant(dynamo.NoControl))
				Expect(err).To(MatchError(dynamo.ErrNotImplemented))
				Expect(e.Trajectory().Len()).To(Equal(1))
			})

			It("stops Run at the first failure", func() {
				Expect(e.Run(ctx, constant(dynamo.NoControl), 2)).To(Succeed())
				backend.stepErr = dynamo.ErrInvalidState
				Expect(e.Run(ctx, constant(dynamo.NoControl), 5)).To(MatchError(dynamo.ErrInvalidState))
				Expect(e.Trajectory().Len()).To(Equal(3))
			})

			It("rejects a nil policy", func() {
				Expect(e.ApplyControl(ctx, nil)).To(MatchError(dynamo.ErrNilPolicy))
			})

			It("honours an already cancelled context", func() {
				cctx, cancel := context.WithCancel(ctx)
				cancel()
				Expect(e.ApplyControl(cctx, constant(dynamo.NoControl))).To(MatchError(context.Canceled))
				Expect(e.Trajectory().Len()).To(Equal(1))
			})
		})

		It("does not surface visualization failures", func() {
			plotter.err = errors.New("render failed")
			Expect(e.ApplyControl(ctx, constant(dynamo.NoControl))).To(Succeed())
			Expect(plotter.updates).To(Equal(2))
		})
	})

	It("keeps the trajectory untouched when the start state is rejected", func() {
		Expect(e.Initialize(s0)).To(Succeed())
		err := e.Initialize(dynamo.NewState(2, 2))
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		Expect(e.Trajectory().Len()).To(Equal(1))
		Expect(e.Trajectory().At(0).State.Equal(s0)).To(BeTrue())
	})

	It("notifies observers on reset and every step", func() {
		obs := &recordingObserver{}
		e.AddObserver(obs)

		Expect(e.Initialize(s0)).To(Succeed())
		Expect(e.Run(ctx, constant(dynamo.NoControl), 3)).To(Succeed())

		Expect(obs.resets).To(Equal(1))
		Expect(obs.steps).To(Equal([]int{1, 2, 3}))
	})

	It("reports the capability gap of a partial variant", func() {
		partial, err := env.New(dynamo.Unimplemented{})
		Expect(err).NotTo(HaveOccurred())
		Expect(partial.Initialize(s0)).To(MatchError(dynamo.ErrNotImplemented))
		Expect(partial.Initialized()).To(BeFalse())
	})
})
