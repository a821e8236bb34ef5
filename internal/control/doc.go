// Package control provides policies for the environment control loop.
//
// Every policy implements [env.Policy]:
//
//   - [Autonomous]: NoControl at every step, the system evolves freely
//   - [Zero]: an explicit all-zero action
//   - [Random]: uniform random actions, seeded for reproducibility
//   - [Replay]: actions taken from a recorded trajectory
//
// Feedback controllers ([PID], [LQR]) work on the phase-space vector
// [q..., v...] and are turned into policies with [FromController]:
//
//	pid := control.NewPID(10, 0.1, 2, 0.0, model.NU())
//	policy := control.FromController(pid, model.Timestep())
//
// Controllers implementing Tunable support live tuning.
package control
