// Package dynamo provides the core value types and capability contracts for
// driving a dynamical system through a control loop.
//
// The package defines:
//
//   - [Vector]: ordered sequence of floating-point numbers
//   - [State]: position, velocity and acceleration of the system
//   - [Action]: control input for one step, or [NoControl]
//   - [StateAccess], [Stepper], [Plotter]: capabilities a backend supplies
//   - [System] and [Integrator]: phase-space dynamics and their steppers
//
// # Example
//
//	var b dynamo.Backend = physicsEnv
//	if err := b.SetState(s0); err != nil {
//	    return err
//	}
//	next, err := b.DynamicStep(dynamo.NoControl)
//
// # Copy Semantics
//
// Values crossing a backend boundary are copies. Backends never hand out
// references to their internal buffers and never retain the slices they are
// given.
package dynamo
