// Package env implements the generic control loop over a [dynamo.Backend].
//
// An [Environment] is initialized with a start state and then driven one
// step at a time by [Environment.ApplyControl]. Each step observes the
// current state, asks a [Policy] for an action, advances the backend and
// appends the pre-step observation with the chosen action to the trajectory:
//
//	e, _ := env.New(backend, env.WithPlotter(sink))
//	if err := e.Initialize(s0); err != nil {
//	    return err
//	}
//	for i := 0; i < 1000; i++ {
//	    if err := e.ApplyControl(ctx, policy); err != nil {
//	        return err
//	    }
//	}
//	traj := e.Trajectory()
//
// # Thread Safety
//
// Environment instances are NOT thread-safe. A single caller owns an
// environment for its whole lifetime.
package env
