// Package physics binds the rigid-body engine to the control-loop contract.
//
// [Env] loads a model descriptor through [engine.Load] and implements
// [dynamo.Backend] and [dynamo.Plotter] over the engine's qpos, qvel, qacc
// and ctrl buffers. It embeds an [env.Environment] driving itself, so the
// usual loop is:
//
//	e, err := physics.New("builtin:arm5", physics.WithSink(viz.NewTerminal(os.Stdout)))
//	if err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	e.Initialize(e.ZeroState())
//	e.Run(ctx, control.Random(e.Model().NU(), 1.0, 1), 1000)
//
// # Control buffer
//
// [dynamo.NoControl] leaves the actuator buffer exactly as it was, so the
// last applied control keeps acting. Any other action must have one value
// per actuator or [dynamo.ErrActionShape] is returned and nothing changes.
//
// # Visualization
//
// A sink attached with [WithSink] is started and bound to the model during
// [New]. Without one, UpdatePlot does nothing.
package physics
