// Package engine is a small rigid-body backend for articulated models.
//
// A model is a set of hinge and slide joints, optional spring couplings
// between joints and actuators that map control inputs onto joint torques or
// forces. Models are described in YAML or picked from the built-in set:
//
//	m, err := engine.Load("builtin:arm5")
//	d := m.NewData()
//	d.Ctrl[0] = 0.3
//	if err := m.Step(d); err != nil {
//	    return err
//	}
//	m.Forward(d)
//
// A [Model] carries integrator scratch buffers and must be owned by a single
// caller.
package engine
