package engine

import (
	"fmt"
	"sort"
)

var builtins = map[string]func() ModelSpec{
	"pendulum":      pendulumSpec,
	"cartpole_lite": cartPoleSpec,
	"arm5":          func() ModelSpec { return armSpec("arm5", 5) },
	"pr2_lite":      func() ModelSpec { return armSpec("pr2_lite", 7) },
}

// Builtin returns a fresh copy of a named built-in spec.
func Builtin(name string) (ModelSpec, bool) {
	fn, ok := builtins[name]
	if !ok {
		return ModelSpec{}, false
	}
	return fn(), true
}

func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func pendulumSpec() ModelSpec {
	spec := DefaultSpec()
	spec.Name = "pendulum"
	spec.Joints = []JointSpec{
		{Name: "hinge", Type: Hinge, Mass: 1.0, Length: 1.0, Damping: 0.1},
	}
	spec.Actuators = []ActuatorSpec{
		{Name: "torque", Joint: "hinge", Gear: 1.0, CtrlRange: []float64{-5, 5}},
	}
	return spec
}

// cartPoleSpec approximates the pole as a hinge tied to the cart by a stiff spring.
func cartPoleSpec() ModelSpec {
	spec := DefaultSpec()
	spec.Name = "cartpole_lite"
	spec.Joints = []JointSpec{
		{Name: "cart", Type: Slide, Mass: 1.0, Damping: 0.05},
		{Name: "pole", Type: Hinge, Mass: 0.1, Length: 1.0, Damping: 0.01},
	}
	spec.Couplings = []CouplingSpec{
		{A: "cart", B: "pole", Stiffness: 0.5},
	}
	spec.Actuators = []ActuatorSpec{
		{Name: "push", Joint: "cart", Gear: 10.0, CtrlRange: []float64{-1, 1}},
	}
	return spec
}

// armSpec is a serial chain of n hinge joints with one motor per joint.
// Links get lighter and shorter towards the end effector.
func armSpec(name string, n int) ModelSpec {
	spec := DefaultSpec()
	spec.Name = name
	spec.Integrator = "rk4"

	for i := 0; i < n; i++ {
		scale := 1.0 - 0.1*float64(i)
		spec.Joints = append(spec.Joints, JointSpec{
			Name:      fmt.Sprintf("j%d", i),
			Type:      Hinge,
			Mass:      1.0 * scale,
			Length:    0.4 * scale,
			Damping:   0.5,
			Stiffness: 2.0,
		})
		spec.Actuators = append(spec.Actuators, ActuatorSpec{
			Name:      fmt.Sprintf("m%d", i),
			Joint:     fmt.Sprintf("j%d", i),
			Gear:      1.0,
			CtrlRange: []float64{-2, 2},
		})
	}
	for i := 0; i+1 < n; i++ {
		spec.Couplings = append(spec.Couplings, CouplingSpec{
			A:         fmt.Sprintf("j%d", i),
			B:         fmt.Sprintf("j%d", i+1),
			Stiffness: 0.5,
		})
	}
	return spec
}
