package engine

import (
	"fmt"
	"math"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/integrators"
)

type joint struct {
	kind      JointType
	mass      float64
	length    float64
	damping   float64
	stiffness float64
	rest      float64
	inertia   float64
}

type coupling struct {
	a, b int
	k    float64
}

type actuator struct {
	joint   int
	gear    float64
	lo, hi  float64
	limited bool
}

// Model is a compiled model descriptor. It implements dynamo.System over the
// phase-space vector [qpos..., qvel...] with ctrl as the input.
type Model struct {
	name      string
	dt        float64
	gravity   float64
	integName string
	integ     dynamo.Integrator

	joints     []joint
	couplings  []coupling
	actuators  []actuator
	jointNames []string
	actNames   []string
}

// Data holds the mutable simulation buffers for one Model.
type Data struct {
	Qpos dynamo.Vector
	Qvel dynamo.Vector
	Qacc dynamo.Vector
	Ctrl dynamo.Vector
	Time float64
}

// Compile validates spec and builds a Model.
func Compile(spec ModelSpec) (*Model, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	integ, err := integrators.ByName(spec.Integrator)
	if err != nil {
		return nil, err
	}

	m := &Model{
		name:      spec.Name,
		dt:        spec.Timestep,
		gravity:   spec.Gravity,
		integName: spec.Integrator,
		integ:     integ,
	}
	if m.integName == "" {
		m.integName = integrators.Default
	}

	index := make(map[string]int, len(spec.Joints))
	for i, js := range spec.Joints {
		index[js.Name] = i
		j := joint{
			kind:      js.Type,
			mass:      js.Mass,
			length:    js.Length,
			damping:   js.Damping,
			stiffness: js.Stiffness,
			rest:      js.Rest,
			inertia:   js.Mass,
		}
		if js.Type == Hinge {
			j.inertia = js.Mass * js.Length * js.Length
		}
		m.joints = append(m.joints, j)
		m.jointNames = append(m.jointNames, js.Name)
	}

	for _, cs := range spec.Couplings {
		m.couplings = append(m.couplings, coupling{a: index[cs.A], b: index[cs.B], k: cs.Stiffness})
	}

	for _, as := range spec.Actuators {
		a := actuator{joint: index[as.Joint], gear: as.Gear}
		if len(as.CtrlRange) == 2 {
			a.lo, a.hi, a.limited = as.CtrlRange[0], as.CtrlRange[1], true
		}
		m.actuators = append(m.actuators, a)
		m.actNames = append(m.actNames, as.Name)
	}

	return m, nil
}

// SetIntegrator replaces the stepping scheme.
func (m *Model) SetIntegrator(name string) error {
	integ, err := integrators.ByName(name)
	if err != nil {
		return err
	}
	m.integ = integ
	m.integName = name
	return nil
}

func (m *Model) Name() string       { return m.name }
func (m *Model) Timestep() float64  { return m.dt }
func (m *Model) Integrator() string { return m.integName }

// NQ is the number of position coordinates.
func (m *Model) NQ() int { return len(m.joints) }

// NV is the number of velocity coordinates.
func (m *Model) NV() int { return len(m.joints) }

// NU is the number of actuators.
func (m *Model) NU() int { return len(m.actuators) }

func (m *Model) JointNames() []string    { return append([]string(nil), m.jointNames...) }
func (m *Model) ActuatorNames() []string { return append([]string(nil), m.actNames...) }

func (m *Model) JointTypes() []JointType {
	out := make([]JointType, len(m.joints))
	for i, j := range m.joints {
		out[i] = j.kind
	}
	return out
}

func (m *Model) JointLengths() []float64 {
	out := make([]float64, len(m.joints))
	for i, j := range m.joints {
		out[i] = j.length
	}
	return out
}

// Masses returns the mass of each joint body.
func (m *Model) Masses() []float64 {
	out := make([]float64, len(m.joints))
	for i, j := range m.joints {
		out[i] = j.mass
	}
	return out
}

// NewData returns zeroed buffers sized for m.
func (m *Model) NewData() *Data {
	return &Data{
		Qpos: make(dynamo.Vector, m.NQ()),
		Qvel: make(dynamo.Vector, m.NV()),
		Qacc: make(dynamo.Vector, m.NV()),
		Ctrl: make(dynamo.Vector, m.NU()),
	}
}

func (m *Model) StateDim() int   { return m.NQ() + m.NV() }
func (m *Model) ControlDim() int { return m.NU() }

func (m *Model) Derive(x dynamo.Vector, u dynamo.Vector, t float64) dynamo.Vector {
	n := m.NQ()
	dx := make(dynamo.Vector, 2*n)
	copy(dx[:n], x[n:])
	copy(dx[n:], m.accel(x[:n], x[n:], u))
	return dx
}

func (m *Model) accel(q, v, u dynamo.Vector) dynamo.Vector {
	force := make([]float64, len(m.joints))

	for i, j := range m.joints {
		f := -j.damping*v[i] - j.stiffness*(q[i]-j.rest)
		if j.kind == Hinge {
			f -= j.mass * m.gravity * j.length * math.Sin(q[i])
		}
		force[i] = f
	}

	for _, c := range m.couplings {
		f := c.k * (q[c.b] - q[c.a])
		force[c.a] += f
		force[c.b] -= f
	}

	for i, a := range m.actuators {
		if i < len(u) {
			force[a.joint] += a.gear * u[i]
		}
	}

	acc := make(dynamo.Vector, len(m.joints))
	for i, j := range m.joints {
		acc[i] = force[i] / j.inertia
	}
	return acc
}

func (m *Model) checkData(d *Data) error {
	switch {
	case len(d.Qpos) != m.NQ():
		return &dynamo.ShapeError{Field: "qpos", Expected: m.NQ(), Got: len(d.Qpos), Kind: dynamo.ErrDimensionMismatch}
	case len(d.Qvel) != m.NV():
		return &dynamo.ShapeError{Field: "qvel", Expected: m.NV(), Got: len(d.Qvel), Kind: dynamo.ErrDimensionMismatch}
	case len(d.Qacc) != m.NV():
		return &dynamo.ShapeError{Field: "qacc", Expected: m.NV(), Got: len(d.Qacc), Kind: dynamo.ErrDimensionMismatch}
	case len(d.Ctrl) != m.NU():
		return &dynamo.ShapeError{Field: "ctrl", Expected: m.NU(), Got: len(d.Ctrl), Kind: dynamo.ErrActionShape}
	}
	return nil
}

// clampedCtrl applies actuator ranges without touching d.Ctrl.
func (m *Model) clampedCtrl(ctrl dynamo.Vector) dynamo.Vector {
	u := ctrl.Clone()
	for i, a := range m.actuators {
		if a.limited {
			u[i] = math.Max(a.lo, math.Min(a.hi, u[i]))
		}
	}
	return u
}

// Step advances d by one timestep. On error d is left unchanged.
func (m *Model) Step(d *Data) error {
	if err := m.checkData(d); err != nil {
		return err
	}

	n := m.NQ()
	x := make(dynamo.Vector, 2*n)
	copy(x[:n], d.Qpos)
	copy(x[n:], d.Qvel)

	next := m.integ.Step(m, x, m.clampedCtrl(d.Ctrl), d.Time, m.dt)
	if !next.IsValid() {
		return fmt.Errorf("%w at t=%.4f", dynamo.ErrInvalidState, d.Time+m.dt)
	}

	copy(d.Qpos, next[:n])
	copy(d.Qvel, next[n:])
	d.Time += m.dt
	return nil
}

// Forward recomputes Qacc from the current positions, velocities and controls.
func (m *Model) Forward(d *Data) error {
	if err := m.checkData(d); err != nil {
		return err
	}
	copy(d.Qacc, m.accel(d.Qpos, d.Qvel, m.clampedCtrl(d.Ctrl)))
	return nil
}

// KineticEnergy is the sum of 1/2 I v^2 over all joints.
func (m *Model) KineticEnergy(qvel dynamo.Vector) float64 {
	e := 0.0
	for i, j := range m.joints {
		if i < len(qvel) {
			e += 0.5 * j.inertia * qvel[i] * qvel[i]
		}
	}
	return e
}
