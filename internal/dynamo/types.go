package dynamo

import (
	"fmt"
	"math"
)

type Vector []float64

func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

func (v Vector) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (v Vector) Norm() float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func (v Vector) Add(other Vector) Vector {
	result := make(Vector, len(v))
	for i := range v {
		if i < len(other) {
			result[i] = v[i] + other[i]
		} else {
			result[i] = v[i]
		}
	}
	return result
}

func (v Vector) Sub(other Vector) Vector {
	result := make(Vector, len(v))
	for i := range v {
		if i < len(other) {
			result[i] = v[i] - other[i]
		} else {
			result[i] = v[i]
		}
	}
	return result
}

func (v Vector) Scale(factor float64) Vector {
	result := make(Vector, len(v))
	for i := range v {
		result[i] = v[i] * factor
	}
	return result
}

func (v Vector) Equal(other Vector) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}

// State is the configuration of the system at one instant.
type State struct {
	Pos Vector
	Vel Vector
	Acc Vector
}

// NewState returns a zero state with nq position and nv velocity/acceleration coordinates.
func NewState(nq, nv int) State {
	return State{
		Pos: make(Vector, nq),
		Vel: make(Vector, nv),
		Acc: make(Vector, nv),
	}
}

func (s State) Clone() State {
	return State{Pos: s.Pos.Clone(), Vel: s.Vel.Clone(), Acc: s.Acc.Clone()}
}

// Dim is the length of the flattened state.
func (s State) Dim() int {
	return len(s.Pos) + len(s.Vel) + len(s.Acc)
}

// Flatten returns pos, vel and acc concatenated into one vector.
func (s State) Flatten() Vector {
	out := make(Vector, 0, s.Dim())
	out = append(out, s.Pos...)
	out = append(out, s.Vel...)
	return append(out, s.Acc...)
}

// SameShape reports whether both states have identical per-component lengths.
func (s State) SameShape(other State) bool {
	return len(s.Pos) == len(other.Pos) && len(s.Vel) == len(other.Vel) && len(s.Acc) == len(other.Acc)
}

func (s State) IsValid() bool {
	return s.Pos.IsValid() && s.Vel.IsValid() && s.Acc.IsValid()
}

func (s State) Equal(other State) bool {
	return s.Pos.Equal(other.Pos) && s.Vel.Equal(other.Vel) && s.Acc.Equal(other.Acc)
}

func (s State) String() string {
	return fmt.Sprintf("pos=%v vel=%v acc=%v", []float64(s.Pos), []float64(s.Vel), []float64(s.Acc))
}

// Action is the control input for a single step. The nil Action is NoControl.
type Action []float64

// NoControl lets the system evolve autonomously for one step.
var NoControl Action

func (a Action) IsNoControl() bool {
	return a == nil
}

func (a Action) Clone() Action {
	if a == nil {
		return nil
	}
	c := make(Action, len(a))
	copy(c, a)
	return c
}

func (a Action) Equal(other Action) bool {
	if a.IsNoControl() || other.IsNoControl() {
		return a.IsNoControl() == other.IsNoControl()
	}
	return Vector(a).Equal(Vector(other))
}

// System describes first-order phase-space dynamics dX/dt = f(X, u, t).
type System interface {
	Derive(x Vector, u Vector, t float64) Vector
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x Vector, u Vector, t float64, dt float64) Vector
}
