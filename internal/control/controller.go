package control

import (
	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

// Controller computes a control input from the phase-space vector
// [q..., v...] at simulation time t.
type Controller interface {
	Compute(x dynamo.Vector, t float64) dynamo.Vector
}

// Tunable exposes controller gains by name.
type Tunable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64)
}

// FromController adapts c to the policy contract. The step index is turned
// into time with dt.
func FromController(c Controller, dt float64) env.Policy {
	return env.PolicyFunc(func(obs dynamo.State, t int) (dynamo.Action, error) {
		x := make(dynamo.Vector, 0, len(obs.Pos)+len(obs.Vel))
		x = append(x, obs.Pos...)
		x = append(x, obs.Vel...)
		return dynamo.Action(c.Compute(x, float64(t)*dt)), nil
	})
}
