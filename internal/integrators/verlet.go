package integrators

import "github.com/san-kum/dynenv/internal/dynamo"

// Verlet is velocity Verlet for states laid out as [q..., v...]. The
// acceleration is re-evaluated at the new position with the old velocity.
type Verlet struct {
	scratch dynamo.Vector
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(dyn dynamo.System, x dynamo.Vector, u dynamo.Vector, t, dt float64) dynamo.Vector {
	n := len(x)
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(dynamo.Vector, n)
	}

	result := make(dynamo.Vector, n)
	dx := dyn.Derive(x, u, t)

	halfDt2 := 0.5 * dt * dt
	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + dx[half+i]*halfDt2
		v.scratch[i] = result[i]
		v.scratch[half+i] = x[half+i]
	}

	dxNew := dyn.Derive(v.scratch, u, t+dt)

	halfDt := 0.5 * dt
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + (dx[half+i]+dxNew[half+i])*halfDt
	}

	return result
}
