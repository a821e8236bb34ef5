package control

import "github.com/san-kum/dynenv/internal/dynamo"

// LQR is full-state feedback u = -K (x - Target). Missing target entries
// count as zero.
type LQR struct {
	K      [][]float64
	Target dynamo.Vector
}

func NewLQR(k [][]float64, target dynamo.Vector) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Compute(x dynamo.Vector, t float64) dynamo.Vector {
	u := make(dynamo.Vector, len(l.K))
	for i := range u {
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			if j < len(l.K[i]) {
				u[i] -= l.K[i][j] * (x[j] - target)
			}
		}
	}
	return u
}

var pendulumGains = [][]float64{{31.62, 10.0}}

// NewPendulumLQR holds the built-in pendulum at its lower equilibrium.
func NewPendulumLQR() *LQR {
	return NewLQR(pendulumGains, dynamo.Vector{0, 0})
}

// NewDiagonalLQR applies gains kq on position and kv on velocity of joint i
// to actuator i, for models with one motor per joint.
func NewDiagonalLQR(n int, kq, kv float64) *LQR {
	k := make([][]float64, n)
	for i := range k {
		k[i] = make([]float64, 2*n)
		k[i][i] = kq
		k[i][n+i] = kv
	}
	return NewLQR(k, make(dynamo.Vector, 2*n))
}
