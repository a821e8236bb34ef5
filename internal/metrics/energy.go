package metrics

import (
	"math"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

// EnergyFunc maps a velocity vector to kinetic energy.
type EnergyFunc func(vel dynamo.Vector) float64

// PointMasses is sum 1/2 m_i v_i^2.
func PointMasses(masses []float64) EnergyFunc {
	return func(vel dynamo.Vector) float64 {
		e := 0.0
		for i, m := range masses {
			if i < len(vel) {
				e += 0.5 * m * vel[i] * vel[i]
			}
		}
		return e
	}
}

// KineticDrift is the largest change in kinetic energy relative to the
// episode start. When the start energy is zero the drift is absolute.
type KineticDrift struct {
	name     string
	energy   EnergyFunc
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewKineticDrift(energy EnergyFunc) *KineticDrift {
	return &KineticDrift{
		name:   "kinetic_drift",
		energy: energy,
	}
}

func (k *KineticDrift) Name() string { return k.name }

func (k *KineticDrift) OnReset(s0 dynamo.State) {
	k.initial = k.energy(s0.Vel)
	k.current = k.initial
	k.maxDrift = 0
	k.samples = 1
}

func (k *KineticDrift) OnStep(e env.Entry, t int) {
	energy := k.energy(e.State.Vel)
	k.current = energy
	k.samples++

	drift := math.Abs(energy - k.initial)
	if k.initial != 0 {
		drift /= math.Abs(k.initial)
	}
	k.maxDrift = math.Max(k.maxDrift, drift)
}

func (k *KineticDrift) Value() float64 {
	return k.maxDrift
}

// Current is the kinetic energy of the latest recorded state.
func (k *KineticDrift) Current() float64 { return k.current }
