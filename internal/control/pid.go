package control

import "github.com/san-kum/dynenv/internal/dynamo"

// PID drives each of the first N positions towards Target, one output per
// position. Outputs beyond the number of positions are zero.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64
	N      int

	integral []float64
	prevErr  []float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64, n int) *PID {
	return &PID{
		Kp:       kp,
		Ki:       ki,
		Kd:       kd,
		Target:   target,
		N:        n,
		integral: make([]float64, n),
		prevErr:  make([]float64, n),
		first:    true,
	}
}

func (p *PID) Compute(x dynamo.Vector, t float64) dynamo.Vector {
	u := make(dynamo.Vector, p.N)
	nq := len(x) / 2

	dt := t - p.prevT
	for i := 0; i < p.N && i < nq; i++ {
		err := p.Target - x[i]

		if p.first || dt <= 0 {
			u[i] = p.Kp * err
			p.prevErr[i] = err
			continue
		}

		p.integral[i] += err * dt
		derivative := (err - p.prevErr[i]) / dt
		u[i] = p.Kp*err + p.Ki*p.integral[i] + p.Kd*derivative
		p.prevErr[i] = err
	}

	if p.first || dt > 0 {
		p.prevT = t
	}
	p.first = false
	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	for i := range p.integral {
		p.integral[i] = 0
		p.prevErr[i] = 0
	}
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	}
}
